package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	standardtls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func parseLeaf(t *testing.T, cert *standardtls.Certificate) *x509.Certificate {
	t.Helper()
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return leaf
}

func TestGenerateSelfSignedCert(t *testing.T) {
	t.Parallel()

	cert, err := GenerateSelfSignedCert("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf := parseLeaf(t, cert)

	if leaf.Subject.CommonName != "localhost" {
		t.Errorf("CN: got %q, want %q", leaf.Subject.CommonName, "localhost")
	}
	if !slices.Contains(leaf.DNSNames, "localhost") {
		t.Errorf("DNS SANs: %v does not contain localhost", leaf.DNSNames)
	}

	var ips []string
	for _, ip := range leaf.IPAddresses {
		ips = append(ips, ip.String())
	}
	if !slices.Contains(ips, "127.0.0.1") || !slices.Contains(ips, "::1") {
		t.Errorf("IP SANs: %v missing loopback addresses", ips)
	}

	validDuration := leaf.NotAfter.Sub(leaf.NotBefore)
	if validDuration < selfSignedValidity-time.Hour || validDuration > selfSignedValidity+time.Hour {
		t.Errorf("validity duration: got %v, want approximately %v", validDuration, selfSignedValidity)
	}

	ecKey, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		t.Fatal("public key is not ECDSA")
	}
	if ecKey.Curve != elliptic.P256() {
		t.Errorf("curve: got %v, want P-256", ecKey.Curve.Params().Name)
	}
	if leaf.Issuer.CommonName != leaf.Subject.CommonName {
		t.Errorf("issuer CN %q does not match subject CN %q", leaf.Issuer.CommonName, leaf.Subject.CommonName)
	}
}

func TestGenerateSelfSignedCert_Host(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host    string
		wantDNS string
		wantIP  string
	}{
		{host: "contact.example.com", wantDNS: "contact.example.com"},
		{host: "10.0.0.5", wantIP: "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			cert, err := GenerateSelfSignedCert(tt.host)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			leaf := parseLeaf(t, cert)

			if leaf.Subject.CommonName != tt.host {
				t.Errorf("CN: got %q, want %q", leaf.Subject.CommonName, tt.host)
			}
			if tt.wantDNS != "" {
				if err := leaf.VerifyHostname(tt.wantDNS); err != nil {
					t.Errorf("VerifyHostname(%q): %v", tt.wantDNS, err)
				}
			}
			if tt.wantIP != "" {
				if err := leaf.VerifyHostname(tt.wantIP); err != nil {
					t.Errorf("VerifyHostname(%q): %v", tt.wantIP, err)
				}
			}
		})
	}
}

func TestLoadOrGenerateTLS_SelfSigned(t *testing.T) {
	t.Parallel()

	tlsConfig, mode, err := LoadOrGenerateTLS("", "", "localhost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeSelfSigned {
		t.Errorf("mode: got %q, want %q", mode, ModeSelfSigned)
	}
	if len(tlsConfig.Certificates) != 1 {
		t.Errorf("Certificates: got %d, want 1", len(tlsConfig.Certificates))
	}
	if tlsConfig.MinVersion != standardtls.VersionTLS12 {
		t.Errorf("MinVersion: got %d, want TLS 1.2 (%d)", tlsConfig.MinVersion, standardtls.VersionTLS12)
	}
}

func TestLoadOrGenerateTLS_FromFiles(t *testing.T) {
	t.Parallel()

	cert, err := GenerateSelfSignedCert("files.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(cert.PrivateKey)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]}), 0600); err != nil {
		t.Fatalf("failed to write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}

	tlsConfig, mode, err := LoadOrGenerateTLS(certFile, keyFile, "ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeFile {
		t.Errorf("mode: got %q, want %q", mode, ModeFile)
	}
	leaf := parseLeaf(t, &tlsConfig.Certificates[0])
	if leaf.Subject.CommonName != "files.example.com" {
		t.Errorf("CN: got %q, want certificate from file", leaf.Subject.CommonName)
	}
}

func TestLoadOrGenerateTLS_FileNotFound(t *testing.T) {
	t.Parallel()

	if _, _, err := LoadOrGenerateTLS("/nonexistent/cert.pem", "/nonexistent/key.pem", ""); err == nil {
		t.Error("expected error for nonexistent files, got nil")
	}
}
