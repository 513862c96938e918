// Package tls builds the certificate configuration for the HTTPS listener.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// selfSignedValidity is how long a generated certificate stays valid.
const selfSignedValidity = 365 * 24 * time.Hour

// Mode describes where the listener certificate came from.
type Mode string

const (
	ModeFile       Mode = "file"
	ModeSelfSigned Mode = "self-signed"
)

// GenerateSelfSignedCert creates an in-memory ECDSA P-256 certificate for
// host. Loopback names are always included as SANs. Nothing is written
// to disk.
func GenerateSelfSignedCert(host string) (*tls.Certificate, error) {
	if host == "" {
		host = "localhost"
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	dnsNames, ips := subjectAltNames(host)
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: host, Organization: []string{"contact-relay"}},
		NotBefore:             now,
		NotAfter:              now.Add(selfSignedValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ips,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	cert, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create X509 key pair: %w", err)
	}
	return &cert, nil
}

// subjectAltNames returns host plus the loopback names, split into DNS
// names and IP addresses.
func subjectAltNames(host string) ([]string, []net.IP) {
	dnsNames := []string{"localhost"}
	ips := []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}

	if ip := net.ParseIP(host); ip != nil {
		if !ip.IsLoopback() {
			ips = append(ips, ip)
		}
	} else if host != "localhost" {
		dnsNames = append(dnsNames, host)
	}
	return dnsNames, ips
}

// LoadOrGenerateTLS loads the key pair from certFile and keyFile, or
// generates a self-signed certificate for host when either path is empty.
func LoadOrGenerateTLS(certFile, keyFile, host string) (*tls.Config, Mode, error) {
	if certFile == "" || keyFile == "" {
		generated, err := GenerateSelfSignedCert(host)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate self-signed cert: %w", err)
		}
		return serverConfig(*generated), ModeSelfSigned, nil
	}

	if _, err := os.Stat(certFile); err != nil {
		return nil, "", fmt.Errorf("certificate file not found: %w", err)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return nil, "", fmt.Errorf("key file not found: %w", err)
	}

	loaded, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load TLS key pair: %w", err)
	}
	return serverConfig(loaded), ModeFile, nil
}

func serverConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}
