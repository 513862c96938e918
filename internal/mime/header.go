// Package mime assembles raw RFC 5322 / MIME documents from contact-form
// submissions. Every user-controlled value passes through Sanitize before it
// is written into a header line.
package mime

import (
	"regexp"
	"strings"

	"github.com/shineum/contact-relay/internal/email"
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Sanitize replaces each run of CR/LF characters with a single space and
// trims surrounding whitespace, so the value cannot start a new header line.
func Sanitize(value string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(value, " "))
}

// FormatContact renders a contact as a single header-safe line.
// Bare contacts are passed through; structured contacts become
// "Name <email>" or just "email" when no name is set.
func FormatContact(c email.Contact) string {
	if c.IsBare() {
		return Sanitize(c.Raw)
	}

	name := Sanitize(c.Name)
	addr := Sanitize(c.Email)
	if name != "" {
		return name + " <" + addr + ">"
	}
	return addr
}

var bracketed = regexp.MustCompile(`<([^>]+)>`)

// extractDomain returns the domain of the address in a From header value,
// preferring the bracketed address when present. Empty if none is found.
func extractDomain(headerValue string) string {
	addr := headerValue
	if m := bracketed.FindStringSubmatch(headerValue); m != nil {
		addr = m[1]
	}
	parts := strings.Split(addr, "@")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
