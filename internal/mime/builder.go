package mime

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/contact-relay/internal/email"
)

const (
	eol = "\r\n"

	// DefaultMessageIDDomain is used when no domain can be read from the From address.
	DefaultMessageIDDomain = "contact-relay.local"

	boundaryPrefix = "----cf-email-"
)

// ErrMissingAddress is returned when the configured From or To address is empty.
var ErrMissingAddress = errors.New("mime: from and to addresses are required")

// Addressing holds the fixed operator addresses a message is sent from and to.
type Addressing struct {
	From string
	To   string
}

// Builder builds MIME documents. The zero value uses the wall clock and
// random UUIDs; tests may override Now and NewID.
type Builder struct {
	Now   func() time.Time
	NewID func() string
}

// Build assembles a raw MIME document using the default Builder.
func Build(sub *email.Submission, addr Addressing) ([]byte, error) {
	return Builder{}.Build(sub, addr)
}

// Build assembles the complete raw message: header block, blank line, body,
// and a trailing CRLF. Either a single text/plain or text/html part is
// emitted, or a multipart/alternative body when both are present.
func (b Builder) Build(sub *email.Submission, addr Addressing) ([]byte, error) {
	from := Sanitize(addr.From)
	to := Sanitize(addr.To)
	if from == "" || to == "" {
		return nil, ErrMissingAddress
	}

	sender := FormatContact(sub.From)

	headers := []string{
		"Date: " + b.now().UTC().Format(time.RFC1123Z),
		"From: " + from,
		"To: " + to,
		"Subject: " + Sanitize(sub.Subject),
		"Message-ID: " + b.messageID(from),
		"Reply-To: " + sender,
		"X-Contact-From: " + sender,
		"MIME-Version: 1.0",
	}

	var body string
	if sub.HasText() && sub.HasHTML() {
		boundary := b.boundary()
		headers = append(headers, `Content-Type: multipart/alternative; boundary="`+boundary+`"`)
		body = multipartBody(boundary, sub)
	} else {
		contentType := "text/plain"
		content := sub.Text
		if sub.HasHTML() || !sub.HasText() {
			contentType = "text/html"
			content = sub.HTML
		}
		headers = append(headers,
			"Content-Type: "+contentType+"; charset=utf-8",
			"Content-Transfer-Encoding: 7bit",
		)
		body = strings.TrimRight(content, " \t\r\n\v\f")
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(headers, eol))
	sb.WriteString(eol + eol)
	sb.WriteString(body)
	sb.WriteString(eol)
	return []byte(sb.String()), nil
}

// multipartBody renders the text part followed by the html part, then the
// closing delimiter.
func multipartBody(boundary string, sub *email.Submission) string {
	sections := make([]string, 0, 3)
	if sub.HasText() {
		sections = append(sections, part(boundary, "text/plain", sub.Text))
	}
	if sub.HasHTML() {
		sections = append(sections, part(boundary, "text/html", sub.HTML))
	}
	sections = append(sections, "--"+boundary+"--")
	return strings.Join(sections, eol) + eol
}

func part(boundary, contentType, content string) string {
	return "--" + boundary + eol +
		"Content-Type: " + contentType + "; charset=utf-8" + eol +
		"Content-Transfer-Encoding: 7bit" + eol +
		eol +
		content + eol
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Builder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

func (b Builder) boundary() string {
	return boundaryPrefix + b.newID()
}

func (b Builder) messageID(from string) string {
	domain := extractDomain(from)
	if domain == "" {
		domain = DefaultMessageIDDomain
	}
	return "<" + b.newID() + "@" + domain + ">"
}
