// Package parser reads a raw MIME document back into a flat summary. It is
// used to render relayed messages for humans and to check built documents.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// Summary is the readable content of a contact message.
type Summary struct {
	Date        string
	From        string
	To          string
	ReplyTo     string
	ContactFrom string
	Subject     string
	MessageID   string
	ContentType string
	TextBody    string
	HTMLBody    string
	// Header holds every header of the top-level message.
	Header mail.Header
}

// Parse parses a raw RFC 5322 message. It handles single text/plain or
// text/html bodies and multipart/alternative bodies; other parts are logged
// and skipped.
func Parse(raw []byte) (*Summary, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	result := &Summary{
		Date:        msg.Header.Get("Date"),
		From:        msg.Header.Get("From"),
		To:          msg.Header.Get("To"),
		ReplyTo:     msg.Header.Get("Reply-To"),
		ContactFrom: msg.Header.Get("X-Contact-From"),
		Subject:     msg.Header.Get("Subject"),
		MessageID:   msg.Header.Get("Message-Id"),
		ContentType: msg.Header.Get("Content-Type"),
		Header:      msg.Header,
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		slog.Warn("failed to parse content type, treating as plain text",
			"content_type", contentType,
			"error", err,
		)
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := parseMultipart(msg.Body, boundary, result); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return result, nil
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	assignBody(result, mediaType, trimEOL(string(body)))

	return result, nil
}

// parseMultipart extracts the first text/plain and text/html parts.
func parseMultipart(body io.Reader, boundary string, result *Summary) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, _, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		content, err := io.ReadAll(part)
		if err != nil {
			slog.Warn("failed to read part content",
				"content_type", mediaType,
				"error", err,
			)
			continue
		}

		if !assignBody(result, mediaType, trimEOL(string(content))) {
			slog.Warn("unrecognized MIME part, skipping",
				"content_type", mediaType,
			)
		}
	}

	return nil
}

// assignBody stores content in the matching body field if it is still empty.
// It reports whether the media type was recognized.
func assignBody(result *Summary, mediaType, content string) bool {
	switch mediaType {
	case "text/plain":
		if result.TextBody == "" {
			result.TextBody = content
		}
	case "text/html":
		if result.HTMLBody == "" {
			result.HTMLBody = content
		}
	default:
		return false
	}
	return true
}

// trimEOL strips line terminators that frame a part's content.
func trimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}
