package email

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Submission is a validated contact-form payload.
type Submission struct {
	From    Contact `json:"from"`
	Subject string  `json:"subject"`
	Text    string  `json:"text,omitempty"`
	HTML    string  `json:"html,omitempty"`
}

// HasText reports whether a plain-text body was supplied.
func (s *Submission) HasText() bool {
	return s.Text != ""
}

// HasHTML reports whether an HTML body was supplied.
func (s *Submission) HasHTML() bool {
	return s.HTML != ""
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload does not match the submission shape.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// NewDecodeError wraps a JSON decoding failure as a ValidationError. Type
// mismatches are attributed to the offending field; anything else is
// reported against the body.
func NewDecodeError(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, ErrInvalidContact):
		return &ValidationError{Fields: []FieldError{{Field: "from", Message: ErrInvalidContact.Error()}}}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return &ValidationError{Fields: []FieldError{{Field: typeErr.Field, Message: "expected " + typeErr.Type.String()}}}
	}
	return &ValidationError{Fields: []FieldError{{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}}}
}

// Validate checks the submission invariants: a usable sender, a non-empty
// subject, and at least one of text or html.
func (s *Submission) Validate() error {
	verr := &ValidationError{}

	switch {
	case s.From.IsBare() && isBlank(s.From.Raw):
		verr.add("from", "must not be empty")
	case !s.From.IsBare() && isBlank(s.From.Email):
		verr.add("from", "a sender address is required")
	}
	if isBlank(s.Subject) {
		verr.add("subject", "must not be empty")
	}
	if !s.HasText() && !s.HasHTML() {
		verr.add("text", `Either "text" or "html" must be provided.`)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Decode reads a JSON submission from r and validates it.
func Decode(r io.Reader) (*Submission, error) {
	var sub Submission
	if err := json.NewDecoder(r).Decode(&sub); err != nil {
		return nil, NewDecodeError(err)
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return &sub, nil
}
