// Package email defines the contact-form data model and its validation rules.
package email

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Contact is an email participant. It decodes from either a bare address
// string ("Name <a@b.c>" is allowed) or an object {"email": ..., "name": ...}.
type Contact struct {
	// Raw holds the bare-string form. When set, Email and Name are empty.
	Raw   string
	Email string
	Name  string

	// bare records that the JSON value was a string, even an empty one.
	bare bool
}

// BareContact returns a contact in the bare-string form.
func BareContact(raw string) Contact {
	return Contact{Raw: raw, bare: true}
}

// ErrInvalidContact is returned when "from" is neither a string nor an
// object with an "email" string.
var ErrInvalidContact = errors.New("contact must be a string or an object with an \"email\" string")

// contactObject is the structured JSON form of a Contact.
type contactObject struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

// IsBare reports whether the contact was given as a plain string.
func (c Contact) IsBare() bool {
	return c.bare || c.Raw != ""
}

// Address returns the address part used for validation: the raw string for
// bare contacts, the email field otherwise.
func (c Contact) Address() string {
	if c.IsBare() {
		return c.Raw
	}
	return c.Email
}

// UnmarshalJSON accepts a JSON string or a {"email","name"} object.
func (c *Contact) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Contact{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = BareContact(s)
		return nil
	case '{':
		var obj contactObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContact, err)
		}
		if obj.Email == nil {
			return ErrInvalidContact
		}
		*c = Contact{Email: *obj.Email}
		if obj.Name != nil {
			c.Name = *obj.Name
		}
		return nil
	default:
		return ErrInvalidContact
	}
}

// MarshalJSON writes the contact back in the shape it was decoded from.
func (c Contact) MarshalJSON() ([]byte, error) {
	if c.IsBare() {
		return json.Marshal(c.Raw)
	}
	obj := contactObject{Email: &c.Email}
	if c.Name != "" {
		obj.Name = &c.Name
	}
	return json.Marshal(obj)
}

// isBlank reports whether s has no visible content.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
