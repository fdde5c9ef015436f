package checkout

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MessageNameTooShort    = "Name must be at least 2 characters"
	MessageInvalidPhone    = "Invalid phone number"
	MessageAddressTooShort = "Address must be at least 5 characters"

	minNameLength    = 2
	minAddressLength = 5
)

// E.164: optional plus, no leading zero, at most 15 digits.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// Form holds the contact details entered at checkout.
type Form struct {
	Name        string
	PhoneNumber string
	Address     string
}

// FieldError is one failed form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed, in form order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid checkout form: " + strings.Join(msgs, "; ")
}

// Message returns the message for field, or "" when it passed.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Normalize trims surrounding whitespace from every field.
func (f Form) Normalize() Form {
	return Form{
		Name:        strings.TrimSpace(f.Name),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		Address:     strings.TrimSpace(f.Address),
	}
}

// Validate checks the normalized form and reports all failing fields at once.
func (f Form) Validate() error {
	f = f.Normalize()

	var fields []FieldError
	if utf8.RuneCountInString(f.Name) < minNameLength {
		fields = append(fields, FieldError{Field: "name", Message: MessageNameTooShort})
	}
	if !phonePattern.MatchString(f.PhoneNumber) {
		fields = append(fields, FieldError{Field: "phone_number", Message: MessageInvalidPhone})
	}
	if utf8.RuneCountInString(f.Address) < minAddressLength {
		fields = append(fields, FieldError{Field: "address", Message: MessageAddressTooShort})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
