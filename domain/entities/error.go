package entities

import "strings"

// ErrorDetail is the JSON document a guest returns from its entry operation
// to describe why it failed. Only Message is required.
type ErrorDetail struct {
	Wrapped *ErrorDetail   `json:"wrapped,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Message string         `json:"message"`
	// Type is a free-form category such as "guest" or "config".
	// "internal" and empty are treated alike.
	Type string `json:"type"`
	Code string `json:"code,omitempty"`
}

// Error renders the chain as "type: message [code]: wrapped...".
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	for d := e; d != nil; d = d.Wrapped {
		if d != e {
			b.WriteString(": ")
		}
		if d.Type != "" && d.Type != "internal" {
			b.WriteString(d.Type)
			b.WriteString(": ")
		}
		b.WriteString(d.Message)
		if d.Code != "" {
			b.WriteString(" [")
			b.WriteString(d.Code)
			b.WriteString("]")
		}
	}
	return b.String()
}
