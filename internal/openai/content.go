package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content is the payload of a message: either plain text or a structured
// multi-part array. The wire format has no type tag for this field, so the
// JSON kind of the value decides the form. Multi-part elements are kept as
// opaque raw JSON; their layout is not interpreted here.
//
// A non-nil Parts slice marks the array form, which keeps an empty array
// distinct from empty text across a decode/encode cycle.
type Content struct {
	Text  string
	Parts []json.RawMessage
}

// IsText reports whether the content is the plain-text form.
func (c Content) IsText() bool {
	return c.Parts == nil
}

// MarshalJSON emits the text form as a JSON string and the structured form
// as a JSON array with every element reproduced verbatim.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON probes the JSON kind of the value: a string yields the text
// form, an array yields the structured form. Any other kind is rejected.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidContent)
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		c.Text = text
		c.Parts = nil
		return nil
	case '[':
		parts := []json.RawMessage{}
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		c.Text = ""
		c.Parts = parts
		return nil
	default:
		return fmt.Errorf("%w: must be a string or an array, got %s", ErrInvalidContent, jsonKind(trimmed[0]))
	}
}

func jsonKind(firstByte byte) string {
	switch firstByte {
	case '{':
		return "object"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
