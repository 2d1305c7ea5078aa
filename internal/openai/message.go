package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role labels accepted on the wire.
const (
	RoleDeveloper = "developer"
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleFunction  = "function"
)

// Message is one entry in a conversation. The role decides which fields the
// wire object carries:
//
//	developer, system, user: content (required), name (optional)
//	assistant:               content (optional), name (optional), plus
//	                         arbitrary extra fields preserved verbatim
//	tool:                    content and tool_call (required)
//	function:                content and name (required)
//
// Extra holds top-level keys on assistant messages that are not otherwise
// modeled; they survive a decode/encode cycle unchanged. Name is a pointer
// so that an explicitly empty name keeps its key across a decode/encode
// cycle.
type Message struct {
	Role     string
	Content  *Content
	Name     *string
	ToolCall string
	Extra    map[string]json.RawMessage
}

// NewMessage builds a plain-text message for the given role label.
// It fails with ErrInvalidRole for anything outside the six known roles.
func NewMessage(role, text string) (Message, error) {
	switch role {
	case RoleDeveloper, RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleFunction:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	content := Content{Text: text}
	msg := Message{Role: role, Content: &content}
	if role == RoleFunction {
		// The function variant always carries a name on the wire; the
		// text-only constructor has nothing to supply, so it starts empty.
		msg.Name = new(string)
	}
	return msg, nil
}

// ContentText returns the message's plain-text content. It fails with
// ErrMissingContent when the content is absent (an assistant message carrying
// only a tool or function call) and with ErrContentNotText when the content
// is the structured multi-part form.
func (m Message) ContentText() (string, error) {
	if m.Content == nil {
		return "", fmt.Errorf("%w: role %q", ErrMissingContent, m.Role)
	}
	if !m.Content.IsText() {
		return "", ErrContentNotText
	}
	return m.Content.Text, nil
}

// MarshalJSON flattens the role tag, the role's fields and any extra fields
// into a single JSON object.
func (m Message) MarshalJSON() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(m.Extra)+4)

	switch m.Role {
	case RoleDeveloper, RoleSystem, RoleUser:
		if err := setContent(obj, m); err != nil {
			return nil, err
		}
		if m.Name != nil {
			setString(obj, "name", *m.Name)
		}
	case RoleAssistant:
		for k, v := range m.Extra {
			obj[k] = v
		}
		if m.Content != nil {
			raw, err := json.Marshal(m.Content)
			if err != nil {
				return nil, err
			}
			obj["content"] = raw
		}
		if m.Name != nil {
			setString(obj, "name", *m.Name)
		}
	case RoleTool:
		if err := setContent(obj, m); err != nil {
			return nil, err
		}
		setString(obj, "tool_call", m.ToolCall)
	case RoleFunction:
		if err := setContent(obj, m); err != nil {
			return nil, err
		}
		if m.Name == nil {
			return nil, fmt.Errorf("%w: function message requires name", ErrInvalidMessage)
		}
		setString(obj, "name", *m.Name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}

	setString(obj, "role", m.Role)
	return json.Marshal(obj)
}

// UnmarshalJSON dispatches on the role tag and populates exactly the fields
// that role defines. Unrecognized keys are captured on assistant messages and
// ignored elsewhere.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	role, err := stringField(raw, "role")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRole, err)
	}

	msg := Message{Role: role}

	switch role {
	case RoleDeveloper, RoleSystem, RoleUser:
		if msg.Content, err = requiredContent(raw, role); err != nil {
			return err
		}
		if msg.Name, err = optionalString(raw, "name"); err != nil {
			return err
		}
	case RoleAssistant:
		if msg.Content, err = optionalContent(raw); err != nil {
			return err
		}
		if msg.Name, err = optionalString(raw, "name"); err != nil {
			return err
		}
		extra := make(map[string]json.RawMessage)
		for k, v := range raw {
			switch k {
			case "role", "content", "name":
			default:
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			msg.Extra = extra
		}
	case RoleTool:
		if msg.Content, err = requiredContent(raw, role); err != nil {
			return err
		}
		if msg.ToolCall, err = requiredString(raw, "tool_call", role); err != nil {
			return err
		}
	case RoleFunction:
		if msg.Content, err = requiredContent(raw, role); err != nil {
			return err
		}
		name, err := requiredString(raw, "name", role)
		if err != nil {
			return err
		}
		msg.Name = &name
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	*m = msg
	return nil
}

func setContent(obj map[string]json.RawMessage, m Message) error {
	if m.Content == nil {
		return fmt.Errorf("%w: %s message requires content", ErrInvalidMessage, m.Role)
	}
	raw, err := json.Marshal(m.Content)
	if err != nil {
		return err
	}
	obj["content"] = raw
	return nil
}

func setString(obj map[string]json.RawMessage, key, value string) {
	raw, _ := json.Marshal(value)
	obj[key] = raw
}

func stringField(raw map[string]json.RawMessage, key string) (string, error) {
	value, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", fmt.Errorf("%s is not a string", key)
	}
	return s, nil
}

func requiredString(raw map[string]json.RawMessage, key, role string) (string, error) {
	s, err := stringField(raw, key)
	if err != nil {
		return "", fmt.Errorf("%w: %s message: %v", ErrInvalidMessage, role, err)
	}
	return s, nil
}

func optionalString(raw map[string]json.RawMessage, key string) (*string, error) {
	value, ok := raw[key]
	if !ok || isJSONNull(value) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("%w: %s is not a string", ErrInvalidMessage, key)
	}
	return &s, nil
}

func requiredContent(raw map[string]json.RawMessage, role string) (*Content, error) {
	value, ok := raw["content"]
	if !ok {
		return nil, fmt.Errorf("%w: %s message requires content", ErrInvalidMessage, role)
	}
	var content Content
	if err := json.Unmarshal(value, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func optionalContent(raw map[string]json.RawMessage) (*Content, error) {
	value, ok := raw["content"]
	if !ok || isJSONNull(value) {
		return nil, nil
	}
	var content Content
	if err := json.Unmarshal(value, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
