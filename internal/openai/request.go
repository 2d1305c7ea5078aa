package openai

import (
	"encoding/json"
	"fmt"
)

// ChatRequest models the chat/completions request payload. Optional
// generation parameters use pointers so that field presence survives a
// decode/encode cycle. Extra holds top-level keys this model does not know
// about; they are merged flat into the serialized object, which keeps the
// request forward compatible with provider fields added upstream.
type ChatRequest struct {
	Model               string
	Messages            []Message
	MaxTokens           *int
	MaxCompletionTokens *int
	Stream              *bool
	Temperature         *float64
	User                *string
	Extra               map[string]json.RawMessage
}

// NewChatRequest returns a request for the given model with no messages and
// all optional parameters absent.
func NewChatRequest(model string) *ChatRequest {
	return &ChatRequest{Model: model}
}

// WithMessage appends a plain-text message built from the role label and
// returns the request for chaining. It fails with ErrInvalidRole when the
// label is not one of the six known roles.
func (r *ChatRequest) WithMessage(role, text string) (*ChatRequest, error) {
	msg, err := NewMessage(role, text)
	if err != nil {
		return nil, err
	}
	r.Messages = append(r.Messages, msg)
	return r, nil
}

// MarshalJSON emits the modeled fields and merges Extra at the same nesting
// level. Absent optional parameters produce no key at all.
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(r.Extra)+7)
	for k, v := range r.Extra {
		obj[k] = v
	}

	setString(obj, "model", r.Model)

	messages := r.Messages
	if messages == nil {
		messages = []Message{}
	}
	rawMessages, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}
	obj["messages"] = rawMessages

	if err := setOptional(obj, "max_tokens", r.MaxTokens); err != nil {
		return nil, err
	}
	if err := setOptional(obj, "max_completion_tokens", r.MaxCompletionTokens); err != nil {
		return nil, err
	}
	if err := setOptional(obj, "stream", r.Stream); err != nil {
		return nil, err
	}
	if err := setOptional(obj, "temperature", r.Temperature); err != nil {
		return nil, err
	}
	if err := setOptional(obj, "user", r.User); err != nil {
		return nil, err
	}

	return json.Marshal(obj)
}

// UnmarshalJSON populates the modeled fields and moves every remaining
// top-level key into Extra rather than discarding it.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode chat request: %w", err)
	}

	var req ChatRequest

	value, ok := raw["model"]
	if !ok {
		return fmt.Errorf("decode chat request: missing model")
	}
	if err := json.Unmarshal(value, &req.Model); err != nil {
		return fmt.Errorf("decode chat request model: %w", err)
	}
	delete(raw, "model")

	value, ok = raw["messages"]
	if !ok {
		return fmt.Errorf("decode chat request: missing messages")
	}
	if err := json.Unmarshal(value, &req.Messages); err != nil {
		return err
	}
	delete(raw, "messages")

	if err := takeOptional(raw, "max_tokens", &req.MaxTokens); err != nil {
		return err
	}
	if err := takeOptional(raw, "max_completion_tokens", &req.MaxCompletionTokens); err != nil {
		return err
	}
	if err := takeOptional(raw, "stream", &req.Stream); err != nil {
		return err
	}
	if err := takeOptional(raw, "temperature", &req.Temperature); err != nil {
		return err
	}
	if err := takeOptional(raw, "user", &req.User); err != nil {
		return err
	}

	if len(raw) > 0 {
		req.Extra = raw
	}

	*r = req
	return nil
}

func setOptional[T any](obj map[string]json.RawMessage, key string, value *T) error {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(*value)
	if err != nil {
		return err
	}
	obj[key] = raw
	return nil
}

func takeOptional[T any](raw map[string]json.RawMessage, key string, target **T) error {
	value, ok := raw[key]
	if !ok {
		return nil
	}
	if isJSONNull(value) {
		delete(raw, key)
		return nil
	}
	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		return fmt.Errorf("decode chat request %s: %w", key, err)
	}
	*target = &decoded
	delete(raw, key)
	return nil
}
