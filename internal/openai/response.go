package openai

import "encoding/json"

// ChatResponse models the chat/completions response payload. Fields this
// module does not interpret (logprobs, the usage detail blocks) are kept as
// raw JSON so the payload survives a decode/encode cycle unchanged.
type ChatResponse struct {
	ID                string   `json:"id"`
	Choices           []Choice `json:"choices"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	ServiceTier       *string  `json:"service_tier,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint"`
	Object            string   `json:"object"`
	Usage             Usage    `json:"usage"`
}

// Choice is one completion alternative. The message is usually the assistant
// variant but the type accepts any role, mirroring the request side.
// FinishReason is an open string value, not a closed enumeration.
type Choice struct {
	Index        int             `json:"index"`
	Message      Message         `json:"message"`
	FinishReason string          `json:"finish_reason"`
	Logprobs     json.RawMessage `json:"logprobs"`
}

// Usage records token accounting for a completion. The two detail blocks are
// vendor-specific and passed through opaquely; a block absent from the
// payload is kept absent on re-encode rather than re-emitted as null.
type Usage struct {
	CompletionTokens        int             `json:"completion_tokens"`
	PromptTokens            int             `json:"prompt_tokens"`
	TotalTokens             int             `json:"total_tokens"`
	CompletionTokensDetails json.RawMessage `json:"completion_tokens_details,omitempty"`
	PromptTokensDetails     json.RawMessage `json:"prompt_tokens_details,omitempty"`
}
