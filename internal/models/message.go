package models

// Message roles. Anything else is rejected at append time.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single conversation turn. Once appended it is never edited;
// ordering is the append order of the underlying list.
type Message struct {
	ID        string           `json:"id,omitempty"`
	Role      string           `json:"role"` // "user" | "assistant" | "system"
	Content   string           `json:"content"`
	Timestamp int64            `json:"timestamp"` // epoch millis
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries optional per-turn details.
type MessageMetadata struct {
	TokenUsage  *TokenUsage    `json:"token_usage,omitempty"`
	ToolCalls   []ToolCall     `json:"tool_calls,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	LatencyMS   int64          `json:"latency_ms,omitempty"`
	Language    string         `json:"language,omitempty"`
	Labels      []string       `json:"labels,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    string         `json:"result,omitempty"`
}

type Attachment struct {
	Type string `json:"type"` // "image" | "audio" | "file" | ...
	URL  string `json:"url,omitempty"`
	Name string `json:"name,omitempty"`
}

type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}
