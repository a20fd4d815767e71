package models

// Sentiment values recognized in conversation metadata.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// ConversationMetadata is the aggregated per-user record. It is mutated by
// merge, never wholesale-replaced.
type ConversationMetadata struct {
	Summary           string         `json:"summary,omitempty"`
	TotalTurns        int64          `json:"total_turns,omitempty"`
	LastInteractionAt int64          `json:"last_interaction_at,omitempty"` // epoch millis
	TokenUsage        TokenUsage     `json:"token_usage"`
	Sentiment         string         `json:"sentiment,omitempty"`
	Goal              string         `json:"goal,omitempty"`
	UserPreferences   map[string]any `json:"user_preferences,omitempty"`
	ToolState         map[string]any `json:"tool_state,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// MetadataPatch is a partial update. Nil scalar fields leave the current value
// untouched; maps are unioned key-by-key with the patch winning on conflicts.
type MetadataPatch struct {
	Summary           *string          `json:"summary,omitempty"`
	TotalTurns        *int64           `json:"total_turns,omitempty"`
	LastInteractionAt *int64           `json:"last_interaction_at,omitempty"`
	TokenUsage        *TokenUsagePatch `json:"token_usage,omitempty"`
	Sentiment         *string          `json:"sentiment,omitempty"`
	Goal              *string          `json:"goal,omitempty"`
	UserPreferences   map[string]any   `json:"user_preferences,omitempty"`
	ToolState         map[string]any   `json:"tool_state,omitempty"`
	Extra             map[string]any   `json:"extra,omitempty"`
}

// TokenUsagePatch updates individual counters without clobbering the rest.
type TokenUsagePatch struct {
	PromptTokens     *int64 `json:"prompt_tokens,omitempty"`
	CompletionTokens *int64 `json:"completion_tokens,omitempty"`
	TotalTokens      *int64 `json:"total_tokens,omitempty"`
}

// Merge applies patch on top of cur and returns the result. Pure: neither
// input is modified. Applying the same patch twice gives the same result as
// applying it once for scalar fields.
func Merge(cur ConversationMetadata, patch MetadataPatch) ConversationMetadata {
	out := cur

	if patch.Summary != nil {
		out.Summary = *patch.Summary
	}
	if patch.TotalTurns != nil {
		out.TotalTurns = *patch.TotalTurns
	}
	if patch.LastInteractionAt != nil {
		out.LastInteractionAt = *patch.LastInteractionAt
	}
	if patch.Sentiment != nil {
		out.Sentiment = *patch.Sentiment
	}
	if patch.Goal != nil {
		out.Goal = *patch.Goal
	}
	if tu := patch.TokenUsage; tu != nil {
		if tu.PromptTokens != nil {
			out.TokenUsage.PromptTokens = *tu.PromptTokens
		}
		if tu.CompletionTokens != nil {
			out.TokenUsage.CompletionTokens = *tu.CompletionTokens
		}
		if tu.TotalTokens != nil {
			out.TokenUsage.TotalTokens = *tu.TotalTokens
		}
	}

	out.UserPreferences = mergeMaps(cur.UserPreferences, patch.UserPreferences)
	out.ToolState = mergeMaps(cur.ToolState, patch.ToolState)
	out.Extra = mergeMaps(cur.Extra, patch.Extra)

	return out
}

// mergeMaps shallow-unions b onto a copy of a. Returns nil when both are empty
// so untouched records stay untouched.
func mergeMaps(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
