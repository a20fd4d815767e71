package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/talkbase/convstore/config"
	"github.com/talkbase/convstore/internal/models"
	"github.com/talkbase/convstore/internal/store"
	"github.com/talkbase/convstore/internal/utils"
)

func newTestService(t *testing.T, opts Options) (Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(mem, opts), mem
}

func appendN(t *testing.T, svc Service, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.AddMessage(context.Background(), userID, models.Message{
			Role:    models.RoleUser,
			Content: "msg-" + string(rune('a'+i)),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
}

func TestWindowPreservesAppendOrder(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	appendN(t, svc, "user-123", 5)

	msgs, err := svc.GetConversationWindow(context.Background(), "user-123", 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if want := "msg-" + string(rune('a'+i)); m.Content != want {
			t.Fatalf("position %d: got %q want %q", i, m.Content, want)
		}
	}
}

func TestWindowLastN(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	appendN(t, svc, "user-123", 5)
	ctx := context.Background()

	msgs, err := svc.GetConversationWindow(ctx, "user-123", 2)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "msg-d" || msgs[1].Content != "msg-e" {
		t.Fatalf("last 2: got %+v", msgs)
	}

	// lastN beyond the history returns everything, not an error
	msgs, err = svc.GetConversationWindow(ctx, "user-123", 50)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("lastN > len: got %d messages", len(msgs))
	}

	// non-positive lastN means the full history
	msgs, err = svc.GetConversationWindow(ctx, "user-123", -3)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("lastN <= 0: got %d messages", len(msgs))
	}
}

func TestWindowEmptyHistory(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	msgs, err := svc.GetConversationWindow(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %+v", msgs)
	}
}

func TestAddMessageNormalizes(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	svc, _ := newTestService(t, Options{Now: func() time.Time { return now }})
	ctx := context.Background()

	msg, err := svc.AddMessage(ctx, "u1", models.Message{Role: models.RoleAssistant, Content: "hi"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if msg.ID == "" {
		t.Fatalf("id not assigned")
	}
	if msg.Timestamp != now.UnixMilli() {
		t.Fatalf("timestamp not defaulted: %d", msg.Timestamp)
	}

	// explicit timestamps survive
	msg, err = svc.AddMessage(ctx, "u1", models.Message{Role: models.RoleUser, Content: "yo", Timestamp: 42})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if msg.Timestamp != 42 {
		t.Fatalf("explicit timestamp clobbered: %d", msg.Timestamp)
	}

	got, err := svc.GetConversationWindow(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(got) != 2 || got[0].Content != "hi" || got[1].Timestamp != 42 {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestMessageMetadataSurvivesRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	in := models.Message{
		Role:    models.RoleAssistant,
		Content: "done",
		Metadata: &models.MessageMetadata{
			TokenUsage: &models.TokenUsage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46},
			ToolCalls: []models.ToolCall{
				{Name: "search", Arguments: map[string]any{"query": "weather"}, Result: "sunny"},
			},
			Attachments: []models.Attachment{{Type: "image", URL: "https://example.com/a.png", Name: "a.png"}},
			LatencyMS:   250,
			Language:    "en",
			Labels:      []string{"smalltalk", "weather"},
			Extra:       map[string]any{"trace": "t-1"},
		},
	}
	if _, err := svc.AddMessage(ctx, "u1", in); err != nil {
		t.Fatalf("add: %v", err)
	}

	msgs, err := svc.GetConversationWindow(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Metadata == nil {
		t.Fatalf("metadata lost: %+v", msgs)
	}

	md := msgs[0].Metadata
	if md.TokenUsage == nil || md.TokenUsage.PromptTokens != 12 || md.TokenUsage.CompletionTokens != 34 || md.TokenUsage.TotalTokens != 46 {
		t.Fatalf("token usage: %+v", md.TokenUsage)
	}
	if len(md.ToolCalls) != 1 || md.ToolCalls[0].Name != "search" || md.ToolCalls[0].Result != "sunny" {
		t.Fatalf("tool calls: %+v", md.ToolCalls)
	}
	if md.ToolCalls[0].Arguments["query"] != "weather" {
		t.Fatalf("tool call arguments: %+v", md.ToolCalls[0].Arguments)
	}
	if len(md.Attachments) != 1 || md.Attachments[0].URL != "https://example.com/a.png" {
		t.Fatalf("attachments: %+v", md.Attachments)
	}
	if md.LatencyMS != 250 || md.Language != "en" {
		t.Fatalf("latency/language: %+v", md)
	}
	if len(md.Labels) != 2 || md.Labels[1] != "weather" {
		t.Fatalf("labels: %+v", md.Labels)
	}
	if md.Extra["trace"] != "t-1" {
		t.Fatalf("extra: %+v", md.Extra)
	}
}

func TestAddMessageRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	if _, err := svc.AddMessage(ctx, "", models.Message{Role: models.RoleUser, Content: "x"}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("empty user: %v", err)
	}
	if _, err := svc.AddMessage(ctx, "u1", models.Message{Role: "robot", Content: "x"}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("bad role: %v", err)
	}
	if _, err := svc.AddMessage(ctx, "u1", models.Message{Role: models.RoleUser}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("empty content: %v", err)
	}
}

func TestModelSetGet(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	if err := svc.SetModel(ctx, "u1", "modelA"); err != nil {
		t.Fatalf("set: %v", err)
	}
	model, err := svc.GetModel(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if model != "modelA" {
		t.Fatalf("got %q", model)
	}

	// last write wins
	if err := svc.SetModel(ctx, "u1", "modelB"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if model, _ = svc.GetModel(ctx, "u1"); model != "modelB" {
		t.Fatalf("got %q", model)
	}

	// unknown user is a miss, not an error
	model, err = svc.GetModel(ctx, "unknown-user")
	if err != nil {
		t.Fatalf("get unknown: %v", err)
	}
	if model != "" {
		t.Fatalf("expected absent model, got %q", model)
	}
}

func TestUpsertMetadataMergesAndPersists(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	prompt := int64(5)
	merged, err := svc.UpsertConversationMetadata(ctx, "u1", models.MetadataPatch{
		TokenUsage: &models.TokenUsagePatch{PromptTokens: &prompt},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if merged.TokenUsage.PromptTokens != 5 {
		t.Fatalf("returned merge: %+v", merged)
	}

	completion := int64(10)
	merged, err = svc.UpsertConversationMetadata(ctx, "u1", models.MetadataPatch{
		TokenUsage: &models.TokenUsagePatch{CompletionTokens: &completion},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if merged.TokenUsage.PromptTokens != 5 || merged.TokenUsage.CompletionTokens != 10 {
		t.Fatalf("counters must accumulate: %+v", merged.TokenUsage)
	}

	got, err := svc.GetConversationMetadata(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.TokenUsage.PromptTokens != 5 || got.TokenUsage.CompletionTokens != 10 {
		t.Fatalf("persisted state: %+v", got)
	}
}

func TestGetMetadataAbsent(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	md, err := svc.GetConversationMetadata(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if md != nil {
		t.Fatalf("expected nil metadata, got %+v", md)
	}
}

func TestClearHistoryRemovesAllThreeRecords(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	appendN(t, svc, "u1", 3)
	if err := svc.SetModel(ctx, "u1", "modelA"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	summary := "s"
	if _, err := svc.UpsertConversationMetadata(ctx, "u1", models.MetadataPatch{Summary: &summary}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := svc.ClearHistory(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	msgs, err := svc.GetConversationWindow(ctx, "u1", 0)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("history survived clear: %v %+v", err, msgs)
	}
	model, err := svc.GetModel(ctx, "u1")
	if err != nil || model != "" {
		t.Fatalf("model survived clear: %v %q", err, model)
	}
	md, err := svc.GetConversationMetadata(ctx, "u1")
	if err != nil || md != nil {
		t.Fatalf("metadata survived clear: %v %+v", err, md)
	}
}

func TestConversationTTLSlidingReArms(t *testing.T) {
	svc, mem := newTestService(t, Options{
		ConversationTTL: time.Minute,
		TTLRefresh:      config.TTLRefreshSliding,
	})
	ctx := context.Background()
	keys := keysFor("v1", "u1")

	appendN(t, svc, "u1", 1)
	if ttl, ok := mem.TTL(keys.messages); !ok || ttl != time.Minute {
		t.Fatalf("ttl not armed: %v %v", ttl, ok)
	}

	// simulate the countdown drifting, then append again: sliding resets it
	if err := mem.Expire(ctx, keys.messages, time.Second); err != nil {
		t.Fatalf("expire: %v", err)
	}
	appendN(t, svc, "u1", 1)
	if ttl, _ := mem.TTL(keys.messages); ttl != time.Minute {
		t.Fatalf("sliding policy must re-arm, got %v", ttl)
	}
}

func TestConversationTTLOnCreateArmsOnce(t *testing.T) {
	svc, mem := newTestService(t, Options{
		ConversationTTL: time.Minute,
		TTLRefresh:      config.TTLRefreshOnCreate,
	})
	ctx := context.Background()
	keys := keysFor("v1", "u1")

	appendN(t, svc, "u1", 1)
	if ttl, ok := mem.TTL(keys.messages); !ok || ttl != time.Minute {
		t.Fatalf("ttl not armed on create: %v %v", ttl, ok)
	}

	if err := mem.Expire(ctx, keys.messages, time.Second); err != nil {
		t.Fatalf("expire: %v", err)
	}
	appendN(t, svc, "u1", 1)
	if ttl, _ := mem.TTL(keys.messages); ttl != time.Second {
		t.Fatalf("on-create policy must not re-arm, got %v", ttl)
	}
}

func TestModelTTLFallsBackToConversationTTL(t *testing.T) {
	ctx := context.Background()
	keys := keysFor("v1", "u1")

	svc, mem := newTestService(t, Options{ConversationTTL: time.Hour})
	if err := svc.SetModel(ctx, "u1", "m"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl, _ := mem.TTL(keys.model); ttl != time.Hour {
		t.Fatalf("fallback ttl: %v", ttl)
	}

	svc, mem = newTestService(t, Options{ConversationTTL: time.Hour, ModelTTL: time.Minute})
	if err := svc.SetModel(ctx, "u1", "m"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl, _ := mem.TTL(keys.model); ttl != time.Minute {
		t.Fatalf("model ttl: %v", ttl)
	}

	// no TTL configured at all: nothing armed
	svc, mem = newTestService(t, Options{})
	if err := svc.SetModel(ctx, "u1", "m"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := mem.TTL(keys.model); ok {
		t.Fatalf("ttl armed without configuration")
	}
}
