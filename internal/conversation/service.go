// Package conversation is the facade over the backing store: it owns key
// naming, message windowing, and metadata merge semantics. Durability,
// transport, and TTL enforcement stay with the store.
package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/talkbase/convstore/config"
	"github.com/talkbase/convstore/internal/codec"
	"github.com/talkbase/convstore/internal/models"
	"github.com/talkbase/convstore/internal/store"
	"github.com/talkbase/convstore/internal/utils"
)

type Service interface {
	// AddMessage appends to the tail of the user's history. A missing ID or
	// timestamp is filled in; the normalized message is returned.
	AddMessage(ctx context.Context, userID string, msg models.Message) (*models.Message, error)

	// SetModel overwrites the user's model selection; last write wins.
	SetModel(ctx context.Context, userID, model string) error
	// GetModel returns "" when no model is set. Not-found is never an error.
	GetModel(ctx context.Context, userID string) (string, error)

	// UpsertConversationMetadata merges patch into the stored record and
	// returns the merged result. The read-modify-write is not atomic:
	// concurrent upserts for the same user can lose an update.
	UpsertConversationMetadata(ctx context.Context, userID string, patch models.MetadataPatch) (*models.ConversationMetadata, error)
	// GetConversationMetadata returns nil when no record exists.
	GetConversationMetadata(ctx context.Context, userID string) (*models.ConversationMetadata, error)

	// GetConversationWindow returns the history in append order. lastN > 0
	// limits it to the last lastN messages; a lastN beyond the history length
	// returns everything.
	GetConversationWindow(ctx context.Context, userID string, lastN int) ([]models.Message, error)

	// ClearHistory removes history, model, and metadata in one batched
	// round trip.
	ClearHistory(ctx context.Context, userID string) error
}

// Options tune a Service. Zero values mean: key version "v1", no expiry,
// sliding TTL refresh, JSON codec.
type Options struct {
	KeyVersion      string
	ConversationTTL time.Duration
	ModelTTL        time.Duration // falls back to ConversationTTL when zero
	TTLRefresh      string        // config.TTLRefreshSliding | config.TTLRefreshOnCreate
	Codec           codec.Codec
	Now             func() time.Time // test hook
}

type conversations struct {
	store store.Store
	codec codec.Codec

	keyVersion string
	convTTL    time.Duration
	modelTTL   time.Duration
	ttlRefresh string

	now func() time.Time
}

func New(st store.Store, opts Options) Service {
	if opts.KeyVersion == "" {
		opts.KeyVersion = "v1"
	}
	if opts.TTLRefresh == "" {
		opts.TTLRefresh = config.TTLRefreshSliding
	}
	if opts.Codec == nil {
		opts.Codec = codec.JSON{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &conversations{
		store:      st,
		codec:      opts.Codec,
		keyVersion: opts.KeyVersion,
		convTTL:    opts.ConversationTTL,
		modelTTL:   opts.ModelTTL,
		ttlRefresh: opts.TTLRefresh,
		now:        opts.Now,
	}
}

func (s *conversations) AddMessage(ctx context.Context, userID string, msg models.Message) (*models.Message, error) {
	const op = "Conversations.AddMessage"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if !models.ValidRole(msg.Role) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be user, assistant, or system", nil)
	}
	if msg.Content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = s.now().UnixMilli()
	}

	encoded, err := s.codec.Encode(msg)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode message", err)
	}

	keys := s.keys(userID)
	if err := s.store.ListPush(ctx, keys.messages, encoded); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to append message", err)
	}
	if err := s.applyTTL(ctx, keys.messages, s.convTTL); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to apply history ttl", err)
	}
	return &msg, nil
}

func (s *conversations) SetModel(ctx context.Context, userID, model string) error {
	const op = "Conversations.SetModel"

	if userID == "" || model == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and model are required", nil)
	}

	keys := s.keys(userID)
	if err := s.store.Set(ctx, keys.model, model); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to set model", err)
	}
	if err := s.applyTTL(ctx, keys.model, s.effectiveModelTTL()); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to apply model ttl", err)
	}
	return nil
}

func (s *conversations) GetModel(ctx context.Context, userID string) (string, error) {
	const op = "Conversations.GetModel"

	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	model, _, err := s.store.Get(ctx, s.keys(userID).model)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to get model", err)
	}
	return model, nil
}

func (s *conversations) UpsertConversationMetadata(ctx context.Context, userID string, patch models.MetadataPatch) (*models.ConversationMetadata, error) {
	const op = "Conversations.UpsertConversationMetadata"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	keys := s.keys(userID)

	var cur models.ConversationMetadata
	raw, ok, err := s.store.Get(ctx, keys.meta)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read metadata", err)
	}
	if ok {
		if err := s.codec.Decode(raw, &cur); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "stored metadata is corrupt", err)
		}
	}

	merged := models.Merge(cur, patch)

	encoded, err := s.codec.Encode(merged)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode metadata", err)
	}
	if err := s.store.Set(ctx, keys.meta, encoded); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to write metadata", err)
	}
	if err := s.applyTTL(ctx, keys.meta, s.convTTL); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to apply metadata ttl", err)
	}
	return &merged, nil
}

func (s *conversations) GetConversationMetadata(ctx context.Context, userID string) (*models.ConversationMetadata, error) {
	const op = "Conversations.GetConversationMetadata"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	raw, ok, err := s.store.Get(ctx, s.keys(userID).meta)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read metadata", err)
	}
	if !ok {
		return nil, nil
	}

	var md models.ConversationMetadata
	if err := s.codec.Decode(raw, &md); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "stored metadata is corrupt", err)
	}
	return &md, nil
}

func (s *conversations) GetConversationWindow(ctx context.Context, userID string, lastN int) ([]models.Message, error) {
	const op = "Conversations.GetConversationWindow"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	// lastN <= 0 means the whole history; otherwise a tail window via a
	// negative start index. A window larger than the history clamps to the
	// full history.
	start := int64(0)
	if lastN > 0 {
		start = -int64(lastN)
	}

	rows, err := s.store.ListRange(ctx, s.keys(userID).messages, start, -1)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read history", err)
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		var msg models.Message
		if err := s.codec.Decode(row, &msg); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "stored message is corrupt", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *conversations) ClearHistory(ctx context.Context, userID string) error {
	const op = "Conversations.ClearHistory"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if err := s.store.Delete(ctx, s.keys(userID).all()...); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to clear conversation", err)
	}
	return nil
}

func (s *conversations) keys(userID string) userKeys {
	return keysFor(s.keyVersion, userID)
}

func (s *conversations) effectiveModelTTL() time.Duration {
	if s.modelTTL > 0 {
		return s.modelTTL
	}
	return s.convTTL
}

func (s *conversations) applyTTL(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if s.ttlRefresh == config.TTLRefreshOnCreate {
		return s.store.ExpireNX(ctx, key, ttl)
	}
	return s.store.Expire(ctx, key, ttl)
}
