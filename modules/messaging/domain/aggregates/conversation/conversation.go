package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoContactPhone       = errors.New("conversation has no contact phone")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Conversation, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]Conversation, error)
	Create(ctx context.Context, conv Conversation) (Conversation, error)

	// FindExpiredAutoPaused returns conversations whose automatic pause
	// expired at or before now, up to limit rows.
	FindExpiredAutoPaused(ctx context.Context, now time.Time, limit int) ([]Conversation, error)

	// BeginAutoPause conditionally suspends the agent. The update applies
	// only while the agent is active and the conversation is not manually
	// paused; false means the precondition no longer held (lost race).
	BeginAutoPause(ctx context.Context, id uuid.UUID, until time.Time, pausedBy uuid.UUID) (bool, error)

	// ReactivateExpired conditionally ends an automatic pause. The update
	// applies only while the pause still carries the exact expiry the
	// caller observed; false means another actor changed state first.
	ReactivateExpired(ctx context.Context, id uuid.UUID, until time.Time) (bool, error)

	// SetManualPause suspends the agent with no expiry. Returns false if
	// the conversation does not exist.
	SetManualPause(ctx context.Context, id uuid.UUID, pausedBy uuid.UUID) (bool, error)

	// ClearPause unconditionally reactivates the agent and clears the
	// pause reason and paused_by. Manual "turn on" always wins.
	ClearPause(ctx context.Context, id uuid.UUID) (bool, error)
}

// MemoryStore is the conversation context store the enrichment worker
// appends derived text to (audio transcripts and similar).
type MemoryStore interface {
	Append(ctx context.Context, conversationID uuid.UUID, entry string) error
	History(ctx context.Context, conversationID uuid.UUID) ([]string, error)
}

// Transcriber derives text from audio bytes. Implementations must honor
// context cancellation; callers treat every failure as best-effort.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, mimeType string) (string, error)
}

type Conversation interface {
	ID() uuid.UUID
	ClinicID() uuid.UUID
	ContactID() uuid.UUID
	ContactPhone() string
	AgentActive() bool
	Pause() PauseReason
	PausedBy() uuid.UUID
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

type conversation struct {
	id           uuid.UUID
	clinicID     uuid.UUID
	contactID    uuid.UUID
	contactPhone string
	agentActive  bool
	pauseReason  PauseReason
	pausedBy     uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

func New(clinicID, contactID uuid.UUID, contactPhone string, opts ...Option) Conversation {
	c := &conversation{
		id:           uuid.New(),
		clinicID:     clinicID,
		contactID:    contactID,
		contactPhone: contactPhone,
		agentActive:  true,
		pauseReason:  NoPause(),
		createdAt:    time.Now(),
		updatedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*conversation)

func WithID(id uuid.UUID) Option {
	return func(c *conversation) {
		if id != uuid.Nil {
			c.id = id
		}
	}
}

func WithPause(reason PauseReason, pausedBy uuid.UUID) Option {
	return func(c *conversation) {
		c.pauseReason = reason
		c.pausedBy = pausedBy
		c.agentActive = reason.IsNone()
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(c *conversation) {
		if !createdAt.IsZero() {
			c.createdAt = createdAt
		}
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(c *conversation) {
		if !updatedAt.IsZero() {
			c.updatedAt = updatedAt
		}
	}
}

func (c *conversation) ID() uuid.UUID            { return c.id }
func (c *conversation) ClinicID() uuid.UUID      { return c.clinicID }
func (c *conversation) ContactID() uuid.UUID     { return c.contactID }
func (c *conversation) ContactPhone() string     { return c.contactPhone }
func (c *conversation) AgentActive() bool        { return c.agentActive }
func (c *conversation) Pause() PauseReason       { return c.pauseReason }
func (c *conversation) PausedBy() uuid.UUID      { return c.pausedBy }
func (c *conversation) CreatedAt() time.Time     { return c.createdAt }
func (c *conversation) UpdatedAt() time.Time     { return c.updatedAt }
