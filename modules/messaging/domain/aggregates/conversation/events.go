package conversation

import (
	"time"

	"github.com/google/uuid"
)

// AutoPausedEvent is published after an automatic pause has been recorded for
// a conversation.
type AutoPausedEvent struct {
	ConversationID uuid.UUID
	PausedBy       uuid.UUID
	Until          time.Time
}

// ReactivatedEvent is published after an expired automatic pause has been
// cleared and the agent handed back the conversation.
type ReactivatedEvent struct {
	ConversationID uuid.UUID
	ExpiredAt      time.Time
}

// ManualPauseChangedEvent is published when a human toggles the agent on or
// off for a conversation.
type ManualPauseChangedEvent struct {
	ConversationID uuid.UUID
	Active         bool
	ChangedBy      uuid.UUID
}
