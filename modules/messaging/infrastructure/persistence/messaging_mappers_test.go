package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence/models"
)

func conversationRow() models.Conversation {
	now := time.Now().Truncate(time.Second)
	return models.Conversation{
		ID:           uuid.New().String(),
		ClinicID:     uuid.New().String(),
		ContactID:    uuid.New().String(),
		ContactPhone: "+15551230001",
		AgentActive:  true,
		PauseKind:    "none",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestToDomainConversation_PauseKinds(t *testing.T) {
	t.Parallel()

	active := conversationRow()
	conv, err := toDomainConversation(&active)
	require.NoError(t, err)
	assert.True(t, conv.AgentActive())
	assert.True(t, conv.Pause().IsNone())

	operator := uuid.New()
	manual := conversationRow()
	manual.AgentActive = false
	manual.PauseKind = "manual"
	manual.PausedBy = sql.NullString{String: operator.String(), Valid: true}
	conv, err = toDomainConversation(&manual)
	require.NoError(t, err)
	assert.False(t, conv.AgentActive())
	assert.True(t, conv.Pause().IsManual())
	assert.Equal(t, operator, conv.PausedBy())

	until := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	auto := conversationRow()
	auto.AgentActive = false
	auto.PauseKind = "auto"
	auto.PauseUntil = sql.NullTime{Time: until, Valid: true}
	conv, err = toDomainConversation(&auto)
	require.NoError(t, err)
	assert.False(t, conv.AgentActive())
	require.True(t, conv.Pause().IsAuto())
	got, ok := conv.Pause().Until()
	require.True(t, ok)
	assert.True(t, got.Equal(until))
}

func TestConversationRow_AutoPauseRoundTrip(t *testing.T) {
	t.Parallel()

	operator := uuid.New()
	until := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	conv := conversation.New(
		uuid.New(),
		uuid.New(),
		"+15551230001",
		conversation.WithPause(conversation.AutoPauseUntil(until), operator),
	)

	row := toDBConversation(conv)
	assert.Equal(t, "auto", row.PauseKind)
	assert.False(t, row.AgentActive)
	require.True(t, row.PauseUntil.Valid)

	back, err := toDomainConversation(row)
	require.NoError(t, err)
	assert.False(t, back.AgentActive())
	require.True(t, back.Pause().IsAuto())
	got, ok := back.Pause().Until()
	require.True(t, ok)
	assert.True(t, got.Equal(until))
	assert.Equal(t, operator, back.PausedBy())
}
