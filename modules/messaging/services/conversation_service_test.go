package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
)

func newTestBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func newConversationFixture(t *testing.T) (*ConversationService, *inMemConversationRepository, *inMemPauseSettingRepository, conversation.Conversation) {
	t.Helper()

	conversations := newInMemConversationRepository()
	messages := newInMemMessageRepository()
	settings := newInMemPauseSettingRepository()

	svc := NewConversationService(conversations, messages, settings, newTestBus(), PauseDefaults{
		Duration: 30,
		Unit:     pausesetting.UnitMinutes,
	})

	conv, err := svc.Create(context.Background(), uuid.New(), uuid.New(), "+15551230001")
	require.NoError(t, err)
	return svc, conversations, settings, conv
}

func TestReceiveMessage_ProfessionalPausesAgent(t *testing.T) {
	t.Parallel()

	svc, conversations, settings, conv := newConversationFixture(t)
	_, err := settings.Save(context.Background(), pausesetting.New(conv.ClinicID(), 5, pausesetting.UnitMinutes))
	require.NoError(t, err)

	before := time.Now()
	_, err = svc.ReceiveMessage(
		context.Background(),
		conv.ID(),
		message.SenderProfessional,
		message.DeviceManual,
		"I'll take it from here",
		uuid.New(),
	)
	require.NoError(t, err)

	got, err := conversations.GetByID(context.Background(), conv.ID())
	require.NoError(t, err)
	assert.False(t, got.AgentActive())
	require.True(t, got.Pause().IsAuto())

	until, ok := got.Pause().Until()
	require.True(t, ok)
	assert.WithinDuration(t, before.Add(5*time.Minute), until, 2*time.Second)
}

func TestReceiveMessage_PatientDoesNotPause(t *testing.T) {
	t.Parallel()

	svc, conversations, _, conv := newConversationFixture(t)

	_, err := svc.ReceiveMessage(
		context.Background(),
		conv.ID(),
		message.SenderPatient,
		message.DeviceManual,
		"hi, I'd like to reschedule",
		uuid.Nil,
	)
	require.NoError(t, err)

	got, err := conversations.GetByID(context.Background(), conv.ID())
	require.NoError(t, err)
	assert.True(t, got.AgentActive())
	assert.True(t, got.Pause().IsNone())
}

func TestReceiveMessage_ManualPauseIsNeverTouched(t *testing.T) {
	t.Parallel()

	svc, conversations, _, conv := newConversationFixture(t)
	operator := uuid.New()
	_, err := svc.SetAgentActive(context.Background(), conv.ID(), false, operator)
	require.NoError(t, err)

	for _, sender := range []message.SenderType{
		message.SenderPatient,
		message.SenderProfessional,
		message.SenderAgent,
		message.SenderSystem,
	} {
		_, err := svc.ReceiveMessage(context.Background(), conv.ID(), sender, message.DeviceSystem, "ping", uuid.Nil)
		require.NoError(t, err)

		got, err := conversations.GetByID(context.Background(), conv.ID())
		require.NoError(t, err)
		assert.False(t, got.AgentActive(), "sender %s", sender)
		assert.True(t, got.Pause().IsManual(), "sender %s", sender)
	}
}

func TestReceiveMessage_ConcurrentProfessionals_OnePauseWins(t *testing.T) {
	t.Parallel()

	svc, conversations, _, conv := newConversationFixture(t)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ReceiveMessage(
				context.Background(),
				conv.ID(),
				message.SenderProfessional,
				message.DeviceManual,
				"taking over",
				uuid.New(),
			)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := conversations.GetByID(context.Background(), conv.ID())
	require.NoError(t, err)
	assert.False(t, got.AgentActive())
	assert.True(t, got.Pause().IsAuto(), "exactly one auto pause holds; the rest were no-ops")
}

func TestReceiveMessage_UnknownConversation(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newConversationFixture(t)
	_, err := svc.ReceiveMessage(context.Background(), uuid.New(), message.SenderPatient, message.DeviceManual, "hi", uuid.Nil)
	assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
}

func TestSetAgentActive_ManualOnClearsAnyPause(t *testing.T) {
	t.Parallel()

	svc, conversations, _, conv := newConversationFixture(t)

	// Auto pause first.
	_, err := svc.ReceiveMessage(context.Background(), conv.ID(), message.SenderProfessional, message.DeviceManual, "on it", uuid.New())
	require.NoError(t, err)
	got, err := conversations.GetByID(context.Background(), conv.ID())
	require.NoError(t, err)
	require.True(t, got.Pause().IsAuto())

	// Manual "on" wins over the in-flight auto pause.
	updated, err := svc.SetAgentActive(context.Background(), conv.ID(), true, uuid.New())
	require.NoError(t, err)
	assert.True(t, updated.AgentActive())
	assert.True(t, updated.Pause().IsNone())
	assert.Equal(t, uuid.Nil, updated.PausedBy())
}

func TestSetAgentActive_OnlyAppliedTogglePublishes(t *testing.T) {
	t.Parallel()

	conversations := newInMemConversationRepository()
	bus := newTestBus()
	svc := NewConversationService(conversations, newInMemMessageRepository(), newInMemPauseSettingRepository(), bus, PauseDefaults{
		Duration: 30,
		Unit:     pausesetting.UnitMinutes,
	})

	var events []conversation.ManualPauseChangedEvent
	bus.Subscribe(func(e conversation.ManualPauseChangedEvent) {
		events = append(events, e)
	})

	conv, err := svc.Create(context.Background(), uuid.New(), uuid.New(), "+15551230001")
	require.NoError(t, err)

	// Turning on an already-active agent changes nothing and stays silent.
	_, err = svc.SetAgentActive(context.Background(), conv.ID(), true, uuid.New())
	require.NoError(t, err)

	operator := uuid.New()
	_, err = svc.SetAgentActive(context.Background(), conv.ID(), false, operator)
	require.NoError(t, err)

	// A second "off" loses the race with the first and stays silent too.
	_, err = svc.SetAgentActive(context.Background(), conv.ID(), false, uuid.New())
	require.NoError(t, err)

	require.Len(t, events, 1, "only the toggle that flipped state announces it")
	assert.Equal(t, conv.ID(), events[0].ConversationID)
	assert.False(t, events[0].Active)
	assert.Equal(t, operator, events[0].ChangedBy)
}

func TestSetAgentActive_ManualOff(t *testing.T) {
	t.Parallel()

	svc, _, _, conv := newConversationFixture(t)
	operator := uuid.New()

	updated, err := svc.SetAgentActive(context.Background(), conv.ID(), false, operator)
	require.NoError(t, err)
	assert.False(t, updated.AgentActive())
	assert.True(t, updated.Pause().IsManual())
	assert.Equal(t, operator, updated.PausedBy())
}
