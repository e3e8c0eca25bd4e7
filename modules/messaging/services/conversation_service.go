package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
)

// PauseDefaults applies when a clinic has no stored pause configuration.
type PauseDefaults struct {
	Duration int
	Unit     pausesetting.Unit
}

type ConversationService struct {
	conversations conversation.Repository
	messages      message.Repository
	settings      pausesetting.Repository
	publisher     eventbus.EventBus
	defaults      PauseDefaults
	m             *metrics
}

func NewConversationService(
	conversations conversation.Repository,
	messages message.Repository,
	settings pausesetting.Repository,
	publisher eventbus.EventBus,
	defaults PauseDefaults,
) *ConversationService {
	if defaults.Duration <= 0 {
		defaults = PauseDefaults{Duration: 30, Unit: pausesetting.UnitMinutes}
	}
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		settings:      settings,
		publisher:     publisher,
		defaults:      defaults,
		m:             getMetrics(),
	}
}

func (s *ConversationService) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}

func (s *ConversationService) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]conversation.Conversation, error) {
	return s.conversations.ListByClinic(ctx, clinicID)
}

func (s *ConversationService) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

func (s *ConversationService) Create(ctx context.Context, clinicID, contactID uuid.UUID, contactPhone string) (conversation.Conversation, error) {
	conv := conversation.New(clinicID, contactID, contactPhone)
	return s.conversations.Create(ctx, conv)
}

// ReceiveMessage is the single entry point for new message traffic. It
// persists the message, then evaluates the pause policy and applies its
// decision through a conditional update. A lost race on the update is the
// expected outcome for the second of two concurrent writers, not an error.
func (s *ConversationService) ReceiveMessage(
	ctx context.Context,
	conversationID uuid.UUID,
	sender message.SenderType,
	device message.DeviceType,
	content string,
	senderUserID uuid.UUID,
) (message.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	msg, err := message.New(conversationID, sender, device, content)
	if err != nil {
		return nil, err
	}
	msg, err = s.messages.Create(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "persist message")
	}

	setting, err := s.pauseSetting(ctx, conv.ClinicID())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	decision := conversation.DecidePause(conv, sender, setting, now)
	if decision.Kind == conversation.DecisionStartAutoPause {
		applied, err := s.conversations.BeginAutoPause(ctx, conversationID, decision.Until, senderUserID)
		if err != nil {
			return nil, errors.Wrap(err, "begin auto pause")
		}
		if applied {
			s.m.pauseStartedTotal.WithLabelValues("auto").Inc()
			s.publisher.Publish(conversation.AutoPausedEvent{
				ConversationID: conversationID,
				PausedBy:       senderUserID,
				Until:          decision.Until,
			})
		}
	}
	return msg, nil
}

// SetAgentActive is the manual override. Turning the agent on always wins:
// it clears any pause, manual or automatic, unconditionally.
func (s *ConversationService) SetAgentActive(ctx context.Context, id uuid.UUID, active bool, changedBy uuid.UUID) (conversation.Conversation, error) {
	if _, err := s.conversations.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var applied bool
	var err error
	if active {
		applied, err = s.conversations.ClearPause(ctx, id)
	} else {
		applied, err = s.conversations.SetManualPause(ctx, id, changedBy)
		if err == nil && applied {
			s.m.pauseStartedTotal.WithLabelValues("manual").Inc()
		}
	}
	if err != nil {
		return nil, err
	}

	// A lost race (already manual, already active) changes nothing, so only
	// the toggle that actually flipped state announces it.
	if applied {
		s.publisher.Publish(conversation.ManualPauseChangedEvent{
			ConversationID: id,
			Active:         active,
			ChangedBy:      changedBy,
		})
	}
	return s.conversations.GetByID(ctx, id)
}

func (s *ConversationService) pauseSetting(ctx context.Context, clinicID uuid.UUID) (pausesetting.Setting, error) {
	setting, err := s.settings.GetByClinicID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, pausesetting.ErrSettingNotFound) {
			return pausesetting.New(clinicID, s.defaults.Duration, s.defaults.Unit), nil
		}
		return nil, err
	}
	return setting, nil
}
