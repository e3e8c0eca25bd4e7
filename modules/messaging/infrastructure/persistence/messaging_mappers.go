package persistence

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence/models"
)

func toDomainConversation(row *models.Conversation) (conversation.Conversation, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	clinicID, err := uuid.Parse(row.ClinicID)
	if err != nil {
		return nil, err
	}
	contactID, err := uuid.Parse(row.ContactID)
	if err != nil {
		return nil, err
	}

	pause := conversation.NoPause()
	switch row.PauseKind {
	case conversation.PauseKindManual.String():
		pause = conversation.ManualPause()
	case conversation.PauseKindAuto.String():
		if row.PauseUntil.Valid {
			pause = conversation.AutoPauseUntil(row.PauseUntil.Time)
		}
	}

	pausedBy := uuid.Nil
	if row.PausedBy.Valid {
		pausedBy, err = uuid.Parse(row.PausedBy.String)
		if err != nil {
			return nil, err
		}
	}

	return conversation.New(
		clinicID,
		contactID,
		row.ContactPhone,
		conversation.WithID(id),
		conversation.WithPause(pause, pausedBy),
		conversation.WithCreatedAt(row.CreatedAt),
		conversation.WithUpdatedAt(row.UpdatedAt),
	), nil
}

func toDBConversation(conv conversation.Conversation) *models.Conversation {
	row := &models.Conversation{
		ID:           conv.ID().String(),
		ClinicID:     conv.ClinicID().String(),
		ContactID:    conv.ContactID().String(),
		ContactPhone: conv.ContactPhone(),
		AgentActive:  conv.AgentActive(),
		PauseKind:    conv.Pause().Kind().String(),
		CreatedAt:    conv.CreatedAt(),
		UpdatedAt:    conv.UpdatedAt(),
	}
	if until, ok := conv.Pause().Until(); ok {
		row.PauseUntil = sql.NullTime{Time: until, Valid: true}
	}
	if conv.PausedBy() != uuid.Nil {
		row.PausedBy = sql.NullString{String: conv.PausedBy().String(), Valid: true}
	}
	return row
}

func toDomainMessage(row *models.Message) (message.Message, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	conversationID, err := uuid.Parse(row.ConversationID)
	if err != nil {
		return nil, err
	}
	return message.New(
		conversationID,
		message.SenderType(row.SenderType),
		message.DeviceType(row.DeviceType),
		row.Content,
		message.WithID(id),
		message.WithCreatedAt(row.CreatedAt),
		message.WithDelivery(message.DeliveryStatus(row.DeliveryStatus), row.ExternalMessageID.String),
	)
}

func toDBMessage(msg message.Message) *models.Message {
	row := &models.Message{
		ID:             msg.ID().String(),
		ConversationID: msg.ConversationID().String(),
		SenderType:     string(msg.SenderType()),
		DeviceType:     string(msg.DeviceType()),
		Content:        msg.Content(),
		DeliveryStatus: string(msg.DeliveryStatus()),
		CreatedAt:      msg.CreatedAt(),
	}
	if extID := msg.ExternalMessageID(); extID != "" {
		row.ExternalMessageID = sql.NullString{String: extID, Valid: true}
	}
	return row
}

func toDomainAttachment(row *models.Attachment) (attachment.Attachment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	messageID, err := uuid.Parse(row.MessageID)
	if err != nil {
		return nil, err
	}
	return attachment.New(
		messageID,
		row.FileName,
		row.MimeType,
		row.Size,
		row.StoragePath,
		row.SignedURL,
		attachment.WithID(id),
		attachment.WithCreatedAt(row.CreatedAt),
		attachment.WithTranscription(row.Transcription.String),
	), nil
}

func toDBAttachment(att attachment.Attachment) *models.Attachment {
	row := &models.Attachment{
		ID:          att.ID().String(),
		MessageID:   att.MessageID().String(),
		FileName:    att.FileName(),
		MimeType:    att.MimeType(),
		Size:        att.Size(),
		StoragePath: att.StoragePath(),
		SignedURL:   att.SignedURL(),
		CreatedAt:   att.CreatedAt(),
	}
	if t := att.Transcription(); t != "" {
		row.Transcription = sql.NullString{String: t, Valid: true}
	}
	return row
}

func toDomainPauseSetting(row *models.PauseSetting) (pausesetting.Setting, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	clinicID, err := uuid.Parse(row.ClinicID)
	if err != nil {
		return nil, err
	}
	return pausesetting.New(
		clinicID,
		row.Duration,
		pausesetting.Unit(row.Unit),
		pausesetting.WithID(id),
	), nil
}
