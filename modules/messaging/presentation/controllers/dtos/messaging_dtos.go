package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/constants"
)

type CreateConversationDTO struct {
	ClinicID     string `json:"clinic_id" validate:"required,uuid4"`
	ContactID    string `json:"contact_id" validate:"required,uuid4"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,max=32"`
}

type InboundMessageDTO struct {
	Content      string `json:"content" validate:"required,max=4096"`
	SenderType   string `json:"sender_type" validate:"required,oneof=patient professional agent system"`
	DeviceType   string `json:"device_type" validate:"required,oneof=manual system"`
	SenderUserID string `json:"sender_user_id" validate:"omitempty,uuid4"`
}

type AgentToggleDTO struct {
	AgentActive *bool  `json:"agent_active" validate:"required"`
	ChangedBy   string `json:"changed_by" validate:"omitempty,uuid4"`
}

func Validate(dto any) (map[string]string, bool) {
	errs := constants.Validate.Struct(dto)
	if errs == nil {
		return nil, true
	}
	fields := map[string]string{}
	for _, err := range errs.(validator.ValidationErrors) {
		fields[err.Field()] = err.Tag()
	}
	return fields, false
}

type ConversationResponse struct {
	ID           string     `json:"id"`
	ClinicID     string     `json:"clinic_id"`
	ContactID    string     `json:"contact_id"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	AgentActive  bool       `json:"agent_active"`
	PauseKind    string     `json:"pause_kind"`
	PauseUntil   *time.Time `json:"pause_until,omitempty"`
	PausedBy     string     `json:"paused_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewConversationResponse(conv conversation.Conversation) ConversationResponse {
	resp := ConversationResponse{
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
		resp.PauseUntil = &until
	}
	if by := conv.PausedBy(); by != uuid.Nil {
		resp.PausedBy = by.String()
	}
	return resp
}

type MessageResponse struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	SenderType        string    `json:"sender_type"`
	DeviceType        string    `json:"device_type"`
	Content           string    `json:"content"`
	DeliveryStatus    string    `json:"delivery_status"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewMessageResponse(msg message.Message) MessageResponse {
	return MessageResponse{
		ID:                msg.ID().String(),
		ConversationID:    msg.ConversationID().String(),
		SenderType:        string(msg.SenderType()),
		DeviceType:        string(msg.DeviceType()),
		Content:           msg.Content(),
		DeliveryStatus:    string(msg.DeliveryStatus()),
		ExternalMessageID: msg.ExternalMessageID(),
		CreatedAt:         msg.CreatedAt(),
	}
}

type AttachmentResponse struct {
	ID            string    `json:"id"`
	MessageID     string    `json:"message_id"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	Category      string    `json:"category"`
	Size          int64     `json:"size"`
	SignedURL     string    `json:"signed_url"`
	Transcription string    `json:"transcription,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewAttachmentResponse(att attachment.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:            att.ID().String(),
		MessageID:     att.MessageID().String(),
		FileName:      att.FileName(),
		MimeType:      att.MimeType(),
		Category:      string(att.Category()),
		Size:          att.Size(),
		SignedURL:     att.SignedURL(),
		Transcription: att.Transcription(),
		CreatedAt:     att.CreatedAt(),
	}
}

type UploadResponse struct {
	Message    MessageResponse    `json:"message"`
	Attachment AttachmentResponse `json:"attachment"`
	SignedURL  string             `json:"signed_url"`
}
