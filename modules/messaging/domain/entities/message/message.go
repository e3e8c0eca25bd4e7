package message

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyContent    = errors.New("empty message content")
	ErrContentTooLong  = errors.New("message content too long")
	ErrInvalidSender   = errors.New("invalid sender type")
	ErrInvalidDevice   = errors.New("invalid device type")
)

const MaxContentLength = 4096

type SenderType string

const (
	SenderPatient      SenderType = "patient"
	SenderProfessional SenderType = "professional"
	SenderAgent        SenderType = "agent"
	SenderSystem       SenderType = "system"
)

func ParseSenderType(s string) (SenderType, error) {
	switch SenderType(s) {
	case SenderPatient, SenderProfessional, SenderAgent, SenderSystem:
		return SenderType(s), nil
	default:
		return "", ErrInvalidSender
	}
}

// DeviceType classifies the origin of a message: typed directly by a human
// (manual) or produced through the system UI/automation (system).
type DeviceType string

const (
	DeviceManual DeviceType = "manual"
	DeviceSystem DeviceType = "system"
)

func ParseDeviceType(s string) (DeviceType, error) {
	switch DeviceType(s) {
	case DeviceManual, DeviceSystem:
		return DeviceType(s), nil
	default:
		return "", ErrInvalidDevice
	}
}

type DeliveryStatus string

const (
	DeliveryNone    DeliveryStatus = "none"
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	Create(ctx context.Context, msg Message) (Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]Message, error)

	// UpdateDelivery records the outcome of an external dispatch. Rows are
	// otherwise immutable after insert.
	UpdateDelivery(ctx context.Context, id uuid.UUID, status DeliveryStatus, externalMessageID string) error
}

type Message interface {
	ID() uuid.UUID
	ConversationID() uuid.UUID
	SenderType() SenderType
	DeviceType() DeviceType
	Content() string
	CreatedAt() time.Time
	DeliveryStatus() DeliveryStatus
	ExternalMessageID() string
}

type msg struct {
	id                uuid.UUID
	conversationID    uuid.UUID
	senderType        SenderType
	deviceType        DeviceType
	content           string
	createdAt         time.Time
	deliveryStatus    DeliveryStatus
	externalMessageID string
}

func New(conversationID uuid.UUID, sender SenderType, device DeviceType, content string, opts ...Option) (Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}
	switch sender {
	case SenderPatient, SenderProfessional, SenderAgent, SenderSystem:
	default:
		return nil, ErrInvalidSender
	}
	switch device {
	case DeviceManual, DeviceSystem:
	default:
		return nil, ErrInvalidDevice
	}

	m := &msg{
		id:             uuid.New(),
		conversationID: conversationID,
		senderType:     sender,
		deviceType:     device,
		content:        content,
		createdAt:      time.Now(),
		deliveryStatus: DeliveryNone,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type Option func(*msg)

func WithID(id uuid.UUID) Option {
	return func(m *msg) {
		if id != uuid.Nil {
			m.id = id
		}
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(m *msg) {
		if !createdAt.IsZero() {
			m.createdAt = createdAt
		}
	}
}

func WithDelivery(status DeliveryStatus, externalMessageID string) Option {
	return func(m *msg) {
		m.deliveryStatus = status
		m.externalMessageID = externalMessageID
	}
}

func (m *msg) ID() uuid.UUID                  { return m.id }
func (m *msg) ConversationID() uuid.UUID      { return m.conversationID }
func (m *msg) SenderType() SenderType         { return m.senderType }
func (m *msg) DeviceType() DeviceType         { return m.deviceType }
func (m *msg) Content() string                { return m.content }
func (m *msg) CreatedAt() time.Time           { return m.createdAt }
func (m *msg) DeliveryStatus() DeliveryStatus { return m.deliveryStatus }
func (m *msg) ExternalMessageID() string      { return m.externalMessageID }
