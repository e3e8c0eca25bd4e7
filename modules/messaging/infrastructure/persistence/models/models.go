package models

import (
	"database/sql"
	"time"
)

type Conversation struct {
	ID           string
	ClinicID     string
	ContactID    string
	ContactPhone string
	AgentActive  bool
	PauseKind    string
	PauseUntil   sql.NullTime
	PausedBy     sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	ID                string
	ConversationID    string
	SenderType        string
	DeviceType        string
	Content           string
	DeliveryStatus    string
	ExternalMessageID sql.NullString
	CreatedAt         time.Time
}

type Attachment struct {
	ID            string
	MessageID     string
	FileName      string
	MimeType      string
	Size          int64
	StoragePath   string
	SignedURL     string
	Transcription sql.NullString
	CreatedAt     time.Time
}

type PauseSetting struct {
	ID       string
	ClinicID string
	Duration int
	Unit     string
}
