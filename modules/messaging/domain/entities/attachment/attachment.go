package attachment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// Category buckets a MIME type into the folder layout used for stored files.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryVideos    Category = "videos"
	CategoryAudio     Category = "audio"
	CategoryDocuments Category = "documents"
	CategoryOther     Category = "other"
)

func CategoryOf(mimeType string) Category {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryImages
	case strings.HasPrefix(mimeType, "video/"):
		return CategoryVideos
	case strings.HasPrefix(mimeType, "audio/"):
		return CategoryAudio
	case mimeType == "application/pdf",
		strings.HasPrefix(mimeType, "text/"),
		strings.HasPrefix(mimeType, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(mimeType, "application/vnd.ms-"),
		mimeType == "application/msword":
		return CategoryDocuments
	default:
		return CategoryOther
	}
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Attachment, error)
	GetByMessageID(ctx context.Context, messageID uuid.UUID) (Attachment, error)
	Create(ctx context.Context, att Attachment) (Attachment, error)
	UpdateTranscription(ctx context.Context, id uuid.UUID, transcription string) error
}

type Attachment interface {
	ID() uuid.UUID
	MessageID() uuid.UUID
	FileName() string
	MimeType() string
	Category() Category
	Size() int64
	StoragePath() string
	SignedURL() string
	Transcription() string
	CreatedAt() time.Time
}

type attachment struct {
	id            uuid.UUID
	messageID     uuid.UUID
	fileName      string
	mimeType      string
	size          int64
	storagePath   string
	signedURL     string
	transcription string
	createdAt     time.Time
}

func New(messageID uuid.UUID, fileName, mimeType string, size int64, storagePath, signedURL string, opts ...Option) Attachment {
	a := &attachment{
		id:          uuid.New(),
		messageID:   messageID,
		fileName:    fileName,
		mimeType:    mimeType,
		size:        size,
		storagePath: storagePath,
		signedURL:   signedURL,
		createdAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Option func(*attachment)

func WithID(id uuid.UUID) Option {
	return func(a *attachment) {
		if id != uuid.Nil {
			a.id = id
		}
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(a *attachment) {
		if !createdAt.IsZero() {
			a.createdAt = createdAt
		}
	}
}

func WithTranscription(transcription string) Option {
	return func(a *attachment) {
		a.transcription = transcription
	}
}

func (a *attachment) ID() uuid.UUID         { return a.id }
func (a *attachment) MessageID() uuid.UUID  { return a.messageID }
func (a *attachment) FileName() string      { return a.fileName }
func (a *attachment) MimeType() string      { return a.mimeType }
func (a *attachment) Category() Category    { return CategoryOf(a.mimeType) }
func (a *attachment) Size() int64           { return a.size }
func (a *attachment) StoragePath() string   { return a.storagePath }
func (a *attachment) SignedURL() string     { return a.signedURL }
func (a *attachment) Transcription() string { return a.transcription }
func (a *attachment) CreatedAt() time.Time  { return a.createdAt }

// CreatedEvent is published after an attachment row exists and its bytes are
// stored. Bytes ride along so subscribers (transcription) do not re-download.
type CreatedEvent struct {
	Attachment Attachment
	Data       []byte
}
