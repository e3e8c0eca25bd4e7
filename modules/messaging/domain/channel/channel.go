// Package channel abstracts the external messaging transport a conversation
// is delivered over (currently WhatsApp).
package channel

import (
	"context"
	"errors"
)

var ErrSendFailed = errors.New("channel send failed")

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// SendResult reports the transport's identifier for a delivered message.
type SendResult struct {
	ExternalMessageID string
}

type Sender interface {
	SendText(ctx context.Context, phone, text string) (SendResult, error)

	// SendMedia delivers a file by URL. Caption is ignored by transports
	// that do not support one for the given kind (audio).
	SendMedia(ctx context.Context, phone string, kind MediaKind, mediaURL, fileName, caption string) (SendResult, error)
}
