package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/tasks"
)

type enrichmentFixture struct {
	svc         *EnrichmentService
	messages    *inMemMessageRepository
	attachments *inMemAttachmentRepository
	memory      *inMemMemoryStore
	transcriber *stubTranscriber
	bus         eventbus.EventBus
	msg         message.Message
}

func newEnrichmentFixture(t *testing.T) *enrichmentFixture {
	t.Helper()

	f := &enrichmentFixture{
		messages:    newInMemMessageRepository(),
		attachments: newInMemAttachmentRepository(),
		memory:      newInMemMemoryStore(),
		transcriber: &stubTranscriber{text: "patient says the pain is gone"},
		bus:         newTestBus(),
	}
	f.svc = NewEnrichmentService(
		f.messages,
		f.attachments,
		f.memory,
		f.transcriber,
		tasks.NewPool("enrichment-test", 1, 8, testLogEntry()),
		testLogEntry(),
	)
	f.svc.RegisterListeners(f.bus)

	msg, err := message.New(uuid.New(), message.SenderPatient, message.DeviceManual, "voice note")
	require.NoError(t, err)
	f.msg, err = f.messages.Create(context.Background(), msg)
	require.NoError(t, err)
	return f
}

func (f *enrichmentFixture) audioAttachment(t *testing.T) attachment.Attachment {
	t.Helper()
	att, err := f.attachments.Create(context.Background(), attachment.New(
		f.msg.ID(), "note.ogg", "audio/ogg", 10, "clinic/conv/audio/1-note.ogg", "https://blob/note",
	))
	require.NoError(t, err)
	return att
}

func (f *enrichmentFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx))
}

func TestEnrichment_TranscribesAudioIntoMemory(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)
	att := f.audioAttachment(t)

	f.bus.Publish(attachment.CreatedEvent{Attachment: att, Data: []byte("ogg-bytes")})
	f.drain(t)

	history, err := f.memory.History(context.Background(), f.msg.ConversationID())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "[audio] patient says the pain is gone", history[0])

	enriched, err := f.attachments.GetByID(context.Background(), att.ID())
	require.NoError(t, err)
	assert.Equal(t, "patient says the pain is gone", enriched.Transcription())
}

func TestEnrichment_IgnoresNonAudio(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)
	att, err := f.attachments.Create(context.Background(), attachment.New(
		f.msg.ID(), "scan.jpg", "image/jpeg", 10, "clinic/conv/images/1-scan.jpg", "https://blob/scan",
	))
	require.NoError(t, err)

	f.bus.Publish(attachment.CreatedEvent{Attachment: att, Data: []byte("jpeg")})
	f.drain(t)

	history, err := f.memory.History(context.Background(), f.msg.ConversationID())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEnrichment_FailureIsSwallowed(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)
	f.transcriber.err = errors.New("whisper unavailable")
	att := f.audioAttachment(t)

	f.bus.Publish(attachment.CreatedEvent{Attachment: att, Data: []byte("ogg-bytes")})
	f.drain(t)

	history, err := f.memory.History(context.Background(), f.msg.ConversationID())
	require.NoError(t, err)
	assert.Empty(t, history)

	// Delivery bookkeeping is untouched by enrichment failures.
	got, err := f.messages.GetByID(context.Background(), f.msg.ID())
	require.NoError(t, err)
	assert.Equal(t, f.msg.DeliveryStatus(), got.DeliveryStatus())

	stored, err := f.attachments.GetByID(context.Background(), att.ID())
	require.NoError(t, err)
	assert.Empty(t, stored.Transcription())
}

func TestEnrichment_NoTranscriberConfigured(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)
	f.svc.transcriber = nil
	att := f.audioAttachment(t)

	// Must not panic or enqueue anything.
	f.bus.Publish(attachment.CreatedEvent{Attachment: att, Data: []byte("ogg-bytes")})
	f.drain(t)

	history, err := f.memory.History(context.Background(), f.msg.ConversationID())
	require.NoError(t, err)
	assert.Empty(t, history)
}
