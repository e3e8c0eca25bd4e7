package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/tasks"
)

// EnrichmentService transcribes audio attachments in the background and
// appends the text to the conversation's memory. Strictly best-effort: every
// failure is logged and dropped, delivery status is never touched.
type EnrichmentService struct {
	messages    message.Repository
	attachments attachment.Repository
	memory      conversation.MemoryStore
	transcriber conversation.Transcriber
	pool        *tasks.Pool
	log         *logrus.Entry
	m           *metrics
}

func NewEnrichmentService(
	messages message.Repository,
	attachments attachment.Repository,
	memory conversation.MemoryStore,
	transcriber conversation.Transcriber,
	pool *tasks.Pool,
	log *logrus.Entry,
) *EnrichmentService {
	return &EnrichmentService{
		messages:    messages,
		attachments: attachments,
		memory:      memory,
		transcriber: transcriber,
		pool:        pool,
		log:         log.WithField("component", "enrichment"),
		m:           getMetrics(),
	}
}

// RegisterListeners subscribes to attachment creation events.
func (s *EnrichmentService) RegisterListeners(bus eventbus.EventBus) {
	bus.Subscribe(s.onAttachmentCreated)
}

// Shutdown drains the enrichment worker pool.
func (s *EnrichmentService) Shutdown(ctx context.Context) error {
	return s.pool.Shutdown(ctx)
}

func (s *EnrichmentService) onAttachmentCreated(event attachment.CreatedEvent) {
	if event.Attachment.Category() != attachment.CategoryAudio {
		return
	}
	if s.transcriber == nil {
		return
	}

	att := event.Attachment
	data := event.Data
	err := s.pool.Submit(tasks.Task{
		Name: "transcribe",
		Run: func(ctx context.Context) error {
			s.enrich(ctx, att, data)
			return nil
		},
	})
	if err != nil {
		s.log.WithError(err).WithField("attachment_id", att.ID()).Warn("enrichment task rejected")
	}
}

func (s *EnrichmentService) enrich(ctx context.Context, att attachment.Attachment, data []byte) {
	log := s.log.WithField("attachment_id", att.ID())

	text, err := s.transcriber.Transcribe(ctx, data, att.FileName(), att.MimeType())
	if err != nil {
		s.m.enrichmentTotal.WithLabelValues("failure").Inc()
		log.WithError(err).Warn("transcription failed")
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.m.enrichmentTotal.WithLabelValues("empty").Inc()
		return
	}

	if err := s.attachments.UpdateTranscription(ctx, att.ID(), text); err != nil {
		log.WithError(err).Warn("could not store transcription")
	}

	msg, err := s.messages.GetByID(ctx, att.MessageID())
	if err != nil {
		log.WithError(err).Warn("could not resolve message for transcription")
		s.m.enrichmentTotal.WithLabelValues("failure").Inc()
		return
	}
	if err := s.memory.Append(ctx, msg.ConversationID(), "[audio] "+text); err != nil {
		log.WithError(err).Warn("could not append transcription to conversation memory")
		s.m.enrichmentTotal.WithLabelValues("failure").Inc()
		return
	}
	s.m.enrichmentTotal.WithLabelValues("success").Inc()
}
