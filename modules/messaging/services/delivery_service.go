package services

import (
	"context"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/channel"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/tasks"
)

type DeliveryConfig struct {
	MaxUploadSize   int64
	DispatchTimeout time.Duration
}

type DeliveryService struct {
	conversations conversation.Repository
	messages      message.Repository
	attachments   attachment.Repository
	storage       attachment.Storage
	sender        channel.Sender
	publisher     eventbus.EventBus
	pool          *tasks.Pool
	log           *logrus.Entry
	cfg           DeliveryConfig
	m             *metrics
}

func NewDeliveryService(
	conversations conversation.Repository,
	messages message.Repository,
	attachments attachment.Repository,
	storage attachment.Storage,
	sender channel.Sender,
	publisher eventbus.EventBus,
	pool *tasks.Pool,
	log *logrus.Entry,
	cfg DeliveryConfig,
) *DeliveryService {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 50 * 1024 * 1024
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 30 * time.Second
	}
	return &DeliveryService{
		conversations: conversations,
		messages:      messages,
		attachments:   attachments,
		storage:       storage,
		sender:        sender,
		publisher:     publisher,
		pool:          pool,
		log:           log,
		cfg:           cfg,
		m:             getMetrics(),
	}
}

type DeliverParams struct {
	ConversationID uuid.UUID
	Data           []byte
	FileName       string
	MimeType       string
	Caption        string
	SendExternally bool
}

type DeliverResult struct {
	Message    message.Message
	Attachment attachment.Attachment
	SignedURL  string
}

// Deliver validates and persists an outbound file, then hands external
// dispatch to the worker pool. Everything up to the return is synchronous;
// the caller never waits on the channel or on enrichment.
func (s *DeliveryService) Deliver(ctx context.Context, params DeliverParams) (*DeliverResult, error) {
	conv, err := s.conversations.GetByID(ctx, params.ConversationID)
	if err != nil {
		return nil, err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = mimetype.Detect(params.Data).String()
	}
	if err := s.validate(params, mimeType); err != nil {
		return nil, err
	}

	now := time.Now()
	path := storagePath(conv.ClinicID(), conv.ID(), mimeType, params.FileName, now)
	if err := s.storage.Put(ctx, path, params.Data, mimeType); err != nil {
		return nil, errors.Wrap(err, "store attachment bytes")
	}
	signedURL, err := s.storage.SignedURL(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "sign attachment url")
	}

	content := params.Caption
	if content == "" {
		content = params.FileName
	}
	status := message.DeliveryNone
	if params.SendExternally {
		status = message.DeliveryPending
	}
	msg, err := message.New(
		params.ConversationID,
		message.SenderProfessional,
		message.DeviceSystem,
		content,
		message.WithDelivery(status, ""),
	)
	if err != nil {
		return nil, err
	}
	msg, err = s.messages.Create(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "persist message")
	}

	att := attachment.New(msg.ID(), params.FileName, mimeType, int64(len(params.Data)), path, signedURL)
	att, err = s.attachments.Create(ctx, att)
	if err != nil {
		return nil, errors.Wrap(err, "persist attachment")
	}

	s.publisher.Publish(attachment.CreatedEvent{Attachment: att, Data: params.Data})

	if params.SendExternally {
		s.enqueueDispatch(msg.ID(), conv.ContactPhone(), att, params.Caption, signedURL)
	}

	return &DeliverResult{Message: msg, Attachment: att, SignedURL: signedURL}, nil
}

// Redispatch re-sends a previously persisted attachment. The stored bytes
// stay where they are; only a fresh signed URL is minted.
func (s *DeliveryService) Redispatch(ctx context.Context, messageID uuid.UUID) (message.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	att, err := s.attachments.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversations.GetByID(ctx, msg.ConversationID())
	if err != nil {
		return nil, err
	}

	signedURL, err := s.storage.SignedURL(ctx, att.StoragePath())
	if err != nil {
		return nil, errors.Wrap(err, "sign attachment url")
	}
	if err := s.messages.UpdateDelivery(ctx, msg.ID(), message.DeliveryPending, msg.ExternalMessageID()); err != nil {
		return nil, err
	}

	s.enqueueDispatch(msg.ID(), conv.ContactPhone(), att, "", signedURL)
	return s.messages.GetByID(ctx, messageID)
}

func (s *DeliveryService) validate(params DeliverParams, mimeType string) error {
	if params.FileName == "" {
		return ErrEmptyFileName
	}
	if len(params.FileName) > 255 {
		return ErrFileNameTooLong
	}
	if int64(len(params.Data)) > s.cfg.MaxUploadSize {
		return ErrFileTooLarge.WithMessage(
			"file is %d bytes, the maximum is %d", len(params.Data), s.cfg.MaxUploadSize,
		)
	}
	if attachment.CategoryOf(mimeType) == attachment.CategoryOther {
		return ErrUnsupportedType.WithMessage("mime type %q is not allowed", mimeType)
	}
	return nil
}

// enqueueDispatch schedules the external send. The task carries its own
// deadline and deliberately ignores the request context: dispatch outlives
// the HTTP response.
func (s *DeliveryService) enqueueDispatch(messageID uuid.UUID, phone string, att attachment.Attachment, caption, signedURL string) {
	log := s.log.WithFields(logrus.Fields{
		"message_id": messageID,
		"media":      string(att.Category()),
	})

	err := s.pool.Submit(tasks.Task{
		Name: "dispatch",
		Run: func(ctx context.Context) error {
			dispatchCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
			defer cancel()
			s.dispatch(dispatchCtx, log, messageID, phone, att, caption, signedURL)
			return nil
		},
	})
	if err != nil {
		log.WithError(err).Warn("dispatch task rejected, message stays pending")
	}
}

func (s *DeliveryService) dispatch(ctx context.Context, log *logrus.Entry, messageID uuid.UUID, phone string, att attachment.Attachment, caption, signedURL string) {
	media := mediaKindOf(att.Category())
	if media == channel.MediaAudio {
		// Voice notes carry no caption on the channel.
		caption = ""
	}
	start := time.Now()

	var result channel.SendResult
	err := conversation.ErrNoContactPhone
	if phone != "" {
		result, err = s.sender.SendMedia(ctx, phone, media, signedURL, att.FileName(), caption)
	}
	latency := time.Since(start).Seconds()

	// The dispatch deadline may already be gone when the outcome is known
	// (a send that timed out). Record the status on a detached context so
	// the row never stays pending.
	recordCtx, cancelRecord := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancelRecord()

	if err != nil {
		s.m.dispatchTotal.WithLabelValues(string(media), "failure").Inc()
		s.m.dispatchLatency.WithLabelValues(string(media), "failure").Observe(latency)
		log.WithError(err).Warn("external dispatch failed")
		if uErr := s.messages.UpdateDelivery(recordCtx, messageID, message.DeliveryFailed, ""); uErr != nil {
			log.WithError(uErr).Error("could not record failed delivery status")
		}
		return
	}

	s.m.dispatchTotal.WithLabelValues(string(media), "success").Inc()
	s.m.dispatchLatency.WithLabelValues(string(media), "success").Observe(latency)
	if uErr := s.messages.UpdateDelivery(recordCtx, messageID, message.DeliverySent, result.ExternalMessageID); uErr != nil {
		log.WithError(uErr).Error("could not record sent delivery status")
	}
}

// Shutdown drains the dispatch worker pool.
func (s *DeliveryService) Shutdown(ctx context.Context) error {
	return s.pool.Shutdown(ctx)
}

func mediaKindOf(category attachment.Category) channel.MediaKind {
	switch category {
	case attachment.CategoryImages:
		return channel.MediaImage
	case attachment.CategoryVideos:
		return channel.MediaVideo
	case attachment.CategoryAudio:
		return channel.MediaAudio
	default:
		return channel.MediaDocument
	}
}
