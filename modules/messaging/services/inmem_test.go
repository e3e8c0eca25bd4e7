package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/channel"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
)

func testLogEntry() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// inMemConversationRepository mirrors the conditional-update semantics of the
// Postgres implementation, including the compare-and-swap guards.
type inMemConversationRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]conversation.Conversation

	reactivateErrFor map[uuid.UUID]error
}

func newInMemConversationRepository() *inMemConversationRepository {
	return &inMemConversationRepository{
		items:            map[uuid.UUID]conversation.Conversation{},
		reactivateErrFor: map[uuid.UUID]error{},
	}
}

func (r *inMemConversationRepository) GetByID(_ context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.items[id]
	if !ok {
		return nil, conversation.ErrConversationNotFound
	}
	return conv, nil
}

func (r *inMemConversationRepository) ListByClinic(_ context.Context, clinicID uuid.UUID) ([]conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []conversation.Conversation
	for _, conv := range r.items {
		if conv.ClinicID() == clinicID {
			result = append(result, conv)
		}
	}
	return result, nil
}

func (r *inMemConversationRepository) Create(_ context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[conv.ID()] = conv
	return conv, nil
}

func (r *inMemConversationRepository) FindExpiredAutoPaused(_ context.Context, now time.Time, limit int) ([]conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []conversation.Conversation
	for _, conv := range r.items {
		if len(result) >= limit {
			break
		}
		if until, ok := conv.Pause().Until(); ok && !until.After(now) {
			result = append(result, conv)
		}
	}
	return result, nil
}

func (r *inMemConversationRepository) BeginAutoPause(_ context.Context, id uuid.UUID, until time.Time, pausedBy uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.items[id]
	if !ok || !conv.AgentActive() || conv.Pause().IsManual() {
		return false, nil
	}
	r.items[id] = r.rebuild(conv, conversation.AutoPauseUntil(until), pausedBy)
	return true, nil
}

func (r *inMemConversationRepository) ReactivateExpired(_ context.Context, id uuid.UUID, until time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reactivateErrFor[id]; err != nil {
		return false, err
	}
	conv, ok := r.items[id]
	if !ok || !conv.Pause().IsAuto() {
		return false, nil
	}
	current, _ := conv.Pause().Until()
	if !current.Equal(until) {
		return false, nil
	}
	r.items[id] = r.rebuild(conv, conversation.NoPause(), uuid.Nil)
	return true, nil
}

func (r *inMemConversationRepository) SetManualPause(_ context.Context, id uuid.UUID, pausedBy uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.items[id]
	if !ok || conv.Pause().IsManual() {
		return false, nil
	}
	r.items[id] = r.rebuild(conv, conversation.ManualPause(), pausedBy)
	return true, nil
}

func (r *inMemConversationRepository) ClearPause(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.items[id]
	if !ok || conv.AgentActive() {
		return false, nil
	}
	r.items[id] = r.rebuild(conv, conversation.NoPause(), uuid.Nil)
	return true, nil
}

func (r *inMemConversationRepository) rebuild(conv conversation.Conversation, pause conversation.PauseReason, pausedBy uuid.UUID) conversation.Conversation {
	return conversation.New(
		conv.ClinicID(),
		conv.ContactID(),
		conv.ContactPhone(),
		conversation.WithID(conv.ID()),
		conversation.WithPause(pause, pausedBy),
		conversation.WithCreatedAt(conv.CreatedAt()),
	)
}

type inMemMessageRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]message.Message
}

func newInMemMessageRepository() *inMemMessageRepository {
	return &inMemMessageRepository{items: map[uuid.UUID]message.Message{}}
}

func (r *inMemMessageRepository) GetByID(_ context.Context, id uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.items[id]
	if !ok {
		return nil, message.ErrMessageNotFound
	}
	return msg, nil
}

func (r *inMemMessageRepository) Create(_ context.Context, msg message.Message) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[msg.ID()] = msg
	return msg, nil
}

func (r *inMemMessageRepository) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []message.Message
	for _, msg := range r.items {
		if msg.ConversationID() == conversationID {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (r *inMemMessageRepository) UpdateDelivery(_ context.Context, id uuid.UUID, status message.DeliveryStatus, externalMessageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.items[id]
	if !ok {
		return message.ErrMessageNotFound
	}
	updated, err := message.New(
		msg.ConversationID(),
		msg.SenderType(),
		msg.DeviceType(),
		msg.Content(),
		message.WithID(msg.ID()),
		message.WithCreatedAt(msg.CreatedAt()),
		message.WithDelivery(status, externalMessageID),
	)
	if err != nil {
		return err
	}
	r.items[id] = updated
	return nil
}

func (r *inMemMessageRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type inMemAttachmentRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]attachment.Attachment
}

func newInMemAttachmentRepository() *inMemAttachmentRepository {
	return &inMemAttachmentRepository{items: map[uuid.UUID]attachment.Attachment{}}
}

func (r *inMemAttachmentRepository) GetByID(_ context.Context, id uuid.UUID) (attachment.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	att, ok := r.items[id]
	if !ok {
		return nil, attachment.ErrAttachmentNotFound
	}
	return att, nil
}

func (r *inMemAttachmentRepository) GetByMessageID(_ context.Context, messageID uuid.UUID) (attachment.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, att := range r.items {
		if att.MessageID() == messageID {
			return att, nil
		}
	}
	return nil, attachment.ErrAttachmentNotFound
}

func (r *inMemAttachmentRepository) Create(_ context.Context, att attachment.Attachment) (attachment.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[att.ID()] = att
	return att, nil
}

func (r *inMemAttachmentRepository) UpdateTranscription(_ context.Context, id uuid.UUID, transcription string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	att, ok := r.items[id]
	if !ok {
		return attachment.ErrAttachmentNotFound
	}
	r.items[id] = attachment.New(
		att.MessageID(),
		att.FileName(),
		att.MimeType(),
		att.Size(),
		att.StoragePath(),
		att.SignedURL(),
		attachment.WithID(att.ID()),
		attachment.WithCreatedAt(att.CreatedAt()),
		attachment.WithTranscription(transcription),
	)
	return nil
}

type inMemPauseSettingRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]pausesetting.Setting
}

func newInMemPauseSettingRepository() *inMemPauseSettingRepository {
	return &inMemPauseSettingRepository{items: map[uuid.UUID]pausesetting.Setting{}}
}

func (r *inMemPauseSettingRepository) GetByClinicID(_ context.Context, clinicID uuid.UUID) (pausesetting.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting, ok := r.items[clinicID]
	if !ok {
		return nil, pausesetting.ErrSettingNotFound
	}
	return setting, nil
}

func (r *inMemPauseSettingRepository) Save(_ context.Context, setting pausesetting.Setting) (pausesetting.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[setting.ClinicID()] = setting
	return setting, nil
}

// stubStorage counts calls; Put can be made to fail.
type stubStorage struct {
	mu        sync.Mutex
	putCalls  int
	signCalls int
	putErr    error
}

func (s *stubStorage) Put(_ context.Context, _ string, _ []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.putCalls++
	return nil
}

func (s *stubStorage) SignedURL(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signCalls++
	return "https://blob.test/signed/" + path, nil
}

type stubSender struct {
	mu       sync.Mutex
	sendErr  error
	lastKind channel.MediaKind
	captions []string
	calls    int
}

func (s *stubSender) SendText(_ context.Context, _, _ string) (channel.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.sendErr != nil {
		return channel.SendResult{}, s.sendErr
	}
	return channel.SendResult{ExternalMessageID: "ext-text"}, nil
}

func (s *stubSender) SendMedia(_ context.Context, _ string, kind channel.MediaKind, _, _, caption string) (channel.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastKind = kind
	s.captions = append(s.captions, caption)
	if s.sendErr != nil {
		return channel.SendResult{}, s.sendErr
	}
	return channel.SendResult{ExternalMessageID: "ext-media"}, nil
}

type inMemMemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]string
}

func newInMemMemoryStore() *inMemMemoryStore {
	return &inMemMemoryStore{entries: map[uuid.UUID][]string{}}
}

func (s *inMemMemoryStore) Append(_ context.Context, conversationID uuid.UUID, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[conversationID] = append(s.entries[conversationID], entry)
	return nil
}

func (s *inMemMemoryStore) History(_ context.Context, conversationID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[conversationID], nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}
