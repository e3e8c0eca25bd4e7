package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/presentation/controllers/dtos"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/services"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/application"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/httpapi"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/middleware"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/serrors"
)

type MessagingAPIControllerConfig struct {
	BasePath      string
	Conversations *services.ConversationService
	Delivery      *services.DeliveryService
	MaxUploadSize int64
	Middlewares   []mux.MiddlewareFunc
}

type MessagingAPIController struct {
	basePath      string
	conversations *services.ConversationService
	delivery      *services.DeliveryService
	maxUploadSize int64
	middlewares   []mux.MiddlewareFunc
}

func NewMessagingAPIController(cfg MessagingAPIControllerConfig) application.Controller {
	if cfg.BasePath == "" {
		cfg.BasePath = "/api/messaging"
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 50 * 1024 * 1024
	}
	return &MessagingAPIController{
		basePath:      cfg.BasePath,
		conversations: cfg.Conversations,
		delivery:      cfg.Delivery,
		maxUploadSize: cfg.MaxUploadSize,
		middlewares:   cfg.Middlewares,
	}
}

func (c *MessagingAPIController) Key() string {
	return "MessagingAPIController"
}

func (c *MessagingAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	for _, mw := range c.middlewares {
		router.Use(mw)
	}

	router.HandleFunc("/conversations", c.createConversation).Methods(http.MethodPost)
	router.HandleFunc("/conversations/{id}", c.getConversation).Methods(http.MethodGet)
	router.HandleFunc("/conversations/{id}/messages", c.listMessages).Methods(http.MethodGet)

	// Inbound messages write the message row and flip the pause state in one
	// transaction. Upload routes stay out of it: the dispatch pool has to see
	// the committed rows.
	inbound := middleware.WithTransaction()(http.HandlerFunc(c.receiveMessage))
	router.Handle("/conversations/{id}/messages", inbound).Methods(http.MethodPost)
	router.HandleFunc("/conversations/{id}/agent", c.toggleAgent).Methods(http.MethodPatch)
	router.HandleFunc("/conversations/{id}/attachments", c.uploadAttachment).Methods(http.MethodPost)
	router.HandleFunc("/messages/{id}/redispatch", c.redispatch).Methods(http.MethodPost)
}

func (c *MessagingAPIController) createConversation(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateConversationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if fields, ok := dtos.Validate(&dto); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", fields)
		return
	}

	clinicID, _ := uuid.Parse(dto.ClinicID)
	contactID, _ := uuid.Parse(dto.ContactID)
	conv, err := c.conversations.Create(r.Context(), clinicID, contactID, dto.ContactPhone)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, dtos.NewConversationResponse(conv))
}

func (c *MessagingAPIController) getConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	conv, err := c.conversations.GetByID(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewConversationResponse(conv))
}

func (c *MessagingAPIController) listMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	msgs, err := c.conversations.ListMessages(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	resp := make([]dtos.MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		resp = append(resp, dtos.NewMessageResponse(msg))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, resp)
}

func (c *MessagingAPIController) receiveMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var dto dtos.InboundMessageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if fields, ok := dtos.Validate(&dto); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", fields)
		return
	}

	senderUserID := uuid.Nil
	if dto.SenderUserID != "" {
		senderUserID, _ = uuid.Parse(dto.SenderUserID)
	}

	msg, err := c.conversations.ReceiveMessage(
		r.Context(),
		id,
		message.SenderType(dto.SenderType),
		message.DeviceType(dto.DeviceType),
		dto.Content,
		senderUserID,
	)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, dtos.NewMessageResponse(msg))
}

func (c *MessagingAPIController) toggleAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var dto dtos.AgentToggleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if fields, ok := dtos.Validate(&dto); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", fields)
		return
	}

	changedBy := uuid.Nil
	if dto.ChangedBy != "" {
		changedBy, _ = uuid.Parse(dto.ChangedBy)
	}

	conv, err := c.conversations.SetAgentActive(r.Context(), id, *dto.AgentActive, changedBy)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewConversationResponse(conv))
}

func (c *MessagingAPIController) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_MULTIPART", "could not parse multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MISSING_FILE", "file part is required", nil)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "UNREADABLE_FILE", "could not read file part", nil)
		return
	}

	sendExternally := r.FormValue("send_externally") != "false"
	result, err := c.delivery.Deliver(r.Context(), services.DeliverParams{
		ConversationID: id,
		Data:           data,
		FileName:       header.Filename,
		MimeType:       header.Header.Get("Content-Type"),
		Caption:        r.FormValue("caption"),
		SendExternally: sendExternally,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusCreated, dtos.UploadResponse{
		Message:    dtos.NewMessageResponse(result.Message),
		Attachment: dtos.NewAttachmentResponse(result.Attachment),
		SignedURL:  result.SignedURL,
	})
}

func (c *MessagingAPIController) redispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	msg, err := c.delivery.Redispatch(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusAccepted, dtos.NewMessageResponse(msg))
}

func (c *MessagingAPIController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := composables.UseLogger(r.Context())

	var coded *serrors.Error
	switch {
	case errors.As(err, &coded):
		_ = httpapi.WriteError(w, http.StatusBadRequest, coded.Code, coded.Message, nil)
	case errors.Is(err, conversation.ErrConversationNotFound),
		errors.Is(err, message.ErrMessageNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, message.ErrEmptyContent),
		errors.Is(err, message.ErrContentTooLong),
		errors.Is(err, message.ErrInvalidSender),
		errors.Is(err, message.ErrInvalidDevice):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	default:
		logger.WithError(err).Error("messaging api request failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "identifier must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
