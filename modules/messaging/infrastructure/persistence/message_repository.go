package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence/models"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
)

const (
	selectMessageQuery = `
		SELECT id, conversation_id, sender_type, device_type, content,
		       delivery_status, external_message_id, created_at
		FROM messages`

	insertMessageQuery = `
		INSERT INTO messages (
			id, conversation_id, sender_type, device_type, content,
			delivery_status, external_message_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateMessageDeliveryQuery = `
		UPDATE messages
		SET delivery_status = $2, external_message_id = $3
		WHERE id = $1`
)

type PgMessageRepository struct{}

func NewMessageRepository() message.Repository {
	return &PgMessageRepository{}
}

func (r *PgMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Message
	if err := tx.QueryRow(ctx, selectMessageQuery+" WHERE id = $1", id).Scan(
		&row.ID,
		&row.ConversationID,
		&row.SenderType,
		&row.DeviceType,
		&row.Content,
		&row.DeliveryStatus,
		&row.ExternalMessageID,
		&row.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, message.ErrMessageNotFound
		}
		return nil, err
	}
	return toDomainMessage(&row)
}

func (r *PgMessageRepository) Create(ctx context.Context, msg message.Message) (message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := toDBMessage(msg)
	if _, err := tx.Exec(
		ctx,
		insertMessageQuery,
		row.ID,
		row.ConversationID,
		row.SenderType,
		row.DeviceType,
		row.Content,
		row.DeliveryStatus,
		row.ExternalMessageID,
		row.CreatedAt,
	); err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectMessageQuery+" WHERE conversation_id = $1 ORDER BY created_at", conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []message.Message
	for rows.Next() {
		var row models.Message
		if err := rows.Scan(
			&row.ID,
			&row.ConversationID,
			&row.SenderType,
			&row.DeviceType,
			&row.Content,
			&row.DeliveryStatus,
			&row.ExternalMessageID,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		msg, err := toDomainMessage(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *PgMessageRepository) UpdateDelivery(ctx context.Context, id uuid.UUID, status message.DeliveryStatus, externalMessageID string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var extID any
	if externalMessageID != "" {
		extID = externalMessageID
	}
	tag, err := tx.Exec(ctx, updateMessageDeliveryQuery, id, string(status), extID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return message.ErrMessageNotFound
	}
	return nil
}
