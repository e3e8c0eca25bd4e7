package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence/models"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
)

const (
	selectAttachmentQuery = `
		SELECT id, message_id, file_name, mime_type, size,
		       storage_path, signed_url, transcription, created_at
		FROM attachments`

	insertAttachmentQuery = `
		INSERT INTO attachments (
			id, message_id, file_name, mime_type, size,
			storage_path, signed_url, transcription, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateAttachmentTranscriptionQuery = `
		UPDATE attachments
		SET transcription = $2
		WHERE id = $1`
)

type PgAttachmentRepository struct{}

func NewAttachmentRepository() attachment.Repository {
	return &PgAttachmentRepository{}
}

func (r *PgAttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	return r.getOne(ctx, " WHERE id = $1", id)
}

func (r *PgAttachmentRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (attachment.Attachment, error) {
	return r.getOne(ctx, " WHERE message_id = $1", messageID)
}

func (r *PgAttachmentRepository) getOne(ctx context.Context, where string, arg any) (attachment.Attachment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Attachment
	if err := tx.QueryRow(ctx, selectAttachmentQuery+where, arg).Scan(
		&row.ID,
		&row.MessageID,
		&row.FileName,
		&row.MimeType,
		&row.Size,
		&row.StoragePath,
		&row.SignedURL,
		&row.Transcription,
		&row.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, attachment.ErrAttachmentNotFound
		}
		return nil, err
	}
	return toDomainAttachment(&row)
}

func (r *PgAttachmentRepository) Create(ctx context.Context, att attachment.Attachment) (attachment.Attachment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := toDBAttachment(att)
	if _, err := tx.Exec(
		ctx,
		insertAttachmentQuery,
		row.ID,
		row.MessageID,
		row.FileName,
		row.MimeType,
		row.Size,
		row.StoragePath,
		row.SignedURL,
		row.Transcription,
		row.CreatedAt,
	); err != nil {
		return nil, err
	}
	return att, nil
}

func (r *PgAttachmentRepository) UpdateTranscription(ctx context.Context, id uuid.UUID, transcription string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, updateAttachmentTranscriptionQuery, id, transcription)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return attachment.ErrAttachmentNotFound
	}
	return nil
}
