package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence/models"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
)

const (
	selectConversationQuery = `
		SELECT id, clinic_id, contact_id, contact_phone, agent_active,
		       pause_kind, pause_until, paused_by, created_at, updated_at
		FROM conversations`

	insertConversationQuery = `
		INSERT INTO conversations (
			id, clinic_id, contact_id, contact_phone, agent_active,
			pause_kind, pause_until, paused_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// A manual pause outranks everything: the update is a no-op unless the
	// agent is currently active and not under a manual pause.
	beginAutoPauseQuery = `
		UPDATE conversations
		SET agent_active = false,
		    pause_kind = 'auto',
		    pause_until = $2,
		    paused_by = $3,
		    updated_at = now()
		WHERE id = $1 AND agent_active = true AND pause_kind <> 'manual'`

	// Reactivation matches the exact deadline it observed, so a pause that
	// was replaced between the sweep's read and this write stays intact.
	reactivateExpiredQuery = `
		UPDATE conversations
		SET agent_active = true,
		    pause_kind = 'none',
		    pause_until = NULL,
		    paused_by = NULL,
		    updated_at = now()
		WHERE id = $1 AND pause_kind = 'auto' AND pause_until = $2`

	setManualPauseQuery = `
		UPDATE conversations
		SET agent_active = false,
		    pause_kind = 'manual',
		    pause_until = NULL,
		    paused_by = $2,
		    updated_at = now()
		WHERE id = $1 AND pause_kind <> 'manual'`

	clearPauseQuery = `
		UPDATE conversations
		SET agent_active = true,
		    pause_kind = 'none',
		    pause_until = NULL,
		    paused_by = NULL,
		    updated_at = now()
		WHERE id = $1 AND agent_active = false`

	findExpiredAutoPausedQuery = selectConversationQuery + `
		WHERE pause_kind = 'auto' AND pause_until <= $1
		ORDER BY pause_until
		LIMIT $2`
)

type PgConversationRepository struct{}

func NewConversationRepository() conversation.Repository {
	return &PgConversationRepository{}
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Conversation
	if err := tx.QueryRow(ctx, selectConversationQuery+" WHERE id = $1", id).Scan(
		&row.ID,
		&row.ClinicID,
		&row.ContactID,
		&row.ContactPhone,
		&row.AgentActive,
		&row.PauseKind,
		&row.PauseUntil,
		&row.PausedBy,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, conversation.ErrConversationNotFound
		}
		return nil, err
	}
	return toDomainConversation(&row)
}

func (r *PgConversationRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]conversation.Conversation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectConversationQuery+" WHERE clinic_id = $1 ORDER BY updated_at DESC", clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConversations(rows)
}

func (r *PgConversationRepository) Create(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := toDBConversation(conv)
	if _, err := tx.Exec(
		ctx,
		insertConversationQuery,
		row.ID,
		row.ClinicID,
		row.ContactID,
		row.ContactPhone,
		row.AgentActive,
		row.PauseKind,
		row.PauseUntil,
		row.PausedBy,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *PgConversationRepository) FindExpiredAutoPaused(ctx context.Context, now time.Time, limit int) ([]conversation.Conversation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, findExpiredAutoPausedQuery, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConversations(rows)
}

func (r *PgConversationRepository) BeginAutoPause(ctx context.Context, id uuid.UUID, until time.Time, pausedBy uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var by any
	if pausedBy != uuid.Nil {
		by = pausedBy
	}
	tag, err := tx.Exec(ctx, beginAutoPauseQuery, id, until, by)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgConversationRepository) ReactivateExpired(ctx context.Context, id uuid.UUID, until time.Time) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, reactivateExpiredQuery, id, until)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgConversationRepository) SetManualPause(ctx context.Context, id uuid.UUID, pausedBy uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var by any
	if pausedBy != uuid.Nil {
		by = pausedBy
	}
	tag, err := tx.Exec(ctx, setManualPauseQuery, id, by)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgConversationRepository) ClearPause(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, clearPauseQuery, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanConversations(rows pgx.Rows) ([]conversation.Conversation, error) {
	var results []conversation.Conversation
	for rows.Next() {
		var row models.Conversation
		if err := rows.Scan(
			&row.ID,
			&row.ClinicID,
			&row.ContactID,
			&row.ContactPhone,
			&row.AgentActive,
			&row.PauseKind,
			&row.PauseUntil,
			&row.PausedBy,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conv, err := toDomainConversation(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
