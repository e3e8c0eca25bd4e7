package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence/models"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
)

const (
	selectPauseSettingQuery = `
		SELECT id, clinic_id, duration, unit
		FROM ai_pause_settings
		WHERE clinic_id = $1`

	upsertPauseSettingQuery = `
		INSERT INTO ai_pause_settings (id, clinic_id, duration, unit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (clinic_id)
		DO UPDATE SET duration = EXCLUDED.duration, unit = EXCLUDED.unit`
)

type PgPauseSettingRepository struct{}

func NewPauseSettingRepository() pausesetting.Repository {
	return &PgPauseSettingRepository{}
}

func (r *PgPauseSettingRepository) GetByClinicID(ctx context.Context, clinicID uuid.UUID) (pausesetting.Setting, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.PauseSetting
	if err := tx.QueryRow(ctx, selectPauseSettingQuery, clinicID).Scan(
		&row.ID,
		&row.ClinicID,
		&row.Duration,
		&row.Unit,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pausesetting.ErrSettingNotFound
		}
		return nil, err
	}
	return toDomainPauseSetting(&row)
}

func (r *PgPauseSettingRepository) Save(ctx context.Context, setting pausesetting.Setting) (pausesetting.Setting, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		upsertPauseSettingQuery,
		setting.ID().String(),
		setting.ClinicID().String(),
		setting.Duration(),
		string(setting.Unit()),
	); err != nil {
		return nil, err
	}
	return setting, nil
}
