package pausesetting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSettingNotFound = errors.New("pause setting not found")

type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
)

type Repository interface {
	GetByClinicID(ctx context.Context, clinicID uuid.UUID) (Setting, error)
	Save(ctx context.Context, setting Setting) (Setting, error)
}

type Setting interface {
	ID() uuid.UUID
	ClinicID() uuid.UUID
	Duration() int
	Unit() Unit

	// Window converts the configured duration into a concrete time.Duration.
	// Unknown units fall back to minutes; non-positive durations yield zero.
	Window() time.Duration
}

type setting struct {
	id       uuid.UUID
	clinicID uuid.UUID
	duration int
	unit     Unit
}

func New(clinicID uuid.UUID, duration int, unit Unit, opts ...Option) Setting {
	s := &setting{
		id:       uuid.New(),
		clinicID: clinicID,
		duration: duration,
		unit:     unit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*setting)

func WithID(id uuid.UUID) Option {
	return func(s *setting) {
		if id != uuid.Nil {
			s.id = id
		}
	}
}

func (s *setting) ID() uuid.UUID       { return s.id }
func (s *setting) ClinicID() uuid.UUID { return s.clinicID }
func (s *setting) Duration() int       { return s.duration }
func (s *setting) Unit() Unit          { return s.unit }

func (s *setting) Window() time.Duration {
	if s.duration <= 0 {
		return 0
	}
	switch s.unit {
	case UnitHours:
		return time.Duration(s.duration) * time.Hour
	case UnitDays:
		return time.Duration(s.duration) * 24 * time.Hour
	default:
		return time.Duration(s.duration) * time.Minute
	}
}
