package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
)

type ReaperOptions struct {
	Interval  time.Duration
	BatchSize int
}

func (o *ReaperOptions) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
}

// PauseReaper periodically hands conversations back to the agent once their
// automatic pause has expired. Safe to run in multiple processes at once:
// every reactivation re-checks the exact expiry it observed, so two sweeps
// racing each other, or a sweep racing a manual pause, cannot clobber state.
type PauseReaper struct {
	conversations conversation.Repository
	publisher     eventbus.EventBus
	log           *logrus.Entry
	opts          ReaperOptions
	m             *metrics
}

func NewPauseReaper(
	conversations conversation.Repository,
	publisher eventbus.EventBus,
	log *logrus.Entry,
	opts ReaperOptions,
) *PauseReaper {
	opts.setDefaults()
	return &PauseReaper{
		conversations: conversations,
		publisher:     publisher,
		log:           log.WithField("component", "pause_reaper"),
		opts:          opts,
		m:             getMetrics(),
	}
}

// Run blocks until ctx is cancelled.
func (r *PauseReaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := r.Tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.log.WithError(err).Warn("reactivation sweep failed")
		}
	}
}

// Tick performs one sweep. A failure on one conversation is logged and
// skipped; the row stays eligible and the next sweep retries it.
func (r *PauseReaper) Tick(ctx context.Context) error {
	now := time.Now()
	expired, err := r.conversations.FindExpiredAutoPaused(ctx, now, r.opts.BatchSize)
	if err != nil {
		return errors.Wrap(err, "find expired pauses")
	}
	r.m.reaperEligible.Set(float64(len(expired)))

	for _, conv := range expired {
		until, ok := conv.Pause().Until()
		if !ok {
			continue
		}

		reactivated, err := r.conversations.ReactivateExpired(ctx, conv.ID(), until)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.m.reaperTickErrorsTotal.Inc()
			r.log.WithError(err).WithField("conversation_id", conv.ID()).Warn("could not reactivate conversation")
			continue
		}
		if !reactivated {
			// Another actor changed the state first. Expected, not an error.
			continue
		}

		r.m.reactivatedTotal.Inc()
		r.publisher.Publish(conversation.ReactivatedEvent{
			ConversationID: conv.ID(),
			ExpiredAt:      until,
		})
	}
	return nil
}
