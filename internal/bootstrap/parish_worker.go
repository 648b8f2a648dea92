package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"parish_server/config"
)

// Worker polls the mailbox on a fixed interval. Push notifications hit
// the API instead; the poll is the safety net for missed pushes.
type Worker struct {
	deps     *Dependencies
	interval time.Duration
	zlog     zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	return &Worker{
		deps:     deps,
		interval: cfg.Worker.PollInterval,
		zlog:     zlog,
	}, cleanup, nil
}

// Run processes immediately, then on every tick until ctx is canceled.
// The Gmail watch is renewed daily since Gmail expires it after a week.
func (w *Worker) Run(ctx context.Context) {
	w.zlog.Info().Dur("interval", w.interval).Msg("worker started")

	w.renewWatch(ctx)
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	watchTicker := time.NewTicker(24 * time.Hour)
	defer watchTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.zlog.Info().Msg("worker stopped")
			return
		case <-watchTicker.C:
			w.renewWatch(ctx)
			w.sendBookingRecap(ctx)
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) renewWatch(ctx context.Context) {
	if err := w.deps.Mail.RenewWatch(ctx); err != nil {
		w.zlog.Error().Err(err).Msg("watch renewal failed")
	}
}

// sendBookingRecap mails the secretary tomorrow's confirmed bookings.
func (w *Worker) sendBookingRecap(ctx context.Context) {
	recap, err := w.deps.Booking.DayBeforeRecap(ctx)
	if err != nil {
		w.zlog.Error().Err(err).Msg("booking recap failed")
		return
	}
	if recap == "" {
		return
	}
	to := w.deps.Config.Mail.ImpersonateEmail
	if err := w.deps.Mail.SendNotification(ctx, to, "Riepilogo prenotazioni di domani", recap); err != nil {
		w.zlog.Error().Err(err).Msg("booking recap send failed")
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	summary, err := w.deps.Orchestrator.ProcessNewMessages(ctx)
	if err != nil {
		w.zlog.Error().Err(err).Msg("batch run failed")
		return
	}
	w.zlog.Info().
		Str("status", summary.Status).
		Int("processed", summary.Processed).
		Int("replied", summary.Replied).
		Int("filtered", summary.Filtered).
		Int("validation_failed", summary.ValidationFailed).
		Int("errors", summary.Errors).
		Msg("batch run finished")
}
