// Package reminder re-engages candidates who paused a questionnaire without
// finishing. Pending reminders are durable: each one is a row with a due
// time, re-armed on startup, so a process restart does not drop them. A
// periodic sweep additionally force-pauses interactions that went idle
// without an explicit cancel.
package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/screening"
)

const reminderText = "You have an unfinished questionnaire. Send /start to continue where you left off."

// Store is the persistence contract the scheduler consumes.
type Store interface {
	UpsertReminder(ctx context.Context, chatID int64, applicationID string, dueAt time.Time) error
	DeleteReminder(ctx context.Context, chatID int64) error
	PendingReminders(ctx context.Context) ([]screening.Reminder, error)
	InteractionByApplication(ctx context.Context, applicationID string) (*screening.Interaction, error)
	UpdateInteraction(ctx context.Context, id string, upd screening.InteractionUpdate) error
	ListIdleStarted(ctx context.Context, before time.Time) ([]screening.Interaction, error)
	CandidateByID(ctx context.Context, id string) (*screening.Candidate, error)
}

type Config struct {
	// Delay between pausing and the reminder firing.
	Delay time.Duration
	// SweepInterval is how often idle interactions are checked.
	SweepInterval time.Duration
	// InactivityThreshold is how long a started interaction may stay idle
	// before the sweep force-pauses it.
	InactivityThreshold time.Duration
}

const (
	defaultDelay         = 30 * time.Minute
	defaultSweepInterval = 15 * time.Minute
	defaultInactivity    = 30 * time.Minute
)

type Scheduler struct {
	store  Store
	sender chat.Sender
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func New(store Store, sender chat.Sender, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDelay
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = defaultInactivity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		store:  store,
		sender: sender,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		timers: make(map[int64]*time.Timer),
	}
}

// Schedule arms a reminder for the chat identity after the configured delay.
// Only one reminder stays live per identity: scheduling replaces both the
// durable row and the in-process timer.
func (s *Scheduler) Schedule(chatID int64, applicationID string) {
	dueAt := s.now().Add(s.cfg.Delay)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.UpsertReminder(ctx, chatID, applicationID, dueAt); err != nil {
		s.logger.Error("persist reminder", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	s.arm(chatID, applicationID, s.cfg.Delay)

	s.logger.Info("reminder scheduled",
		zap.Int64("chat_id", chatID),
		zap.String("application_id", applicationID),
		zap.Duration("delay", s.cfg.Delay),
	)
}

func (s *Scheduler) arm(chatID int64, applicationID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[chatID]; ok {
		prev.Stop()
	}
	s.timers[chatID] = time.AfterFunc(delay, func() {
		s.fire(chatID, applicationID)
	})
}

// fire delivers the reminder if the interaction is still paused. Racing a
// resume is safe: the state is re-read at fire time. The durable row is only
// removed once the reminder is moot or delivered, so a failed send survives a
// restart and fires again.
func (s *Scheduler) fire(chatID int64, applicationID string) {
	s.mu.Lock()
	delete(s.timers, chatID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	interaction, err := s.store.InteractionByApplication(ctx, applicationID)
	if err != nil {
		s.logger.Warn("reminder target gone",
			zap.Int64("chat_id", chatID),
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
		s.clearReminder(ctx, chatID)
		return
	}
	if interaction.State != screening.InteractionPaused {
		// The candidate came back on their own.
		s.clearReminder(ctx, chatID)
		return
	}

	if err := s.sender.Send(ctx, chatID, chat.Outgoing{Text: reminderText}); err != nil {
		s.logger.Error("send reminder", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	s.clearReminder(ctx, chatID)
	s.logger.Info("reminder sent",
		zap.Int64("chat_id", chatID),
		zap.String("application_id", applicationID),
	)
}

func (s *Scheduler) clearReminder(ctx context.Context, chatID int64) {
	if err := s.store.DeleteReminder(ctx, chatID); err != nil {
		s.logger.Error("delete reminder", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Run re-arms persisted reminders and sweeps for abandoned interactions
// until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.rearm(ctx)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// rearm reschedules reminders that survived a restart. Overdue ones fire
// immediately.
func (s *Scheduler) rearm(ctx context.Context) {
	pending, err := s.store.PendingReminders(ctx)
	if err != nil {
		s.logger.Error("load pending reminders", zap.Error(err))
		return
	}

	now := s.now()
	for _, r := range pending {
		delay := r.DueAt.Sub(now)
		if delay < 0 {
			delay = 0
		}
		s.arm(r.ChatID, r.ApplicationID, delay)
	}

	if len(pending) > 0 {
		s.logger.Info("re-armed persisted reminders", zap.Int("count", len(pending)))
	}
}

// Sweep force-pauses started interactions that went idle past the threshold
// and routes them through the regular reminder path.
func (s *Scheduler) Sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.InactivityThreshold)
	idle, err := s.store.ListIdleStarted(ctx, cutoff)
	if err != nil {
		s.logger.Error("list idle interactions", zap.Error(err))
		return
	}

	for _, interaction := range idle {
		state := screening.InteractionPaused
		upd := screening.InteractionUpdate{State: &state}
		if err := s.store.UpdateInteraction(ctx, interaction.ID, upd); err != nil {
			s.logger.Error("pause idle interaction",
				zap.String("interaction_id", interaction.ID),
				zap.Error(err),
			)
			continue
		}

		candidate, err := s.store.CandidateByID(ctx, interaction.CandidateID)
		if err != nil || candidate.ChatID == 0 {
			s.logger.Warn("idle interaction has no reachable candidate",
				zap.String("interaction_id", interaction.ID),
				zap.Error(err),
			)
			continue
		}

		s.Schedule(candidate.ChatID, interaction.ApplicationID)

		s.logger.Info("paused abandoned questionnaire",
			zap.String("interaction_id", interaction.ID),
			zap.Int64("chat_id", candidate.ChatID),
		)
	}
}

func (s *Scheduler) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chatID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, chatID)
	}
}
