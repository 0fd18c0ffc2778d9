package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/screening"
)

type fakeStore struct {
	mu           sync.Mutex
	reminders    map[int64]screening.Reminder
	interactions map[string]*screening.Interaction
	idle         []screening.Interaction
	candidates   map[string]*screening.Candidate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reminders:    map[int64]screening.Reminder{},
		interactions: map[string]*screening.Interaction{},
		candidates:   map[string]*screening.Candidate{},
	}
}

func (f *fakeStore) UpsertReminder(_ context.Context, chatID int64, applicationID string, dueAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[chatID] = screening.Reminder{ChatID: chatID, ApplicationID: applicationID, DueAt: dueAt}
	return nil
}

func (f *fakeStore) DeleteReminder(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reminders, chatID)
	return nil
}

func (f *fakeStore) PendingReminders(_ context.Context) ([]screening.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []screening.Reminder
	for _, r := range f.reminders {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) InteractionByApplication(_ context.Context, applicationID string) (*screening.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inter, ok := f.interactions[applicationID]
	if !ok {
		return nil, screening.ErrNotFound
	}
	copied := *inter
	return &copied, nil
}

func (f *fakeStore) UpdateInteraction(_ context.Context, id string, upd screening.InteractionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inter := range f.interactions {
		if inter.ID == id {
			if upd.State != nil {
				inter.State = *upd.State
			}
			return nil
		}
	}
	return screening.ErrNotFound
}

func (f *fakeStore) ListIdleStarted(_ context.Context, _ time.Time) ([]screening.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idle, nil
}

func (f *fakeStore) CandidateByID(_ context.Context, id string) (*screening.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cand, ok := f.candidates[id]
	if !ok {
		return nil, screening.ErrNotFound
	}
	return cand, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []int64
	err  error
}

func (r *recordingSender) Send(_ context.Context, chatID int64, _ chat.Outgoing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, chatID)
	return r.err
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recordingSender) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestReminderFiresForPausedInteraction(t *testing.T) {
	store := newFakeStore()
	store.interactions["app-1"] = &screening.Interaction{
		ID:            "inter-1",
		ApplicationID: "app-1",
		State:         screening.InteractionPaused,
	}
	sender := &recordingSender{}
	s := New(store, sender, Config{Delay: 10 * time.Millisecond}, zap.NewNop())

	s.Schedule(100, "app-1")

	waitFor(t, func() bool { return sender.count() == 1 })

	store.mu.Lock()
	_, stillPending := store.reminders[100]
	store.mu.Unlock()
	if stillPending {
		t.Fatalf("expected the durable reminder row to be removed after firing")
	}
}

func TestReminderSuppressedWhenResumed(t *testing.T) {
	store := newFakeStore()
	store.interactions["app-1"] = &screening.Interaction{
		ID:            "inter-1",
		ApplicationID: "app-1",
		State:         screening.InteractionStarted,
	}
	sender := &recordingSender{}
	s := New(store, sender, Config{Delay: 10 * time.Millisecond}, zap.NewNop())

	s.Schedule(100, "app-1")

	time.Sleep(50 * time.Millisecond)
	if sender.count() != 0 {
		t.Fatalf("expected no reminder for a resumed interaction, got %d", sender.count())
	}
}

func TestReminderKeptWhenSendFails(t *testing.T) {
	store := newFakeStore()
	store.interactions["app-1"] = &screening.Interaction{
		ID:            "inter-1",
		ApplicationID: "app-1",
		State:         screening.InteractionPaused,
	}
	sender := &recordingSender{err: errors.New("telegram unavailable")}
	s := New(store, sender, Config{Delay: 10 * time.Millisecond}, zap.NewNop())

	s.Schedule(100, "app-1")

	waitFor(t, func() bool { return sender.count() == 1 })

	store.mu.Lock()
	_, stillPending := store.reminders[100]
	store.mu.Unlock()
	if !stillPending {
		t.Fatalf("expected the durable row to survive a failed send")
	}

	// The surviving row is re-armed on the next startup and delivered once
	// the transport recovers.
	sender.setErr(nil)
	s.rearm(context.Background())

	waitFor(t, func() bool { return sender.count() == 2 })

	store.mu.Lock()
	_, stillPending = store.reminders[100]
	store.mu.Unlock()
	if stillPending {
		t.Fatalf("expected the row removed after successful delivery")
	}
}

func TestRescheduleReplacesTimer(t *testing.T) {
	store := newFakeStore()
	store.interactions["app-1"] = &screening.Interaction{
		ID:            "inter-1",
		ApplicationID: "app-1",
		State:         screening.InteractionPaused,
	}
	sender := &recordingSender{}
	s := New(store, sender, Config{Delay: 20 * time.Millisecond}, zap.NewNop())

	s.Schedule(100, "app-1")
	s.Schedule(100, "app-1")
	s.Schedule(100, "app-1")

	time.Sleep(100 * time.Millisecond)
	if got := sender.count(); got != 1 {
		t.Fatalf("expected exactly one reminder after rescheduling, got %d", got)
	}
}

func TestRearmOnStartup(t *testing.T) {
	store := newFakeStore()
	store.interactions["app-1"] = &screening.Interaction{
		ID:            "inter-1",
		ApplicationID: "app-1",
		State:         screening.InteractionPaused,
	}
	// A reminder that became due while the process was down.
	store.reminders[100] = screening.Reminder{
		ChatID:        100,
		ApplicationID: "app-1",
		DueAt:         time.Now().Add(-time.Minute),
	}

	sender := &recordingSender{}
	s := New(store, sender, Config{Delay: time.Hour, SweepInterval: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool { return sender.count() == 1 })
}

func TestSweepPausesIdleInteractions(t *testing.T) {
	store := newFakeStore()
	inter := &screening.Interaction{
		ID:            "inter-1",
		CandidateID:   "cand-1",
		ApplicationID: "app-1",
		State:         screening.InteractionStarted,
	}
	store.interactions["app-1"] = inter
	store.idle = []screening.Interaction{*inter}
	store.candidates["cand-1"] = &screening.Candidate{ID: "cand-1", ChatID: 100}

	sender := &recordingSender{}
	s := New(store, sender, Config{Delay: 10 * time.Millisecond}, zap.NewNop())

	s.Sweep(context.Background())

	store.mu.Lock()
	state := store.interactions["app-1"].State
	store.mu.Unlock()
	if state != screening.InteractionPaused {
		t.Fatalf("expected idle interaction paused, got %s", state)
	}

	waitFor(t, func() bool { return sender.count() == 1 })
}
