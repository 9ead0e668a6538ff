// Package scheduler holds the registered contract timers and fires the due
// ones on demand. Each firing is reserved in Redis first so a redelivered or
// concurrently triggered run cannot execute the same event twice.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/notification"
)

const reservationPrefix = "schedexec:v1:"

// Host is the account-side adapter the scheduler invokes contracts through.
type Host interface {
	ContextFor(ctx context.Context, accountID string, effective time.Time, executionID string) (*contract.Context, contract.Contract, error)
	Siblings(ctx context.Context, planID string) ([]contract.Sibling, error)
	PlanSupervisor(ctx context.Context, planID string) (contract.Supervisor, error)
	CommitBatches(ctx context.Context, batches []ledger.Batch) error
}

// Entry is one registered timer. Exactly one of AccountID and PlanID is set.
type Entry struct {
	AccountID string
	PlanID    string
	Kind      contract.EventKind
	NextFire  time.Time
}

func (e *Entry) owner() string {
	if e.PlanID != "" {
		return e.PlanID
	}
	return e.AccountID
}

// Service is the in-process schedule registry and runner.
type Service struct {
	mu      sync.Mutex
	entries []*Entry
	lastRun map[string]time.Time

	host     Host
	cache    *redis.Client
	lockTTL  time.Duration
	notifier notification.Notifier
	logger   *slog.Logger
}

// New creates a scheduler. A nil cache disables execution reservations,
// which is acceptable for single-process development runs.
func New(cache *redis.Client, lockTTL time.Duration, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		lastRun:  make(map[string]time.Time),
		cache:    cache,
		lockTTL:  lockTTL,
		notifier: notifier,
		logger:   logger,
	}
}

// Bind attaches the host adapter. Called once during wiring; the host itself
// needs the scheduler to register activation timers, so construction is
// split.
func (s *Service) Bind(host Host) {
	s.host = host
}

// Register upserts account-level timers.
func (s *Service) Register(accountID string, events []contract.ScheduledEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.upsertLocked(Entry{AccountID: accountID, Kind: event.Kind, NextFire: event.Expression.Time()})
	}
}

// RegisterPlan upserts plan-level timers.
func (s *Service) RegisterPlan(planID string, events []contract.ScheduledEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.upsertLocked(Entry{PlanID: planID, Kind: event.Kind, NextFire: event.Expression.Time()})
	}
}

// Entries returns a snapshot of the registered timers, soonest first.
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextFire.Before(out[j].NextFire) })
	return out
}

// RunDue fires every timer due at or before now, oldest first, and applies
// the schedule updates the contracts return. Catch-up is inherent: a timer
// that reschedules itself still in the past fires again within the same run.
func (s *Service) RunDue(ctx context.Context, now time.Time) (int, error) {
	fired := 0
	skipped := make(map[*Entry]bool)
	for {
		entry := s.nextDue(now, skipped)
		if entry == nil {
			return fired, nil
		}

		executionID := fmt.Sprintf("%s_%s_%d", entry.owner(), entry.Kind, entry.NextFire.Unix())
		reserved, err := s.reserve(ctx, executionID)
		if err != nil {
			return fired, err
		}
		if !reserved {
			// Another runner already executed this firing. Re-invoke the
			// hook without committing so the entry still advances to its
			// next firing instead of staying due forever.
			s.logger.Info("schedule execution already reserved", "execution_id", executionID)
			prev := entry.NextFire
			if err := s.fire(ctx, entry, executionID, false); err != nil {
				return fired, fmt.Errorf("advance %s: %w", executionID, err)
			}
			if entry.NextFire.Equal(prev) {
				skipped[entry] = true
			}
			continue
		}

		if err := s.fire(ctx, entry, executionID, true); err != nil {
			return fired, fmt.Errorf("fire %s: %w", executionID, err)
		}
		fired++
	}
}

// fire invokes the hook for one due entry and applies the schedule updates it
// returns. Hooks only read the ledger and return batches, so a run with
// commit false recomputes the reschedule without posting anything.
func (s *Service) fire(ctx context.Context, entry *Entry, executionID string, commit bool) error {
	effective := entry.NextFire

	var result *contract.EventResult
	if entry.PlanID != "" {
		siblings, err := s.host.Siblings(ctx, entry.PlanID)
		if err != nil {
			return err
		}
		supervisor, err := s.host.PlanSupervisor(ctx, entry.PlanID)
		if err != nil {
			return err
		}
		result, err = supervisor.HandleEvent(ctx, effective, siblings, entry.Kind)
		if err != nil {
			return err
		}
	} else {
		ec, c, err := s.host.ContextFor(ctx, entry.AccountID, effective, executionID)
		if err != nil {
			return err
		}
		ec.LastExecuted = s.lastExecuted(entry.AccountID)
		result, err = c.HandleEvent(ctx, ec, entry.Kind)
		if err != nil {
			return err
		}
	}

	if commit {
		if err := s.host.CommitBatches(ctx, result.Batches); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.lastRun[entry.owner()+"|"+string(entry.Kind)] = effective
	advanced := false
	for _, event := range result.Schedules {
		if event.Kind == entry.Kind {
			entry.NextFire = event.Expression.Time()
			advanced = true
			continue
		}
		s.upsertLocked(Entry{AccountID: entry.AccountID, PlanID: entry.PlanID, Kind: event.Kind, NextFire: event.Expression.Time()})
	}
	if !advanced {
		s.removeLocked(entry)
	}
	s.mu.Unlock()

	if commit {
		s.logger.Info("schedule fired", "execution_id", executionID, "kind", string(entry.Kind), "batches", len(result.Batches))
		if s.notifier != nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:      notification.KindScheduleFired,
				AccountID: entry.owner(),
				Body:      executionID,
			})
		}
	}
	return nil
}

// reserve claims the execution in Redis. Without a cache every execution is
// treated as unclaimed.
func (s *Service) reserve(ctx context.Context, executionID string) (bool, error) {
	if s.cache == nil {
		return true, nil
	}
	return s.cache.SetNX(ctx, reservationPrefix+executionID, "1", s.lockTTL).Result()
}

func (s *Service) lastExecuted(accountID string) func(contract.EventKind) (time.Time, bool) {
	return func(kind contract.EventKind) (time.Time, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		t, ok := s.lastRun[accountID+"|"+string(kind)]
		return t, ok
	}
}

func (s *Service) nextDue(now time.Time, skipped map[*Entry]bool) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due *Entry
	for _, entry := range s.entries {
		if skipped[entry] || entry.NextFire.After(now) {
			continue
		}
		if due == nil || entry.NextFire.Before(due.NextFire) {
			due = entry
		}
	}
	return due
}

func (s *Service) upsertLocked(entry Entry) {
	for _, existing := range s.entries {
		if existing.owner() == entry.owner() && existing.Kind == entry.Kind {
			existing.NextFire = entry.NextFire
			return
		}
	}
	s.entries = append(s.entries, &entry)
}

func (s *Service) removeLocked(entry *Entry) {
	for i, existing := range s.entries {
		if existing == entry {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}
