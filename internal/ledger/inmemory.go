package ledger

import (
	"context"
	"sync"
	"time"
)

type committedBatch struct {
	batch Batch
	seq   int
}

type inMemoryJournal struct {
	mu       sync.RWMutex
	sides    map[string]Tside
	batches  []committedBatch
	batchIDs map[string]struct{}
	txIDs    map[string]struct{}
	seq      int
}

// NewInMemoryJournal creates a concurrency-safe in-memory journal for tests
// and dev mode.
func NewInMemoryJournal() Journal {
	return &inMemoryJournal{
		sides:    make(map[string]Tside),
		batchIDs: make(map[string]struct{}),
		txIDs:    make(map[string]struct{}),
	}
}

func (j *inMemoryJournal) EnsureAccount(_ context.Context, accountID string, tside Tside) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.sides[accountID]; !exists {
		j.sides[accountID] = tside
	}
	return nil
}

func (j *inMemoryJournal) Commit(_ context.Context, batch Batch) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if batch.ID != "" {
		if _, exists := j.batchIDs[batch.ID]; exists {
			return ErrDuplicateBatch
		}
	}
	for _, in := range batch.Instructions {
		if in.ClientTransactionID != "" {
			if _, exists := j.txIDs[in.ClientTransactionID]; exists {
				return ErrDuplicateBatch
			}
		}
		if err := in.Validate(); err != nil {
			return err
		}
		for _, p := range in.Postings {
			if _, known := j.sides[p.AccountID]; !known {
				return ErrUnknownAccount
			}
		}
	}

	j.seq++
	j.batches = append(j.batches, committedBatch{batch: batch, seq: j.seq})
	if batch.ID != "" {
		j.batchIDs[batch.ID] = struct{}{}
	}
	for _, in := range batch.Instructions {
		if in.ClientTransactionID != "" {
			j.txIDs[in.ClientTransactionID] = struct{}{}
		}
	}
	return nil
}

func (j *inMemoryJournal) SnapshotAt(_ context.Context, accountID string, t time.Time) (Snapshot, error) {
	return j.snapshot(accountID, func(valueTime time.Time) bool { return !valueTime.After(t) })
}

func (j *inMemoryJournal) SnapshotBefore(_ context.Context, accountID string, t time.Time) (Snapshot, error) {
	return j.snapshot(accountID, func(valueTime time.Time) bool { return valueTime.Before(t) })
}

func (j *inMemoryJournal) SnapshotLatest(_ context.Context, accountID string) (Snapshot, error) {
	return j.snapshot(accountID, func(time.Time) bool { return true })
}

func (j *inMemoryJournal) snapshot(accountID string, include func(time.Time) bool) (Snapshot, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	tside, known := j.sides[accountID]
	if !known {
		return nil, ErrUnknownAccount
	}

	snap := make(Snapshot)
	for _, cb := range j.batches {
		if !include(cb.batch.ValueTime) {
			continue
		}
		for _, in := range cb.batch.Instructions {
			for _, p := range in.Postings {
				if p.AccountID != accountID {
					continue
				}
				snap.add(p.Coordinate(), tside.Sign(p.Credit).Mul(p.Amount))
			}
		}
	}
	return snap, nil
}

func (j *inMemoryJournal) InstructionsBetween(_ context.Context, accountID string, from, to time.Time) ([]Instruction, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if _, known := j.sides[accountID]; !known {
		return nil, ErrUnknownAccount
	}

	var out []Instruction
	for _, cb := range j.batches {
		vt := cb.batch.ValueTime
		if !vt.After(from) || vt.After(to) {
			continue
		}
		for _, in := range cb.batch.Instructions {
			if touchesAccount(in, accountID) {
				out = append(out, in)
			}
		}
	}
	return out, nil
}

func touchesAccount(in Instruction, accountID string) bool {
	for _, p := range in.Postings {
		if p.AccountID == accountID {
			return true
		}
	}
	return false
}
