package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-bank/atlas_core/internal/accounts"
	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/notification"
)

// Service validates and settles submitted postings.
type Service struct {
	accounts *accounts.Service
	journal  ledger.Journal
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService creates a transaction service.
func NewService(accountSvc *accounts.Service, journal ledger.Journal, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{accounts: accountSvc, journal: journal, notifier: notifier, logger: logger}
}

// Submit runs the full posting pipeline for one submission: build the
// instruction, gate it through the supervisor (when the account is on a
// plan) and the product's pre-posting hook, commit on acceptance, then run
// the post-posting reaction.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	account, err := s.accounts.Get(ctx, sub.AccountID)
	if err != nil {
		return Result{}, err
	}

	// The client transaction id keys the whole pipeline: the settlement
	// batch, and through the execution id every post-posting batch too, so a
	// redelivered submission replays into the same ledger rows.
	clientTxID := sub.ClientTransactionID
	if clientTxID == "" {
		clientTxID = uuid.New().String()
	}

	instruction, err := buildInstruction(sub, clientTxID)
	if err != nil {
		return Result{}, err
	}
	instructions := []ledger.Instruction{instruction}
	effective := time.Now().UTC()

	ec, c, err := s.accounts.ContextFor(ctx, sub.AccountID, effective, clientTxID)
	if err != nil {
		return Result{}, err
	}

	if account.PlanID != "" {
		siblings, err := s.accounts.Siblings(ctx, account.PlanID)
		if err != nil {
			return Result{}, err
		}
		supervisor, err := s.accounts.PlanSupervisor(ctx, account.PlanID)
		if err != nil {
			return Result{}, err
		}
		rejection, err := supervisor.PrePosting(ctx, siblings, instructions)
		if err != nil {
			return Result{}, err
		}
		if rejection != nil {
			return s.rejected(ctx, sub, rejection), nil
		}
	}

	rejection, err := c.PrePosting(ctx, ec, instructions)
	if err != nil {
		return Result{}, err
	}
	if rejection != nil {
		return s.rejected(ctx, sub, rejection), nil
	}

	batch := ledger.Batch{
		ID:           fmt.Sprintf("batch_%s", clientTxID),
		Instructions: instructions,
		ValueTime:    effective,
	}
	if err := s.commitBatch(ctx, batch); err != nil {
		if errors.Is(err, ledger.ErrDuplicateBatch) {
			// Replay of an already-settled submission. The original run
			// handled post-posting; re-running it would allocate twice.
			s.logger.Info("posting replayed",
				"account_id", sub.AccountID, "client_transaction_id", clientTxID, "batch_id", batch.ID)
			return Result{Accepted: true, BatchID: batch.ID}, nil
		}
		return Result{}, err
	}

	post, err := c.PostPosting(ctx, ec, instructions)
	if err != nil {
		return Result{}, err
	}
	if post != nil {
		if err := s.accounts.CommitBatches(ctx, post.Batches); err != nil {
			return Result{}, err
		}
	}

	s.logger.Info("posting committed",
		"account_id", sub.AccountID, "type", string(sub.Type), "amount", sub.Amount.String(), "batch_id", batch.ID)
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:      notification.KindPostingCommitted,
			AccountID: sub.AccountID,
			Body:      fmt.Sprintf("%s %s %s", sub.Type, sub.Amount.String(), sub.Denomination),
		})
	}
	return Result{Accepted: true, BatchID: batch.ID}, nil
}

func (s *Service) rejected(ctx context.Context, sub Submission, rejection *contract.Rejection) Result {
	s.logger.Info("posting rejected",
		"account_id", sub.AccountID, "reason", string(rejection.Reason), "message", rejection.Message)
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:      notification.KindPostingRejected,
			AccountID: sub.AccountID,
			Body:      rejection.Message,
		})
	}
	return Result{Rejection: rejection}
}

// commitBatch ensures every account the batch touches exists and commits it,
// surfacing duplicates so the caller can short-circuit a replay.
func (s *Service) commitBatch(ctx context.Context, batch ledger.Batch) error {
	for _, instruction := range batch.Instructions {
		for _, posting := range instruction.Postings {
			if err := s.journal.EnsureAccount(ctx, posting.AccountID, ledger.TsideLiability); err != nil {
				return err
			}
		}
	}
	return s.journal.Commit(ctx, batch)
}

// buildInstruction maps the submission onto a balanced instruction between
// the account and the suspense counterparty.
func buildInstruction(sub Submission, clientTxID string) (ledger.Instruction, error) {
	spec := ledger.TransferSpec{
		Amount:              sub.Amount,
		Denomination:        sub.Denomination,
		Phase:               sub.Type.phase(),
		ClientTransactionID: clientTxID,
		Details:             sub.Details,
	}
	if sub.Type.inbound() {
		spec.FromAccountID = SuspenseAccountID
		spec.FromAccountAddress = ledger.AddressDefault
		spec.ToAccountID = sub.AccountID
		spec.ToAccountAddress = ledger.AddressDefault
	} else {
		spec.FromAccountID = sub.AccountID
		spec.FromAccountAddress = ledger.AddressDefault
		spec.ToAccountID = SuspenseAccountID
		spec.ToAccountAddress = ledger.AddressDefault
	}
	return ledger.Transfer(spec)
}
