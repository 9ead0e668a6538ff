package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
	"github.com/atlas-bank/atlas_core/internal/product"
	"github.com/atlas-bank/atlas_core/internal/schedule"
)

// Scheduler registers the timers a contract declares. The concrete
// implementation lives in internal/scheduler.
type Scheduler interface {
	Register(accountID string, events []contract.ScheduledEvent)
	RegisterPlan(planID string, events []contract.ScheduledEvent)
}

// Service manages account lifecycle and is the host adapter contracts are
// invoked through.
type Service struct {
	repo      Repository
	journal   ledger.Journal
	scheduler Scheduler
	logger    *slog.Logger
}

// NewService creates a new account service.
func NewService(repo Repository, journal ledger.Journal, scheduler Scheduler, logger *slog.Logger) *Service {
	return &Service{repo: repo, journal: journal, scheduler: scheduler, logger: logger}
}

// Open creates an account on the named product, runs the product's
// activation hook, commits the proposed batches and registers the declared
// schedules.
func (s *Service) Open(ctx context.Context, productCode string, parameters map[string]string) (Account, error) {
	c, err := product.Lookup(productCode)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		ID:          uuid.New().String(),
		ProductCode: productCode,
		CreatedAt:   time.Now().UTC(),
		Parameters:  parameters,
	}
	if err := s.journal.EnsureAccount(ctx, account.ID, c.Tside()); err != nil {
		return Account{}, err
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}

	ec := s.buildContext(c, account, account.CreatedAt, fmt.Sprintf("%s_ACTIVATE", account.ID))
	result, err := c.Activate(ctx, ec)
	if err != nil {
		return Account{}, fmt.Errorf("activate %s: %w", productCode, err)
	}
	if err := s.CommitBatches(ctx, result.Batches); err != nil {
		return Account{}, err
	}
	if s.scheduler != nil {
		s.scheduler.Register(account.ID, result.Schedules)
	}

	s.logger.Info("account opened", "account_id", account.ID, "product", productCode)
	return account, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Balances returns the live balance snapshot of the account.
func (s *Service) Balances(ctx context.Context, id string) (ledger.Snapshot, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.journal.SnapshotLatest(ctx, id)
}

// Derived evaluates the product's derived values for the account.
func (s *Service) Derived(ctx context.Context, id string) (map[string]decimal.Decimal, error) {
	ec, c, err := s.ContextFor(ctx, id, time.Now().UTC(), fmt.Sprintf("%s_DERIVED", id))
	if err != nil {
		return nil, err
	}
	return c.DerivedValues(ctx, ec)
}

// Parameters returns the current value of every non-derived parameter the
// product declares for the account.
func (s *Service) Parameters(ctx context.Context, id string) (map[string]string, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := product.Lookup(account.ProductCode)
	if err != nil {
		return nil, err
	}
	store := s.paramStore(c, account)
	out := make(map[string]string)
	for _, def := range c.Parameters() {
		if def.Derived {
			continue
		}
		v, err := store.Latest(ctx, def.Name)
		if err != nil {
			if errors.Is(err, params.ErrMissingParameter) {
				continue
			}
			return nil, err
		}
		out[def.Name] = v
	}
	return out, nil
}

// CreatePlan creates a supervisor plan and registers its plan-level timers.
func (s *Service) CreatePlan(ctx context.Context, supervisorCode string) (Plan, error) {
	if _, err := product.LookupSupervisor(supervisorCode); err != nil {
		return Plan{}, err
	}
	plan := Plan{
		ID:             uuid.New().String(),
		SupervisorCode: supervisorCode,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return Plan{}, err
	}
	if s.scheduler != nil {
		s.scheduler.RegisterPlan(plan.ID, []contract.ScheduledEvent{
			{Kind: contract.EventMonthlyFee, Expression: schedule.NextMonthly(plan.CreatedAt)},
		})
	}
	s.logger.Info("plan created", "plan_id", plan.ID, "supervisor", supervisorCode)
	return plan, nil
}

// AttachToPlan binds an account to a plan.
func (s *Service) AttachToPlan(ctx context.Context, planID, accountID string) error {
	if _, err := s.repo.GetPlan(ctx, planID); err != nil {
		return err
	}
	if err := s.repo.AttachToPlan(ctx, accountID, planID); err != nil {
		return err
	}
	s.logger.Info("account attached to plan", "plan_id", planID, "account_id", accountID)
	return nil
}

// ContextFor builds the evaluation context for one hook invocation against
// the account, plus the product contract to invoke.
func (s *Service) ContextFor(ctx context.Context, accountID string, effective time.Time, executionID string) (*contract.Context, contract.Contract, error) {
	account, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	c, err := product.Lookup(account.ProductCode)
	if err != nil {
		return nil, nil, err
	}
	return s.buildContext(c, account, effective, executionID), c, nil
}

// Siblings returns the read-only sibling views of every account on the plan,
// oldest first.
func (s *Service) Siblings(ctx context.Context, planID string) ([]contract.Sibling, error) {
	members, err := s.repo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	siblings := make([]contract.Sibling, 0, len(members))
	for _, member := range members {
		c, err := product.Lookup(member.ProductCode)
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, contract.Sibling{
			AccountID: member.ID,
			CreatedAt: member.CreatedAt,
			Params:    s.paramStore(c, member),
			Balances:  contract.NewJournalBalances(s.journal, member.ID),
			History:   contract.NewJournalHistory(s.journal, member.ID),
		})
	}
	return siblings, nil
}

// PlanSupervisor resolves the supervisor contract governing the plan.
func (s *Service) PlanSupervisor(ctx context.Context, planID string) (contract.Supervisor, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return product.LookupSupervisor(plan.SupervisorCode)
}

// CommitBatches ensures every account a batch touches exists in the journal
// and commits the batches. Redelivered batches are absorbed silently.
func (s *Service) CommitBatches(ctx context.Context, batches []ledger.Batch) error {
	for _, batch := range batches {
		for _, instruction := range batch.Instructions {
			for _, posting := range instruction.Postings {
				if err := s.journal.EnsureAccount(ctx, posting.AccountID, ledger.TsideLiability); err != nil {
					return err
				}
			}
		}
		if err := s.journal.Commit(ctx, batch); err != nil {
			if errors.Is(err, ledger.ErrDuplicateBatch) {
				s.logger.Warn("duplicate batch skipped", "batch_id", batch.ID)
				continue
			}
			return err
		}
	}
	return nil
}

// paramStore seeds a parameter store with the product's template defaults
// overlaid by the account's instance values, all effective from creation.
func (s *Service) paramStore(c contract.Contract, account Account) *params.MemoryStore {
	store := params.NewMemoryStore()
	for _, def := range c.Parameters() {
		if def.Derived || def.Default == "" {
			continue
		}
		store.Set(def.Name, def.Default, account.CreatedAt)
	}
	store.SetAll(account.Parameters, account.CreatedAt)
	return store
}

func (s *Service) buildContext(c contract.Contract, account Account, effective time.Time, executionID string) *contract.Context {
	return &contract.Context{
		AccountID:     account.ID,
		CreatedAt:     account.CreatedAt,
		EffectiveTime: effective,
		ExecutionID:   executionID,
		Params:        s.paramStore(c, account),
		Balances:      contract.NewJournalBalances(s.journal, account.ID),
		History:       contract.NewJournalHistory(s.journal, account.ID),
	}
}
