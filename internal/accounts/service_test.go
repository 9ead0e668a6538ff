package accounts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/logging"
	"github.com/atlas-bank/atlas_core/internal/product"
)

type recordingScheduler struct {
	accountEvents map[string][]contract.ScheduledEvent
	planEvents    map[string][]contract.ScheduledEvent
}

func newRecordingScheduler() *recordingScheduler {
	return &recordingScheduler{
		accountEvents: make(map[string][]contract.ScheduledEvent),
		planEvents:    make(map[string][]contract.ScheduledEvent),
	}
}

func (r *recordingScheduler) Register(accountID string, events []contract.ScheduledEvent) {
	r.accountEvents[accountID] = append(r.accountEvents[accountID], events...)
}

func (r *recordingScheduler) RegisterPlan(planID string, events []contract.ScheduledEvent) {
	r.planEvents[planID] = append(r.planEvents[planID], events...)
}

func depositParameters() map[string]string {
	return map[string]string{
		"denomination":                          "GBP",
		"maximum_balance_limit":                 "1000",
		"opening_bonus":                         "25",
		"deposit_bonus_payout_internal_account": "bank:bonus",
		"interest_rate":                         "0.05",
		"interest_paid_internal_account":        "bank:interest",
	}
}

func newTestService() (*Service, *recordingScheduler, ledger.Journal) {
	journal := ledger.NewInMemoryJournal()
	sched := newRecordingScheduler()
	svc := NewService(NewMemoryRepository(), journal, sched, logging.Discard())
	return svc, sched, journal
}

func TestOpenDepositPaysBonusAndRegistersSchedule(t *testing.T) {
	ctx := context.Background()
	svc, sched, journal := newTestService()

	account, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)
	require.Equal(t, "deposit", account.ProductCode)

	snapshot, err := journal.SnapshotLatest(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, snapshot.Total().Equal(decimal.RequireFromString("25")))

	events := sched.accountEvents[account.ID]
	require.Len(t, events, 1)
	require.Equal(t, contract.EventApplyInterest, events[0].Kind)
}

func TestOpenLoanDisbursesPrincipal(t *testing.T) {
	ctx := context.Background()
	svc, sched, journal := newTestService()

	deposit, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)

	loan, err := svc.Open(ctx, "personal_loan", map[string]string{
		"denomination":              "GBP",
		"loan_amount":               "3000",
		"deposit_account":           deposit.ID,
		"internal_account":          "bank:internal",
		"tier_ranges":               `{"tier1": {"min": 1000, "max": 2999}, "tier2": {"min": 3000, "max": 7499}}`,
		"gross_interest_rate_tiers": `{"tier1": "0.035", "tier2": "0.045"}`,
		"loan_term":                 "1",
	})
	require.NoError(t, err)

	depositSnapshot, err := journal.SnapshotLatest(ctx, deposit.ID)
	require.NoError(t, err)
	require.True(t, depositSnapshot.Total().Equal(decimal.RequireFromString("3025")))

	loanSnapshot, err := journal.SnapshotLatest(ctx, loan.ID)
	require.NoError(t, err)
	require.True(t, loanSnapshot.Total().Equal(decimal.RequireFromString("3000")))

	kinds := make(map[contract.EventKind]bool)
	for _, event := range sched.accountEvents[loan.ID] {
		kinds[event.Kind] = true
	}
	require.True(t, kinds[contract.EventAccrueInterest])
	require.True(t, kinds[contract.EventTransferDue])
	require.True(t, kinds[contract.EventApplyInterest])
}

func TestOpenUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Open(context.Background(), "mortgage", nil)
	require.ErrorIs(t, err, product.ErrUnknownProduct)
}

func TestDerivedAvailableDepositLimit(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	account, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)

	derived, err := svc.Derived(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, derived["available_deposit_limit"].Equal(decimal.RequireFromString("975")))
}

func TestParametersReturnsStoredValues(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	account, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)

	values, err := svc.Parameters(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "GBP", values["denomination"])
	require.Equal(t, "25", values["opening_bonus"])
	require.NotContains(t, values, "available_deposit_limit")
}

func TestPlanLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, sched, _ := newTestService()

	plan, err := svc.CreatePlan(ctx, "deposit_plan")
	require.NoError(t, err)

	planEvents := sched.planEvents[plan.ID]
	require.Len(t, planEvents, 1)
	require.Equal(t, contract.EventMonthlyFee, planEvents[0].Kind)

	first, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)
	second, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)

	require.NoError(t, svc.AttachToPlan(ctx, plan.ID, first.ID))
	require.NoError(t, svc.AttachToPlan(ctx, plan.ID, second.ID))

	siblings, err := svc.Siblings(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, siblings, 2)

	supervisor, err := svc.PlanSupervisor(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, "deposit_plan", supervisor.Code())
}

func TestCreatePlanUnknownSupervisor(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreatePlan(context.Background(), "savings_pool")
	require.ErrorIs(t, err, product.ErrUnknownProduct)
}

func TestAttachToMissingPlan(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	account, err := svc.Open(ctx, "deposit", depositParameters())
	require.NoError(t, err)
	require.ErrorIs(t, svc.AttachToPlan(ctx, "nope", account.ID), ErrPlanNotFound)
}
