package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the account does not exist.
var ErrNotFound = errors.New("account not found")

// ErrPlanNotFound indicates the plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// Repository persists accounts and plans.
type Repository interface {
	Create(ctx context.Context, account Account) error
	Get(ctx context.Context, id string) (Account, error)
	CreatePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListByPlan(ctx context.Context, planID string) ([]Account, error)
	AttachToPlan(ctx context.Context, accountID, planID string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return err
	}
	parameters, err := json.Marshal(account.Parameters)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, product_code, plan_id, parameters, created_at)
        VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5)`,
		accountID, account.ProductCode, account.PlanID, parameters, account.CreatedAt.UTC())
	return err
}

// Get fetches an account by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, product_code, COALESCE(plan_id::text, ''), parameters, created_at
        FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// CreatePlan inserts a new plan.
func (r *PostgresRepository) CreatePlan(ctx context.Context, plan Plan) error {
	planID, err := uuid.Parse(plan.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO plans (id, supervisor_code, created_at) VALUES ($1, $2, $3)`,
		planID, plan.SupervisorCode, plan.CreatedAt.UTC())
	return err
}

// GetPlan fetches a plan by id.
func (r *PostgresRepository) GetPlan(ctx context.Context, id string) (Plan, error) {
	planID, err := uuid.Parse(id)
	if err != nil {
		return Plan{}, ErrPlanNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, supervisor_code, created_at FROM plans WHERE id = $1`, planID)
	var (
		dbID      uuid.UUID
		createdAt time.Time
		plan      Plan
	)
	if err := row.Scan(&dbID, &plan.SupervisorCode, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, err
	}
	plan.ID = dbID.String()
	plan.CreatedAt = createdAt.UTC()
	return plan, nil
}

// ListByPlan fetches the accounts attached to a plan, oldest first.
func (r *PostgresRepository) ListByPlan(ctx context.Context, planID string) ([]Account, error) {
	id, err := uuid.Parse(planID)
	if err != nil {
		return nil, ErrPlanNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, product_code, COALESCE(plan_id::text, ''), parameters, created_at
        FROM accounts WHERE plan_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

// AttachToPlan binds an existing account to a plan.
func (r *PostgresRepository) AttachToPlan(ctx context.Context, accountID, planID string) error {
	aID, err := uuid.Parse(accountID)
	if err != nil {
		return ErrNotFound
	}
	pID, err := uuid.Parse(planID)
	if err != nil {
		return ErrPlanNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET plan_id = $1 WHERE id = $2`, pID, aID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		dbID       uuid.UUID
		createdAt  time.Time
		parameters []byte
		account    Account
	)
	if err := row.Scan(&dbID, &account.ProductCode, &account.PlanID, &parameters, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	if len(parameters) > 0 {
		if err := json.Unmarshal(parameters, &account.Parameters); err != nil {
			return Account{}, err
		}
	}
	account.ID = dbID.String()
	account.CreatedAt = createdAt.UTC()
	return account, nil
}
