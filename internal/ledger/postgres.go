package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresJournal persists posting batches in PostgreSQL. A batch is written
// in a single transaction so every leg commits or none do.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// EnsureAccount registers the account and its accounting side.
func (j *PostgresJournal) EnsureAccount(ctx context.Context, accountID string, tside Tside) error {
	_, err := j.db.Exec(ctx, `INSERT INTO journal_accounts (account_id, tside) VALUES ($1, $2)
        ON CONFLICT (account_id) DO NOTHING`, accountID, string(tside))
	return err
}

// Commit writes the batch atomically, rejecting replays of known batch or
// client transaction ids with ErrDuplicateBatch.
func (j *PostgresJournal) Commit(ctx context.Context, batch Batch) error {
	for _, in := range batch.Instructions {
		if err := in.Validate(); err != nil {
			return err
		}
	}

	tx, err := j.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if batch.ID != "" {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journal_batches WHERE client_batch_id = $1)`, batch.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBatch
		}
	}
	for _, in := range batch.Instructions {
		if in.ClientTransactionID == "" {
			continue
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journal_instructions WHERE client_tx_id = $1)`, in.ClientTransactionID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBatch
		}
	}

	batchID := uuid.New()
	var clientBatchID *string
	if batch.ID != "" {
		clientBatchID = &batch.ID
	}
	if _, err := tx.Exec(ctx, `INSERT INTO journal_batches (id, client_batch_id, value_time) VALUES ($1, $2, $3)`,
		batchID, clientBatchID, batch.ValueTime.UTC()); err != nil {
		return err
	}

	for idx, in := range batch.Instructions {
		details, err := json.Marshal(in.Details)
		if err != nil {
			return fmt.Errorf("encode instruction details: %w", err)
		}
		var clientTxID *string
		if in.ClientTransactionID != "" {
			id := in.ClientTransactionID
			clientTxID = &id
		}
		if _, err := tx.Exec(ctx, `INSERT INTO journal_instructions (batch_id, idx, client_tx_id, details)
            VALUES ($1, $2, $3, $4)`, batchID, idx, clientTxID, details); err != nil {
			return err
		}
		for _, p := range in.Postings {
			var known bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journal_accounts WHERE account_id = $1)`, p.AccountID).Scan(&known); err != nil {
				return err
			}
			if !known {
				return fmt.Errorf("%w: %s", ErrUnknownAccount, p.AccountID)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO journal_postings
                (id, batch_id, idx, credit, amount, denomination, account_id, address, asset, phase)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				uuid.New(), batchID, idx, p.Credit, p.Amount.String(), p.Denomination,
				p.AccountID, p.AccountAddress, p.Asset, string(p.Phase)); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// SnapshotAt returns net balances from activity up to and including t.
func (j *PostgresJournal) SnapshotAt(ctx context.Context, accountID string, t time.Time) (Snapshot, error) {
	return j.snapshot(ctx, accountID, `AND b.value_time <= $2`, t)
}

// SnapshotBefore returns net balances from activity strictly before t.
func (j *PostgresJournal) SnapshotBefore(ctx context.Context, accountID string, t time.Time) (Snapshot, error) {
	return j.snapshot(ctx, accountID, `AND b.value_time < $2`, t)
}

// SnapshotLatest returns the live balance view.
func (j *PostgresJournal) SnapshotLatest(ctx context.Context, accountID string) (Snapshot, error) {
	return j.snapshot(ctx, accountID, ``, time.Time{})
}

func (j *PostgresJournal) snapshot(ctx context.Context, accountID, timeClause string, t time.Time) (Snapshot, error) {
	tside, err := j.tsideFor(ctx, accountID)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
        SELECT p.address, p.asset, p.denomination, p.phase,
               COALESCE(SUM(CASE WHEN p.credit THEN p.amount ELSE -p.amount END), 0)::text
        FROM journal_postings p
        INNER JOIN journal_batches b ON b.id = p.batch_id
        WHERE p.account_id = $1 %s
        GROUP BY p.address, p.asset, p.denomination, p.phase`, timeClause)

	var rows pgx.Rows
	if timeClause == "" {
		rows, err = j.db.Query(ctx, query, accountID)
	} else {
		rows, err = j.db.Query(ctx, query, accountID, t.UTC())
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var coord Coordinate
		var phase, creditNet string
		if err := rows.Scan(&coord.Address, &coord.Asset, &coord.Denomination, &phase, &creditNet); err != nil {
			return nil, err
		}
		coord.Phase = Phase(phase)
		net, err := decimal.NewFromString(creditNet)
		if err != nil {
			return nil, fmt.Errorf("parse net balance: %w", err)
		}
		if tside == TsideAsset {
			net = net.Neg()
		}
		snap[coord] = net
	}
	return snap, rows.Err()
}

// InstructionsBetween returns instructions touching the account with value
// time in (from, to], oldest first.
func (j *PostgresJournal) InstructionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]Instruction, error) {
	if _, err := j.tsideFor(ctx, accountID); err != nil {
		return nil, err
	}

	const query = `
        SELECT p.batch_id, p.idx, i.client_tx_id, i.details,
               p.credit, p.amount::text, p.denomination, p.account_id, p.address, p.asset, p.phase
        FROM journal_postings p
        INNER JOIN journal_batches b ON b.id = p.batch_id
        INNER JOIN journal_instructions i ON i.batch_id = p.batch_id AND i.idx = p.idx
        WHERE b.value_time > $2 AND b.value_time <= $3
          AND p.batch_id IN (
              SELECT DISTINCT batch_id FROM journal_postings WHERE account_id = $1
          )
        ORDER BY b.value_time, p.batch_id, p.idx, p.id`

	rows, err := j.db.Query(ctx, query, accountID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type instructionKey struct {
		batchID uuid.UUID
		idx     int
	}
	var order []instructionKey
	grouped := make(map[instructionKey]*Instruction)

	for rows.Next() {
		var key instructionKey
		var clientTxID *string
		var details []byte
		var p Posting
		var amount, phase string
		if err := rows.Scan(&key.batchID, &key.idx, &clientTxID, &details,
			&p.Credit, &amount, &p.Denomination, &p.AccountID, &p.AccountAddress, &p.Asset, &phase); err != nil {
			return nil, err
		}
		p.Phase = Phase(phase)
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse posting amount: %w", err)
		}

		in, ok := grouped[key]
		if !ok {
			in = &Instruction{}
			if clientTxID != nil {
				in.ClientTransactionID = *clientTxID
			}
			if len(details) > 0 {
				if err := json.Unmarshal(details, &in.Details); err != nil {
					return nil, fmt.Errorf("decode instruction details: %w", err)
				}
			}
			grouped[key] = in
			order = append(order, key)
		}
		in.Postings = append(in.Postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	instructions := make([]Instruction, 0, len(order))
	for _, key := range order {
		if touchesAccount(*grouped[key], accountID) {
			instructions = append(instructions, *grouped[key])
		}
	}
	return instructions, nil
}

func (j *PostgresJournal) tsideFor(ctx context.Context, accountID string) (Tside, error) {
	var tside string
	if err := j.db.QueryRow(ctx, `SELECT tside FROM journal_accounts WHERE account_id = $1`, accountID).Scan(&tside); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
		}
		return "", err
	}
	return Tside(tside), nil
}
