package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/lib/pq"

	"lotellar/internal/lottery/models"
	"lotellar/internal/lottery/service"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/sentinel"
)

// registryLockKey is the pg_advisory_xact_lock key held by every registry transaction.
const registryLockKey int64 = 0x4c4f5454 // "LOTT"

const (
	defaultTxTimeout       = 5 * time.Second
	defaultPostgresRetries = 8
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore maps the registry onto two tables: the singleton
// lottery_counter row and one lotteries row per lottery. A registry exists
// once the counter row does.
type PostgresStore struct {
	db dbExecutor
	// bound, when set, replaces the caller's context so the transaction
	// timeout also bounds reads and writes made inside RunInTx.
	bound context.Context
}

// NewPostgres returns a store that runs statements directly on db. Use
// PostgresTx for operations that need all-or-nothing saves.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) txContext(ctx context.Context) context.Context {
	if s.bound != nil {
		return s.bound
	}
	return ctx
}

func (s *PostgresStore) Load(ctx context.Context) (*models.Registry, error) {
	ctx = s.txContext(ctx)
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT count FROM lottery_counter WHERE singleton`).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeError("load lottery counter", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, entry_fee, duration_seconds, max_participants, participants,
		       winner, winner_tx_hash, is_completed, created_at, creator
		FROM lotteries
		ORDER BY id
	`)
	if err != nil {
		return nil, storeError("load lotteries", err)
	}
	defer rows.Close()

	reg := models.NewRegistry()
	reg.Counter = models.ID(count)
	for rows.Next() {
		l, err := scanLottery(rows)
		if err != nil {
			return nil, err
		}
		reg.Lotteries[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate lotteries", err)
	}
	return reg, nil
}

func scanLottery(rows *sql.Rows) (*models.Lottery, error) {
	var (
		id           int64
		fee          string
		duration     string
		maxP         int64
		participants pq.StringArray
		winner       sql.NullString
		txHash       sql.NullString
		l            models.Lottery
		creator      string
	)
	if err := rows.Scan(&id, &l.Name, &fee, &duration, &maxP, &participants,
		&winner, &txHash, &l.IsCompleted, &l.CreatedAt, &creator); err != nil {
		return nil, fmt.Errorf("scan lottery: %w", err)
	}

	entryFee, ok := new(big.Int).SetString(fee, 10)
	if !ok {
		return nil, fmt.Errorf("lottery %d: malformed entry fee %q", id, fee)
	}
	dur, err := strconv.ParseUint(duration, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("lottery %d: malformed duration %q: %w", id, duration, err)
	}

	l.ID = models.ID(id)
	l.EntryFee = entryFee
	l.Duration = dur
	l.MaxParticipants = uint32(maxP)
	l.Participants = make([]models.Address, len(participants))
	for i, p := range participants {
		l.Participants[i] = models.Address(p)
	}
	if winner.Valid {
		w := models.Address(winner.String)
		l.Winner = &w
	}
	if txHash.Valid {
		h := txHash.String
		l.WinnerTxHash = &h
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.Creator = models.Address(creator)
	return &l, nil
}

// Save writes the counter, upserts every lottery and removes rows the
// registry no longer holds (a reset). It must run inside a transaction for
// the write to be all-or-nothing.
func (s *PostgresStore) Save(ctx context.Context, reg *models.Registry) error {
	ctx = s.txContext(ctx)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lottery_counter (singleton, count)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET
			count = EXCLUDED.count
	`, int64(reg.Counter))
	if err != nil {
		return storeError("save lottery counter", err)
	}

	ids := make([]int64, 0, len(reg.Lotteries))
	for id := range reg.Lotteries {
		ids = append(ids, int64(id))
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lotteries WHERE NOT (id = ANY($1))`, pq.Array(ids)); err != nil {
		return storeError("prune lotteries", err)
	}

	for _, l := range reg.List() {
		if err := s.upsert(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) upsert(ctx context.Context, l *models.Lottery) error {
	participants := make([]string, len(l.Participants))
	for i, p := range l.Participants {
		participants[i] = string(p)
	}
	var winner, txHash sql.NullString
	if l.Winner != nil {
		winner = sql.NullString{String: string(*l.Winner), Valid: true}
	}
	if l.WinnerTxHash != nil {
		txHash = sql.NullString{String: *l.WinnerTxHash, Valid: true}
	}

	query := `
		INSERT INTO lotteries (id, name, entry_fee, duration_seconds, max_participants, participants,
		                       winner, winner_tx_hash, is_completed, created_at, creator)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			participants = EXCLUDED.participants,
			winner = EXCLUDED.winner,
			winner_tx_hash = EXCLUDED.winner_tx_hash,
			is_completed = EXCLUDED.is_completed
	`
	_, err := s.db.ExecContext(ctx, query,
		int64(l.ID),
		l.Name,
		l.EntryFee.String(),
		strconv.FormatUint(l.Duration, 10),
		int64(l.MaxParticipants),
		pq.Array(participants),
		winner,
		txHash,
		l.IsCompleted,
		l.CreatedAt,
		string(l.Creator),
	)
	if err != nil {
		return storeError(fmt.Sprintf("save lottery %d", l.ID), err)
	}
	return nil
}

// PostgresTx runs each registry operation in a READ COMMITTED transaction
// whose first statement takes a transaction-scoped advisory lock. Every
// operation queues on that key, and because each later statement reads a
// fresh snapshot, a waiter sees the writes committed before it was granted
// the lock. Serialization failures and deadlocks are reported as
// sentinel.ErrConflict from any statement and the operation is rerun.
type PostgresTx struct {
	db         *sql.DB
	timeout    time.Duration
	maxRetries int
}

type PostgresTxOption func(*PostgresTx)

// WithPostgresRetries bounds how many times a conflicting operation is rerun.
func WithPostgresRetries(n int) PostgresTxOption {
	return func(t *PostgresTx) {
		if n > 0 {
			t.maxRetries = n
		}
	}
}

func NewPostgresRegistryTx(db *sql.DB, timeout time.Duration, opts ...PostgresTxOption) *PostgresTx {
	t := &PostgresTx{db: db, timeout: timeout, maxRetries: defaultPostgresRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(store service.RegistryStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt < t.maxRetries; attempt++ {
		err = t.runOnce(ctx, fn)
		if !errors.Is(err, sentinel.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("registry update retried %d times: %w", t.maxRetries, err)
}

func (t *PostgresTx) runOnce(ctx context.Context, fn func(store service.RegistryStore) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return storeError("begin registry tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registryLockKey); err != nil {
		return storeError("acquire registry lock", err)
	}

	if err := fn(&PostgresStore{db: tx, bound: ctx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit registry tx", err)
	}
	return nil
}

// Ping checks database connectivity for health probes.
func (t *PostgresTx) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// storeError wraps err with op, marking serialization failures (40001) and
// deadlocks (40P01) as sentinel.ErrConflict so the operation can be rerun.
func storeError(op string, err error) error {
	if isRetryable(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
