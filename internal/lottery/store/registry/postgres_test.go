package registry

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotellar/internal/lottery/models"
	"lotellar/internal/lottery/service"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/sentinel"
)

var lotteryColumns = []string{
	"id", "name", "entry_fee", "duration_seconds", "max_participants", "participants",
	"winner", "winner_tx_hash", "is_completed", "created_at", "creator",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPostgresLoadNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM lottery_counter`)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewPostgres(db).Load(context.Background())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadRows(t *testing.T) {
	db, mock := newMockDB(t)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM lottery_counter`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT id, name, entry_fee`).
		WillReturnRows(sqlmock.NewRows(lotteryColumns).
			AddRow(int64(1), "Daily", "100", "3600", int64(2), "{GP1,GP2}", "GP2", nil, true, createdAt, "GCREATOR").
			AddRow(int64(2), "Weekly", "-5", "18446744073709551615", int64(3), "{}", nil, nil, false, createdAt, "GCREATOR"))

	reg, err := NewPostgres(db).Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, models.ID(2), reg.Counter)
	require.Len(t, reg.Lotteries, 2)

	daily := reg.Lotteries[1]
	assert.Equal(t, "Daily", daily.Name)
	assert.Equal(t, int64(100), daily.EntryFee.Int64())
	assert.Equal(t, uint64(3600), daily.Duration)
	assert.Equal(t, []models.Address{"GP1", "GP2"}, daily.Participants)
	require.NotNil(t, daily.Winner)
	assert.Equal(t, models.Address("GP2"), *daily.Winner)
	assert.Nil(t, daily.WinnerTxHash)
	assert.True(t, daily.IsCompleted)

	weekly := reg.Lotteries[2]
	assert.Equal(t, int64(-5), weekly.EntryFee.Int64())
	assert.Equal(t, uint64(18446744073709551615), weekly.Duration)
	assert.Empty(t, weekly.Participants)
	assert.Nil(t, weekly.Winner)
}

func TestPostgresLoadMalformedFee(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM lottery_counter`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT id, name, entry_fee`).
		WillReturnRows(sqlmock.NewRows(lotteryColumns).
			AddRow(int64(1), "Daily", "1e3", "0", int64(2), "{}", nil, nil, false, time.Now(), "GCREATOR"))

	_, err := NewPostgres(db).Load(context.Background())
	require.Error(t, err)
}

func TestPostgresSave(t *testing.T) {
	db, mock := newMockDB(t)
	reg := newTestRegistry(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lottery_counter`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM lotteries WHERE NOT (id = ANY($1))`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lotteries`)).
		WithArgs(int64(1), "Daily", "100", "3600", int64(2), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg(), "GCREATOR").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgres(db).Save(context.Background(), reg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegistryTx(t *testing.T) {
	t.Run("commits after taking the advisory lock", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WithArgs(registryLockKey).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM lottery_counter`)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectCommit()

		tx := NewPostgresRegistryTx(db, time.Second)
		err := tx.RunInTx(context.Background(), func(store service.RegistryStore) error {
			_, err := store.Load(context.Background())
			assert.ErrorIs(t, err, sentinel.ErrNotFound)
			return nil
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		boom := models.NotFound(3)
		err := NewPostgresRegistryTx(db, 0).RunInTx(context.Background(), func(service.RegistryStore) error {
			return boom
		})
		require.ErrorIs(t, err, models.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure mid-operation reruns it", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lottery_counter`)).
			WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lottery_counter`)).
			WithArgs(int64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM lotteries`)).
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		runs := 0
		err := NewPostgresRegistryTx(db, 0).RunInTx(context.Background(), func(store service.RegistryStore) error {
			runs++
			return store.Save(context.Background(), models.NewRegistry())
		})
		require.NoError(t, err)
		assert.Equal(t, 2, runs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deadlock on the lock is a conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WillReturnError(&pq.Error{Code: "40P01"})
		mock.ExpectRollback()

		err := NewPostgresRegistryTx(db, 0, WithPostgresRetries(1)).RunInTx(context.Background(), func(service.RegistryStore) error {
			return errors.New("must not run")
		})
		require.ErrorIs(t, err, sentinel.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit conflicts are retried a bounded number of times", func(t *testing.T) {
		db, mock := newMockDB(t)
		for i := 0; i < 2; i++ {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})
		}

		err := NewPostgresRegistryTx(db, 0, WithPostgresRetries(2)).RunInTx(context.Background(), func(service.RegistryStore) error {
			return nil
		})
		require.ErrorIs(t, err, sentinel.ErrConflict)
		assert.ErrorContains(t, err, "retried 2 times")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other statement failures are not retried", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM lottery_counter`)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		runs := 0
		err := NewPostgresRegistryTx(db, 0).RunInTx(context.Background(), func(store service.RegistryStore) error {
			runs++
			_, err := store.Load(context.Background())
			return err
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, sentinel.ErrConflict)
		assert.Equal(t, 1, runs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tx timeout bounds statements run inside fn", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count FROM lottery_counter`)).
			WillDelayFor(2 * time.Second).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

		start := time.Now()
		err := NewPostgresRegistryTx(db, 50*time.Millisecond).RunInTx(context.Background(), func(store service.RegistryStore) error {
			_, err := store.Load(context.Background())
			return err
		})
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled context never begins", func(t *testing.T) {
		db, mock := newMockDB(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPostgresRegistryTx(db, 0).RunInTx(ctx, func(service.RegistryStore) error {
			return errors.New("must not run")
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
