package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"lotellar/internal/lottery/models"
	"lotellar/internal/lottery/service"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/sentinel"
)

const (
	// Redis key holding the issued-id counter.
	redisCountKey = "lottery:count"
	// Redis hash of lottery id -> JSON lottery record.
	redisLotteriesKey = "lottery:lotteries"

	defaultRedisRetries = 8
)

// RedisTx runs registry operations as optimistic transactions: both cells
// are WATCHed, fn runs against the watched snapshot, and the buffered save is
// applied in one MULTI/EXEC. A concurrent write aborts EXEC and fn is rerun.
type RedisTx struct {
	client     *redis.Client
	timeout    time.Duration
	maxRetries int
}

type RedisTxOption func(*RedisTx)

// WithRedisRetries bounds how many times a conflicting operation is rerun.
func WithRedisRetries(n int) RedisTxOption {
	return func(t *RedisTx) {
		if n > 0 {
			t.maxRetries = n
		}
	}
}

func WithRedisTimeout(d time.Duration) RedisTxOption {
	return func(t *RedisTx) {
		t.timeout = d
	}
}

func NewRedisRegistryTx(client *redis.Client, opts ...RedisTxOption) *RedisTx {
	t := &RedisTx{client: client, maxRetries: defaultRedisRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *RedisTx) RunInTx(ctx context.Context, fn func(store service.RegistryStore) error) error {
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

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		err := t.client.Watch(ctx, func(rtx *redis.Tx) error {
			store := &redisTxStore{tx: rtx, ctx: ctx}
			if err := fn(store); err != nil {
				return err
			}
			if store.pending == nil {
				return nil
			}
			return store.commit(ctx)
		}, redisCountKey, redisLotteriesKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("registry update retried %d times: %w", t.maxRetries, sentinel.ErrConflict)
}

// Ping checks redis connectivity for health probes.
func (t *RedisTx) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// redisTxStore reads through the watched connection and buffers Save until
// the transaction commits. Reads run under the transaction's context so the
// tx timeout bounds them too.
type redisTxStore struct {
	tx      *redis.Tx
	ctx     context.Context
	pending *models.Registry
}

func (s *redisTxStore) Load(context.Context) (*models.Registry, error) {
	if s.pending != nil {
		return s.pending.Clone(), nil
	}
	ctx := s.ctx

	raw, err := s.tx.Get(ctx, redisCountKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lottery counter: %w", err)
	}
	count, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("malformed lottery counter %q: %w", raw, err)
	}

	fields, err := s.tx.HGetAll(ctx, redisLotteriesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load lotteries: %w", err)
	}

	reg := models.NewRegistry()
	reg.Counter = models.ID(count)
	for field, value := range fields {
		var rec lotteryRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, fmt.Errorf("decode lottery %s: %w", field, err)
		}
		l, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		reg.Lotteries[l.ID] = l
	}
	return reg, nil
}

func (s *redisTxStore) Save(_ context.Context, reg *models.Registry) error {
	s.pending = reg.Clone()
	return nil
}

func (s *redisTxStore) commit(ctx context.Context) error {
	fields := make(map[string]any, len(s.pending.Lotteries))
	for id, l := range s.pending.Lotteries {
		data, err := json.Marshal(toRecord(l))
		if err != nil {
			return fmt.Errorf("encode lottery %d: %w", id, err)
		}
		fields[strconv.FormatUint(uint64(id), 10)] = data
	}

	_, err := s.tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisCountKey, uint64(s.pending.Counter), 0)
		pipe.Del(ctx, redisLotteriesKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, redisLotteriesKey, fields)
		}
		return nil
	})
	return err
}
