package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lotellar/internal/lottery/models"
	"lotellar/internal/lottery/service"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/sentinel"
)

const (
	registryCollection  = "lottery_registry"
	registryDocumentID  = "registry"
	defaultMongoRetries = 8
)

// registryDocument holds the whole registry in one document so a single
// ReplaceOne is atomic. Version guards compare-and-swap writes across processes.
type registryDocument struct {
	ID        string          `bson:"_id"`
	Count     int64           `bson:"count"`
	Lotteries []lotteryRecord `bson:"lotteries"`
	Version   int64           `bson:"version"`
}

// MongoTx serializes operations in process with a mutex and across processes
// with a version check on the registry document. A lost race reruns fn.
type MongoTx struct {
	mu         sync.Mutex
	coll       *mongo.Collection
	timeout    time.Duration
	maxRetries int
}

func NewMongoRegistryTx(db *mongo.Database, timeout time.Duration) *MongoTx {
	return &MongoTx{
		coll:       db.Collection(registryCollection),
		timeout:    timeout,
		maxRetries: defaultMongoRetries,
	}
}

func (t *MongoTx) RunInTx(ctx context.Context, fn func(store service.RegistryStore) error) error {
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

	t.mu.Lock()
	defer t.mu.Unlock()

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		store := &mongoTxStore{coll: t.coll, ctx: ctx}
		if err := fn(store); err != nil {
			return err
		}
		if store.pending == nil {
			return nil
		}
		err := store.commit(ctx)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("registry update retried %d times: %w", t.maxRetries, sentinel.ErrConflict)
}

// Ping checks mongo connectivity for health probes.
func (t *MongoTx) Ping(ctx context.Context) error {
	return t.coll.Database().Client().Ping(ctx, nil)
}

// mongoTxStore runs its reads under the transaction's context so the tx
// timeout bounds them too.
type mongoTxStore struct {
	coll    *mongo.Collection
	ctx     context.Context
	loaded  bool
	version int64
	pending *models.Registry
}

func (s *mongoTxStore) fetch() (*registryDocument, error) {
	var doc registryDocument
	err := s.coll.FindOne(s.ctx, bson.M{"_id": registryDocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.loaded, s.version = true, 0
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load registry document: %w", err)
	}
	s.loaded, s.version = true, doc.Version
	return &doc, nil
}

func (s *mongoTxStore) Load(context.Context) (*models.Registry, error) {
	if s.pending != nil {
		return s.pending.Clone(), nil
	}
	doc, err := s.fetch()
	if err != nil {
		return nil, err
	}

	reg := models.NewRegistry()
	reg.Counter = models.ID(doc.Count)
	for _, rec := range doc.Lotteries {
		l, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		reg.Lotteries[l.ID] = l
	}
	return reg, nil
}

func (s *mongoTxStore) Save(_ context.Context, reg *models.Registry) error {
	if !s.loaded {
		// Blind saves (a reset) still need the version to swap against.
		if _, err := s.fetch(); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
	}
	s.pending = reg.Clone()
	return nil
}

func (s *mongoTxStore) commit(ctx context.Context) error {
	doc := registryDocument{
		ID:        registryDocumentID,
		Count:     int64(s.pending.Counter),
		Lotteries: make([]lotteryRecord, 0, len(s.pending.Lotteries)),
		Version:   s.version + 1,
	}
	for _, l := range s.pending.List() {
		doc.Lotteries = append(doc.Lotteries, toRecord(l))
	}

	if s.version == 0 {
		_, err := s.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert registry document: %w", err)
		}
		return nil
	}

	res, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": registryDocumentID, "version": s.version},
		doc,
		options.Replace().SetUpsert(false),
	)
	if err != nil {
		return fmt.Errorf("replace registry document: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrConflict
	}
	return nil
}
