package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lotellar/internal/lottery/metrics"
	"lotellar/internal/lottery/models"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/audit"
	"lotellar/pkg/platform/sentinel"
	"lotellar/pkg/requestcontext"
)

const tracerName = "lotellar/internal/lottery/service"

// RegistryStore is the storage adapter seen inside a transaction.
//
// Load returns sentinel.ErrNotFound when no registry has ever been saved.
// The returned registry must be private to the caller. Save persists the whole
// registry; a later Load observes either the prior state or all of it.
type RegistryStore interface {
	Load(ctx context.Context) (*models.Registry, error)
	Save(ctx context.Context, registry *models.Registry) error
}

// AuthGate verifies that identity authorized the current call.
// A failure is reported as models.ErrAuthorizationFailed.
type AuthGate interface {
	Verify(ctx context.Context, identity models.Address) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements the lottery lifecycle against a registry held behind a
// RegistryTx. Every operation loads the registry, validates, mutates its
// private copy and saves it back inside one transaction.
type Service struct {
	tx               RegistryTx
	gate             AuthGate
	revision         models.Revision
	requireInit      bool
	initPolicy       InitPolicy
	completionPolicy CompletionPolicy
	oracles          map[models.Address]struct{}
	maxParticipants  uint32
	clock            func() time.Time
	logger           *slog.Logger
	auditPublisher   AuditPublisher
	metrics          *metrics.Metrics
	tracer           trace.Tracer
}

type Option func(s *Service)

func WithRevision(rev models.Revision) Option {
	return func(s *Service) {
		s.revision = rev
	}
}

// WithRequireInit makes an absent registry fail with NotInitialized instead
// of loading as empty. Only revisions with Initialize honour it.
func WithRequireInit(required bool) Option {
	return func(s *Service) {
		s.requireInit = required
	}
}

func WithInitPolicy(p InitPolicy) Option {
	return func(s *Service) {
		s.initPolicy = p
	}
}

func WithCompletionPolicy(p CompletionPolicy) Option {
	return func(s *Service) {
		s.completionPolicy = p
	}
}

// WithOracles grants completion rights on every lottery to addrs.
func WithOracles(addrs ...models.Address) Option {
	return func(s *Service) {
		for _, a := range addrs {
			s.oracles[a] = struct{}{}
		}
	}
}

// WithMaxParticipants caps the capacity a creator may request. Zero means no cap.
func WithMaxParticipants(ceiling uint32) Option {
	return func(s *Service) {
		s.maxParticipants = ceiling
	}
}

// WithClock overrides the creation timestamp source. Without it the
// request-scoped time from requestcontext is used.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. Defaults: revision v2, InitReset, CompletionCreator,
// no participant ceiling.
func New(tx RegistryTx, gate AuthGate, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, errors.New("registry tx is required")
	}
	if gate == nil {
		return nil, errors.New("auth gate is required")
	}
	s := &Service{
		tx:               tx,
		gate:             gate,
		revision:         models.RevisionV2,
		initPolicy:       InitReset,
		completionPolicy: CompletionCreator,
		oracles:          make(map[models.Address]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// Revision reports the active behaviour generation.
func (s *Service) Revision() models.Revision {
	return s.revision
}

// Initialize resets the registry to counter 0 with no lotteries. Under
// InitOnce an existing registry is left untouched and AlreadyInitialized is returned.
func (s *Service) Initialize(ctx context.Context) (err error) {
	ctx, op := s.startOp(ctx, opInitialize)
	defer func() { err = op.finish(err) }()

	if !s.revision.SupportsInitialize() {
		return models.Unsupported(opInitialize, s.revision)
	}

	err = s.tx.RunInTx(ctx, func(store RegistryStore) error {
		if s.initPolicy == InitOnce {
			existing, err := store.Load(ctx)
			switch {
			case err == nil:
				return models.AlreadyInitialized(existing.Counter)
			case !errors.Is(err, sentinel.ErrNotFound):
				return err
			}
		}
		return store.Save(ctx, models.NewRegistry())
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventRegistryInitialized, auditEntry{}, "policy", string(s.initPolicy))
	if s.metrics != nil {
		s.metrics.IncrementInitialized()
	}
	return nil
}

// CreateLottery registers a new open lottery on behalf of creator and returns its id.
func (s *Service) CreateLottery(
	ctx context.Context,
	creator models.Address,
	name string,
	entryFee *big.Int,
	duration uint64,
	maxParticipants uint32,
) (id models.ID, err error) {
	ctx, op := s.startOp(ctx, opCreate)
	defer func() { err = op.finish(err) }()

	if err := s.verify(ctx, creator, opCreate); err != nil {
		return 0, err
	}
	if s.maxParticipants > 0 && maxParticipants > s.maxParticipants {
		return 0, models.InvalidInput("max participants must be %d or less", s.maxParticipants)
	}
	name = strings.TrimSpace(name)
	createdAt := s.now(ctx)

	err = s.tx.RunInTx(ctx, func(store RegistryStore) error {
		reg, err := s.load(ctx, store)
		if err != nil {
			return err
		}
		next, err := reg.NextID()
		if err != nil {
			return err
		}
		lottery, err := models.NewLottery(next, creator, name, entryFee, duration, maxParticipants, createdAt)
		if err != nil {
			return err
		}
		if err := reg.Add(lottery); err != nil {
			return err
		}
		if err := store.Save(ctx, reg); err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	op.span.SetAttributes(attribute.Int64("lottery.id", int64(id)))
	s.logAudit(ctx, audit.EventLotteryCreated, auditEntry{actor: creator, lotteryID: id},
		"name", name,
		"max_participants", maxParticipants,
	)
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return id, nil
}

// EnterLottery appends participant to an open lottery with spare capacity.
// Checks run in order: not found, completed, full, then duplicate (v2).
func (s *Service) EnterLottery(ctx context.Context, participant models.Address, id models.ID) (err error) {
	ctx, op := s.startOp(ctx, opEnter, attribute.Int64("lottery.id", int64(id)))
	defer func() { err = op.finish(err) }()

	if err := s.verify(ctx, participant, opEnter); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(store RegistryStore) error {
		reg, err := s.load(ctx, store)
		if err != nil {
			return err
		}
		lottery, err := reg.Get(id)
		if err != nil {
			return err
		}
		if err := lottery.Enter(participant, s.revision.RejectsDuplicates()); err != nil {
			return err
		}
		return store.Save(ctx, reg)
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventLotteryEntered, auditEntry{actor: participant, lotteryID: id})
	if s.metrics != nil {
		s.metrics.IncrementEntered()
	}
	return nil
}

// CompleteLottery fixes winner on an open lottery. Under CompletionCreator the
// verified caller must be the creator or an oracle and winner must be a participant.
func (s *Service) CompleteLottery(ctx context.Context, caller models.Address, id models.ID, winner models.Address) (err error) {
	ctx, op := s.startOp(ctx, opComplete, attribute.Int64("lottery.id", int64(id)))
	defer func() { err = op.finish(err) }()

	if !s.revision.SupportsCompletion() {
		return models.Unsupported(opComplete, s.revision)
	}
	if winner == "" {
		return models.InvalidInput("winner cannot be empty")
	}
	restricted := s.completionPolicy == CompletionCreator
	if restricted {
		if err := s.verify(ctx, caller, opComplete); err != nil {
			return err
		}
	}

	err = s.tx.RunInTx(ctx, func(store RegistryStore) error {
		reg, err := s.load(ctx, store)
		if err != nil {
			return err
		}
		lottery, err := reg.Get(id)
		if err != nil {
			return err
		}
		if restricted && !s.mayComplete(caller, lottery) {
			return models.Forbidden(caller, "is neither the creator nor an oracle")
		}
		if err := lottery.Complete(winner, restricted); err != nil {
			return err
		}
		return store.Save(ctx, reg)
	})
	if err != nil {
		if errors.Is(err, models.ErrAuthorizationFailed) {
			s.logAudit(ctx, audit.EventCompletionDenied, auditEntry{actor: caller, lotteryID: id, reason: "not_creator_or_oracle"})
		}
		return err
	}

	s.logAudit(ctx, audit.EventLotteryCompleted, auditEntry{actor: caller, lotteryID: id, subject: winner})
	if s.metrics != nil {
		s.metrics.IncrementCompleted()
	}
	return nil
}

// GetAllLotteries returns every lottery in ascending id order.
func (s *Service) GetAllLotteries(ctx context.Context) (lotteries []*models.Lottery, err error) {
	ctx, op := s.startOp(ctx, opGetAll)
	defer func() { err = op.finish(err) }()

	lotteries, err = s.read(ctx, (*models.Registry).List)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventLotteriesRetrieved, auditEntry{}, "count", len(lotteries))
	return lotteries, nil
}

// GetCompletedLotteries returns completed lotteries in ascending id order.
func (s *Service) GetCompletedLotteries(ctx context.Context) (lotteries []*models.Lottery, err error) {
	ctx, op := s.startOp(ctx, opGetCompleted)
	defer func() { err = op.finish(err) }()

	lotteries, err = s.read(ctx, (*models.Registry).Completed)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventCompletedLotteriesRetrieved, auditEntry{}, "count", len(lotteries))
	return lotteries, nil
}

// GetOpenLotteries returns lotteries that are not completed, ascending by id.
func (s *Service) GetOpenLotteries(ctx context.Context) (lotteries []*models.Lottery, err error) {
	ctx, op := s.startOp(ctx, opGetOpen)
	defer func() { err = op.finish(err) }()

	return s.read(ctx, (*models.Registry).Open)
}

// GetLottery returns a single lottery.
func (s *Service) GetLottery(ctx context.Context, id models.ID) (lottery *models.Lottery, err error) {
	ctx, op := s.startOp(ctx, opGet, attribute.Int64("lottery.id", int64(id)))
	defer func() { err = op.finish(err) }()

	err = s.tx.RunInTx(ctx, func(store RegistryStore) error {
		reg, err := s.load(ctx, store)
		if err != nil {
			return err
		}
		found, err := reg.Get(id)
		if err != nil {
			return err
		}
		lottery = found.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lottery, nil
}

// GetLotteryCount returns the issued-id counter.
func (s *Service) GetLotteryCount(ctx context.Context) (count models.ID, err error) {
	ctx, op := s.startOp(ctx, opCount)
	defer func() { err = op.finish(err) }()

	if !s.revision.SupportsCount() {
		return 0, models.Unsupported(opCount, s.revision)
	}
	err = s.tx.RunInTx(ctx, func(store RegistryStore) error {
		reg, err := s.load(ctx, store)
		if err != nil {
			return err
		}
		count = reg.Counter
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) read(ctx context.Context, query func(*models.Registry) []*models.Lottery) ([]*models.Lottery, error) {
	var out []*models.Lottery
	err := s.tx.RunInTx(ctx, func(store RegistryStore) error {
		reg, err := s.load(ctx, store)
		if err != nil {
			return err
		}
		out = query(reg)
		return nil
	})
	return out, err
}

// load is the load-or-initialize read: an absent registry is empty unless
// initialization is required.
func (s *Service) load(ctx context.Context, store RegistryStore) (*models.Registry, error) {
	reg, err := store.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		if s.requireInit && s.revision.SupportsInitialize() {
			return nil, models.NotInitialized()
		}
		return models.NewRegistry(), nil
	}
	if err != nil {
		return nil, err
	}
	// Registries written under v1 may repeat a participant, so the duplicate
	// rule only applies to new entries.
	if err := reg.Validate(false); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored registry is inconsistent")
	}
	return reg, nil
}

func (s *Service) verify(ctx context.Context, identity models.Address, operation string) error {
	if identity == "" {
		return models.InvalidInput("caller identity cannot be empty")
	}
	err := s.gate.Verify(ctx, identity)
	if err == nil {
		return nil
	}
	s.logAudit(ctx, audit.EventAuthFailed, auditEntry{actor: identity, reason: operation})
	if errors.Is(err, models.ErrAuthorizationFailed) {
		return err
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "auth gate rejected caller",
			"identity", identity,
			"error", err,
		)
	}
	return models.Unauthorized(identity)
}

func (s *Service) mayComplete(caller models.Address, lottery *models.Lottery) bool {
	if caller == lottery.Creator {
		return true
	}
	_, oracle := s.oracles[caller]
	return oracle
}

func (s *Service) now(ctx context.Context) time.Time {
	now := requestcontext.Now(ctx)
	if s.clock != nil {
		now = s.clock()
	}
	return now.UTC().Truncate(time.Second)
}

type auditEntry struct {
	actor     models.Address
	lotteryID models.ID
	subject   models.Address
	reason    string
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, e auditEntry, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		args := make([]any, 0, len(attributes)+12)
		args = append(args, attributes...)
		if e.actor != "" {
			args = append(args, "actor", e.actor)
		}
		if e.lotteryID != 0 {
			args = append(args, "lottery_id", e.lotteryID)
		}
		if e.subject != "" {
			args = append(args, "subject", e.subject)
		}
		if e.reason != "" {
			args = append(args, "reason", e.reason)
		}
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		args = append(args, "event", string(event), "log_type", "audit")
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Category:  event.Category(),
		Actor:     string(e.actor),
		Action:    string(event),
		LotteryID: uint32(e.lotteryID),
		Subject:   string(e.subject),
		Reason:    e.reason,
		RequestID: requestID,
	})
}

const (
	opInitialize   = "initialize"
	opCreate       = "create_lottery"
	opEnter        = "enter_lottery"
	opComplete     = "complete_lottery"
	opGetAll       = "get_all_lotteries"
	opGetCompleted = "get_completed_lotteries"
	opGetOpen      = "get_open_lotteries"
	opGet          = "get_lottery"
	opCount        = "get_lottery_count"
)

// operation carries the span and timing of one service call.
type operation struct {
	s     *Service
	ctx   context.Context
	name  string
	span  trace.Span
	start time.Time
}

func (s *Service) startOp(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	attrs = append(attrs, attribute.String("lottery.revision", string(s.revision)))
	ctx, span := s.tracer.Start(ctx, "lottery."+name, trace.WithAttributes(attrs...))
	return ctx, &operation{s: s, ctx: ctx, name: name, span: span, start: time.Now()}
}

// finish classifies err, records it on the span and metrics, and ends the span.
func (op *operation) finish(err error) error {
	defer op.span.End()
	if op.s.metrics != nil {
		op.s.metrics.ObserveOperation(op.name, op.start)
	}
	if err == nil {
		return nil
	}

	err = classify(err)
	op.span.RecordError(err)
	op.span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))

	reason := rejectionReason(err)
	if reason != "" {
		if op.s.metrics != nil {
			op.s.metrics.IncrementRejected(op.name, reason)
		}
		return err
	}
	if op.s.logger != nil {
		op.s.logger.ErrorContext(op.ctx, "lottery operation failed",
			"operation", op.name,
			"error", err,
			"request_id", requestcontext.RequestID(op.ctx),
		)
	}
	return err
}

// classify attaches a transport code to errors that reach the service
// boundary without one.
func classify(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "registry changed concurrently, retry the operation")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry operation timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "registry storage failure")
	}
}

var rejectionKinds = []struct {
	kind   error
	reason string
}{
	{models.ErrNotFound, "not_found"},
	{models.ErrAlreadyCompleted, "already_completed"},
	{models.ErrFull, "full"},
	{models.ErrDuplicateParticipant, "duplicate_participant"},
	{models.ErrAuthorizationFailed, "authorization_failed"},
	{models.ErrNotInitialized, "not_initialized"},
	{models.ErrAlreadyInitialized, "already_initialized"},
	{models.ErrWinnerNotParticipant, "winner_not_participant"},
	{models.ErrUnsupported, "unsupported"},
	{models.ErrInvalidInput, "invalid_input"},
}

// rejectionReason names the precondition err failed, or "" for
// infrastructure failures.
func rejectionReason(err error) string {
	for _, k := range rejectionKinds {
		if errors.Is(err, k.kind) {
			return k.reason
		}
	}
	return ""
}
