package service

import (
	"context"
	"log/slog"

	"mastery/internal/ledger/events"
	"mastery/internal/ledger/metrics"
	"mastery/internal/ledger/models"
	"mastery/internal/ledger/ports"
	"mastery/internal/platform/tracer"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
)

// Store defines the persistence interface for ledger state.
// Error Contract:
// - LoadConfig, FindVerification, FindIDByUserCourse, FindUpdate and
//   FindCertificate return sentinel.ErrNotFound when nothing is stored
// - NextID returns 0 on an empty ledger
// - Apply writes a batch atomically or not at all. It returns
//   sentinel.ErrConflict when an index entry points elsewhere or a new
//   verification or certificate id is taken, and sentinel.ErrStale when the
//   stored next id no longer sits one below the batch's NextID
type Store interface {
	LoadConfig(ctx context.Context) (*models.Config, error)
	NextID(ctx context.Context) (id.VerificationID, error)
	FindVerification(ctx context.Context, vid id.VerificationID) (*models.Verification, error)
	FindIDByUserCourse(ctx context.Context, user id.Principal, courseID id.CourseID) (id.VerificationID, error)
	FindUpdate(ctx context.Context, vid id.VerificationID) (*models.VerificationUpdate, error)
	FindCertificate(ctx context.Context, vid id.VerificationID) (*models.Certificate, error)
	Apply(ctx context.Context, batch *models.Batch) error
}

type Option func(*Service)

// Service is the verification ledger. Every mutating operation runs inside
// one transaction: writes are staged in a batch, collaborator effects are
// deferred until commit, and any failure discards both.
type Service struct {
	store     Store
	tx        LedgerTx
	admin     id.Principal
	fees      ports.FeeCollector
	minter    ports.Minter
	rewards   ports.RewardPayer
	publisher *events.Publisher
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	logger    *slog.Logger
}

// NewService constructs a ledger whose admin is the constructing principal.
// The admin is only used when the store holds no configuration yet.
func NewService(store Store, admin id.Principal, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		admin:  admin,
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.tx == nil {
		svc.tx = NewMutexTx()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithTx sets the transactional boundary. Defaults to a process-wide mutex.
func WithTx(tx LedgerTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithFeeCollector sets the collaborator that moves verification fees.
// Without one, fees are not charged.
func WithFeeCollector(f ports.FeeCollector) Option {
	return func(s *Service) {
		s.fees = f
	}
}

// WithMinter sets the NFT collaborator client used for certificate mints.
func WithMinter(m ports.Minter) Option {
	return func(s *Service) {
		s.minter = m
	}
}

// WithRewardPayer sets the reward collaborator client.
func WithRewardPayer(r ports.RewardPayer) Option {
	return func(s *Service) {
		s.rewards = r
	}
}

// WithPublisher sets the post-commit event publisher.
func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func (s *Service) emit(ctx context.Context, event models.Event) {
	if s.publisher != nil {
		s.publisher.Emit(ctx, event)
	}
}

func (s *Service) recordRejection(operation string, err error) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(operation, string(dErrors.CodeOf(err)))
	}
}
