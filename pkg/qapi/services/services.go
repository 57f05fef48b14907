package services

import (
	"context"

	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qapi/config"
	"github.com/quatton/qwell/pkg/qapi/services/authconfig"
	"github.com/quatton/qwell/pkg/qapi/services/classify"
	"github.com/quatton/qwell/pkg/qapi/services/iam"
	"github.com/quatton/qwell/pkg/qapi/services/intake"
	"github.com/quatton/qwell/pkg/qapi/services/recommend"
	"github.com/quatton/qwell/pkg/qapi/services/users"
	"github.com/quatton/qwell/pkg/qart"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
)

type Services struct {
	Config    *config.EnvConfig
	Logger    *qlog.Logger
	Metrics   *qmetrics.Metrics
	Store     db.Store
	KV        kv.Store
	Images    qart.Store
	Auth      *authconfig.AuthService
	IAM       *iam.IAMService
	Users     *users.Service
	Recommend *recommend.Service
	Intake    *intake.Service
	Classify  *classify.Service
}

// Backends are the stateful collaborators the services run on.
type Backends struct {
	Store      db.Store
	KV         kv.Store
	Images     qart.Store
	Classifier classify.Classifier
}

// NewServices wires every service over the given backends.
func NewServices(cfg *config.EnvConfig, b Backends, m *qmetrics.Metrics, logger *qlog.Logger) (*Services, error) {
	authSvc, err := authconfig.NewAuthService(cfg, b.Store, b.KV, m, logger.With("component", "auth"))
	if err != nil {
		return nil, err
	}

	recSvc := recommend.NewService(b.Store, logger.With("component", "recommend"))

	return &Services{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Store:     b.Store,
		KV:        b.KV,
		Images:    b.Images,
		Auth:      authSvc,
		IAM:       iam.NewIAMService(authSvc, logger.With("component", "iam")),
		Users:     users.NewService(b.Store, authSvc, recSvc, logger.With("component", "users")),
		Recommend: recSvc,
		Intake:    intake.NewService(b.Store, recSvc, m, logger.With("component", "intake")),
		Classify:  classify.NewService(b.Classifier, b.KV, cfg.ClassifierCacheTTL, m, logger.With("component", "classify")),
	}, nil
}

// OpenBackends connects the KV store, object store and classifier named by
// cfg. Empty VALKEY_ADDR or S3_ENDPOINT select the in-process backends.
func OpenBackends(ctx context.Context, cfg *config.EnvConfig, store db.Store, logger *qlog.Logger) (Backends, error) {
	b := Backends{
		Store: store,
		Classifier: classify.NewHTTPClassifier(classify.Config{
			Endpoint: cfg.ClassifierURL,
			Timeout:  cfg.ClassifierTimeout,
			RPS:      cfg.ClassifierRPS,
		}),
	}

	if cfg.ValkeyAddr != "" {
		kvStore, err := kv.NewValkeyStore(ctx, cfg.ValkeyConfig())
		if err != nil {
			return Backends{}, err
		}
		b.KV = kvStore
	} else {
		logger.Warn("VALKEY_ADDR not set, using in-memory KV store")
		b.KV = kv.NewMemoryStore()
	}

	if cfg.S3Endpoint != "" {
		s3, err := qart.NewS3Store(cfg.S3Config())
		if err != nil {
			return Backends{}, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return Backends{}, err
		}
		b.Images = s3
	} else {
		logger.Warn("S3_ENDPOINT not set, using in-memory image store")
		b.Images = qart.NewMemoryStore(cfg.S3Bucket)
	}

	if cfg.ClassifierURL == "" {
		logger.Warn("CLASSIFIER_URL not set, image prediction will fail")
	}
	return b, nil
}
