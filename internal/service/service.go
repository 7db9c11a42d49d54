// Package service wires the orchestration layer together. Every mutating
// operation builds a request, submits it to finality, extracts the created
// object and mirrors the result off-chain.
package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/objectstore"
	"github.com/popchain/popchain-core/internal/reconcile"
	"github.com/popchain/popchain-core/internal/sponsor"
	"github.com/popchain/popchain-core/internal/store"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/whitelist"
	"github.com/popchain/popchain-core/pkg/loggers"
	"github.com/popchain/popchain-core/pkg/repo"
)

var ErrNoObjectStore = errors.New("object store not configured")

type Deps struct {
	Client  ledger.Client
	Store   store.Store
	Objects objectstore.Store
	// Sponsor may be nil; sponsored submissions then fail as NotAuthorized.
	Sponsor *sponsor.Wallet
	Locker  whitelist.Locker
}

type Service struct {
	cfg          *repo.Config
	client       ledger.Client
	store        store.Store
	objects      objectstore.Store
	sponsor      *sponsor.Wallet
	orchestrator *submit.Orchestrator
	reconciler   *reconcile.Reconciler
	engine       *whitelist.Engine
	closers      []func() error
	logger       logrus.FieldLogger
}

func New(cfg *repo.Config, deps Deps, logger logrus.FieldLogger) (*Service, error) {
	if deps.Client == nil || deps.Store == nil {
		return nil, errors.New("ledger client and store are required")
	}
	r := reconcile.New(deps.Store, loggers.Logger(loggers.Reconcile))
	opts := []submit.Option{submit.WithReconciler(r)}
	if deps.Sponsor != nil {
		opts = append(opts, submit.WithSponsor(deps.Sponsor))
	}
	o, err := submit.New(cfg.Ledger, deps.Client, loggers.Logger(loggers.Submit), opts...)
	if err != nil {
		return nil, err
	}

	var engineOpts []whitelist.Option
	if deps.Locker != nil {
		engineOpts = append(engineOpts, whitelist.WithLocker(deps.Locker))
	}
	return &Service{
		cfg:          cfg,
		client:       deps.Client,
		store:        deps.Store,
		objects:      deps.Objects,
		sponsor:      deps.Sponsor,
		orchestrator: o,
		reconciler:   r,
		engine:       whitelist.NewEngine(o, loggers.Logger(loggers.Whitelist), engineOpts...),
		logger:       logger,
	}, nil
}

// Open dials every backend named in cfg. A missing sponsor secret or object
// store bucket is tolerated and only disables the features needing them.
func Open(ctx context.Context, cfg *repo.Config) (*Service, error) {
	logger := loggers.Logger(loggers.App)
	var closers []func() error
	fail := func(err error) (*Service, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	client, err := ledger.Dial(ctx, cfg.Ledger, loggers.Logger(loggers.Ledger))
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error {
		client.Close()
		return nil
	})

	wallet, err := sponsor.Load(cfg.Sponsor, client, loggers.Logger(loggers.Sponsor))
	if err != nil {
		if !errors.Is(err, sponsor.ErrNotConfigured) {
			return fail(err)
		}
		logger.WithField("err", err).Warn("Sponsor wallet unavailable, sponsored submissions disabled")
		wallet = nil
	}

	var st store.Store
	if cfg.Store.DSN == "" {
		logger.Warn("No store dsn configured, off-chain records kept in memory")
		st = store.NewMemoryStore()
	} else {
		pg, err := store.OpenPostgres(ctx, cfg.Store, loggers.Logger(loggers.Store))
		if err != nil {
			return fail(err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return fail(err)
		}
		st = pg
	}
	closers = append(closers, st.Close)

	var objects objectstore.Store
	if cfg.ObjectStore.Bucket != "" {
		bucket, err := objectstore.NewS3Store(ctx, cfg.ObjectStore, loggers.Logger(loggers.ObjectStore))
		if err != nil {
			return fail(err)
		}
		objects = bucket
	}

	var locker whitelist.Locker
	if cfg.Redis.Enable {
		rl := whitelist.NewRedisLocker(cfg.Redis, loggers.Logger(loggers.Whitelist))
		closers = append(closers, rl.Close)
		locker = rl
	}

	svc, err := New(cfg, Deps{
		Client:  client,
		Store:   st,
		Objects: objects,
		Sponsor: wallet,
		Locker:  locker,
	}, logger)
	if err != nil {
		return fail(err)
	}
	svc.closers = closers
	return svc, nil
}

func (s *Service) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func (s *Service) Orchestrator() *submit.Orchestrator {
	return s.orchestrator
}

func (s *Service) Sponsor() *sponsor.Wallet {
	return s.sponsor
}

func (s *Service) Store() store.Store {
	return s.store
}

func (s *Service) Engine() *whitelist.Engine {
	return s.engine
}
