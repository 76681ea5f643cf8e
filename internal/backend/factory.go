package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseledger/internal/amqp"
	"caseledger/internal/cache"
	"caseledger/internal/ledger"
	"caseledger/internal/ledger/memory"
	"caseledger/internal/log"
	"caseledger/internal/services"
	"caseledger/internal/storage"
)

const (
	summaryCacheSize   = 1000
	summaryCachePrefix = "caseledger:summary:"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanupAll := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	var readies []ReadyFunc

	repo, err := f.createRepository(config, &cleanups, &readies)
	if err != nil {
		return nil, err
	}

	summaries, err := f.createSummaryCache(ctx, config, &cleanups, &readies)
	if err != nil {
		cleanupAll()
		return nil, err
	}

	opts := []services.Option{
		services.WithSummaryCache(summaries),
		services.WithDefaultRate(config.DefaultInterestRate),
	}
	if client := f.createPublisher(config); client != nil {
		opts = append(opts, services.WithPublisher(client))
		cleanups = append(cleanups, client.Close)
	}

	return &BackendResult{
		Service:    services.NewCaseService(repo, f.logger, opts...),
		Repository: repo,
		Ready: func(ctx context.Context) error {
			for _, ready := range readies {
				if err := ready(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Cleanup: cleanupAll,
	}, nil
}

func (f *DefaultFactory) createRepository(config Config, cleanups *[]CleanupFunc, readies *[]ReadyFunc) (ledger.Repository, error) {
	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		*cleanups = append(*cleanups, sqliteRepo.Close)
		*readies = append(*readies, sqliteRepo.Ping)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return sqliteRepo, nil

	case MemoryBackend:
		store, err := memory.NewFromFile(config.SeedFile, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSummaryCache(ctx context.Context, config Config, cleanups *[]CleanupFunc, readies *[]ReadyFunc) (cache.Cache[services.Summary], error) {
	switch config.Cache {
	case RedisCache:
		client, err := cache.NewRedisClient(ctx, config.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		*cleanups = append(*cleanups, client.Close)
		*readies = append(*readies, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		f.logger.Info("Initialized redis summary cache", "addr", config.RedisAddr, "ttl", config.CacheTTL)
		return cache.NewRedisCache[services.Summary](client, summaryCachePrefix, config.CacheTTL, f.logger), nil

	default:
		lru := cache.NewLRUCache[services.Summary](summaryCacheSize, config.CacheTTL)
		manager := cache.NewManager(f.logger)
		manager.Register(lru)
		manager.StartCleanup(config.CacheTTL)
		*cleanups = append(*cleanups, func() error {
			manager.Stop()
			return nil
		})
		f.logger.Info("Initialized in-memory summary cache", "size", summaryCacheSize, "ttl", config.CacheTTL)
		return lru, nil
	}
}

// createPublisher returns nil when AMQP is not configured or unreachable;
// the ledger keeps working and the worker's sweep catches up later.
func (f *DefaultFactory) createPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP not configured, ledger events disabled")
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
