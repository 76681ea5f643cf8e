package backend

import (
	"context"
	"time"

	"caseledger/internal/ledger"
	"caseledger/internal/services"

	"github.com/shopspring/decimal"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backing stores answer.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the wired case service and the resources behind it
type BackendResult struct {
	Service    *services.CaseService
	Repository ledger.Repository
	Ready      ReadyFunc
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	SeedFile string

	// Event publishing, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Summary cache
	Cache     CacheType
	RedisAddr string
	CacheTTL  time.Duration

	DefaultInterestRate decimal.Decimal
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CacheType selects where case summaries are cached.
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	return ct == MemoryCache || ct == RedisCache
}
