package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"

	"github.com/redis/go-redis/v9"
)

// StoreConfig localiza o store dos contadores compartilhados. URL tem
// precedência sobre Addr.
type StoreConfig struct {
	URL       string
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// OpTimeout limita cada ida e volta ao store.
	OpTimeout time.Duration
	// DialTimeout limita o ping e o seeding na subida.
	DialTimeout time.Duration
}

func (s StoreConfig) target() string {
	if u := strings.TrimSpace(s.URL); u != "" {
		return u
	}
	return strings.TrimSpace(s.Addr)
}

type Config struct {
	Mode   domain.Mode
	Quotas map[string]int64
	Store  StoreConfig
}

type buildOptions struct {
	client     redis.UniversalClient
	controller []application.Option
}

type BuildOption func(*buildOptions)

// WithRedisClient usa um client existente no modo shared em vez de conectar
// em Config.Store. O client continua sendo de quem chamou.
func WithRedisClient(c redis.UniversalClient) BuildOption {
	return func(o *buildOptions) { o.client = c }
}

// WithControllerOptions repassa opções para application.NewController.
func WithControllerOptions(opts ...application.Option) BuildOption {
	return func(o *buildOptions) { o.controller = append(o.controller, opts...) }
}

// New monta o controller de cfg. No modo shared conecta no store, confere que
// ele responde e faz o seed de todas as rotas antes de retornar. Qualquer erro
// é fatal para quem chamou: não existe modo degradado.
func New(ctx context.Context, cfg Config, opts ...BuildOption) (*application.Controller, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	quotas, err := domain.NewQuotaTable(cfg.Quotas)
	if err != nil {
		return nil, err
	}

	var counter domain.Counter
	switch cfg.Mode {
	case domain.ModeLocal:
		counter = infra.NewLocalCounter(quotas)
	case domain.ModeShared:
		counter, err = newSharedCounter(ctx, cfg.Store, quotas, bo.client)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, cfg.Mode)
	}

	return application.NewController(quotas, counter, bo.controller...), nil
}

func newSharedCounter(ctx context.Context, sc StoreConfig, quotas domain.QuotaTable, client redis.UniversalClient) (*infra.SharedCounter, error) {
	opts := []infra.SharedOption{
		infra.WithKeyPrefix(sc.KeyPrefix),
	}
	if sc.OpTimeout > 0 {
		opts = append(opts, infra.WithOpTimeout(sc.OpTimeout))
	}

	owned := client == nil
	if owned {
		c, err := DialRedis(sc)
		if err != nil {
			return nil, err
		}
		client = c
		opts = append(opts, infra.WithOwnedClient())
	}

	dialTimeout := sc.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	seedCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	counter, err := infra.NewSharedCounter(seedCtx, client, quotas, opts...)
	if err != nil {
		if owned {
			_ = client.Close()
		}
		return nil, fmt.Errorf("shared counter: %w", err)
	}
	return counter, nil
}

// DialRedis cria um client para sc sem falar com o servidor.
func DialRedis(sc StoreConfig) (*redis.Client, error) {
	if sc.target() == "" {
		return nil, domain.ErrMissingStoreTarget
	}
	if u := strings.TrimSpace(sc.URL); u != "" {
		opt, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parse store url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     sc.Addr,
		Password: sc.Password,
		DB:       sc.DB,
	}), nil
}
