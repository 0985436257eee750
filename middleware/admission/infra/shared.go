package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultKeyPrefix = "routeCounts:"
	DefaultOpTimeout = 500 * time.Millisecond
)

// SharedCounter guarda os contadores no Redis em "<prefix><path>", para que
// toda instância apontando para o mesmo store divida um contador por rota.
//
// Os contadores sobrevivem a restarts e só zeram quando as chaves são
// apagadas ou sobrescritas fora deste processo.
type SharedCounter struct {
	rdb    redis.UniversalClient
	quotas domain.QuotaTable

	prefix    string
	opTimeout time.Duration
	seedLimit int
	owned     bool
}

type SharedOption func(*SharedCounter)

// WithKeyPrefix troca o namespace "routeCounts:".
func WithKeyPrefix(prefix string) SharedOption {
	return func(c *SharedCounter) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithOpTimeout limita cada chamada ao store. Zero ou negativo deixa só o
// contexto de quem chamou valendo.
func WithOpTimeout(d time.Duration) SharedOption {
	return func(c *SharedCounter) { c.opTimeout = d }
}

// WithSeedConcurrency limita quantas rotas recebem seed ao mesmo tempo.
func WithSeedConcurrency(n int) SharedOption {
	return func(c *SharedCounter) { c.seedLimit = n }
}

// WithOwnedClient faz Close fechar também o client Redis.
func WithOwnedClient() SharedOption {
	return func(c *SharedCounter) { c.owned = true }
}

// NewSharedCounter confere que o store responde e cria um contador zerado
// para cada rota que ainda não tem. Contadores existentes mantêm o valor.
// Só retorna depois do seed de todas as rotas, ou com o primeiro erro.
func NewSharedCounter(ctx context.Context, rdb redis.UniversalClient, quotas domain.QuotaTable, opts ...SharedOption) (*SharedCounter, error) {
	c := &SharedCounter{
		rdb:       rdb,
		quotas:    quotas,
		prefix:    DefaultKeyPrefix,
		opTimeout: DefaultOpTimeout,
		seedLimit: 16,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.call(ctx, func(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.seedLimit > 0 {
		g.SetLimit(c.seedLimit)
	}
	for _, route := range quotas.Routes() {
		key := c.Key(route)
		g.Go(func() error {
			err := c.call(gctx, func(ctx context.Context) error {
				return c.rdb.SetNX(ctx, key, 0, 0).Err()
			})
			if err != nil {
				return fmt.Errorf("seed %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

// Key retorna a chave do store que guarda o contador de route.
func (c *SharedCounter) Key(route domain.Route) string {
	return c.prefix + string(route)
}

// Admit implementa domain.Counter.
//
// A checagem de existência, a leitura e o incremento são três idas ao store;
// só o INCR é atômico. Ver a doc do pacote sobre estouro.
func (c *SharedCounter) Admit(ctx context.Context, route domain.Route) (domain.Decision, error) {
	quota, ok := c.quotas.Limit(route)
	if !ok {
		return domain.Decision{Outcome: domain.RejectUnknownRoute, Route: route}, nil
	}
	key := c.Key(route)

	var exists int64
	err := c.call(ctx, func(ctx context.Context) (err error) {
		exists, err = c.rdb.Exists(ctx, key).Result()
		return err
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("exists %s: %w", key, err)
	}
	if exists == 0 {
		return domain.Decision{Outcome: domain.RejectUnknownRoute, Route: route}, nil
	}

	count, found, err := c.get(ctx, key)
	if err != nil {
		return domain.Decision{}, err
	}
	if !found {
		return domain.Decision{Outcome: domain.RejectUnknownRoute, Route: route}, nil
	}

	dec := domain.Decision{Route: route, Count: count, Quota: quota}
	if count >= quota {
		dec.Outcome = domain.RejectQuotaExceeded
		return dec, nil
	}

	err = c.call(ctx, func(ctx context.Context) error {
		return c.rdb.Incr(ctx, key).Err()
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("incr %s: %w", key, err)
	}
	dec.Outcome = domain.Allow
	return dec, nil
}

// Count retorna o contador guardado de route, 0 quando a chave não existe.
func (c *SharedCounter) Count(ctx context.Context, route domain.Route) (int64, error) {
	count, _, err := c.get(ctx, c.Key(route))
	return count, err
}

func (c *SharedCounter) get(ctx context.Context, key string) (int64, bool, error) {
	var count int64
	found := true
	err := c.call(ctx, func(ctx context.Context) (err error) {
		count, err = c.rdb.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("get %s: %w", key, err)
	}
	return count, found, nil
}

// call roda fn com o timeout por operação e classifica qualquer falha como
// domain.ErrStoreUnavailable.
func (c *SharedCounter) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (c *SharedCounter) Mode() domain.Mode { return domain.ModeShared }

func (c *SharedCounter) Close() error {
	if !c.owned {
		return nil
	}
	return c.rdb.Close()
}
