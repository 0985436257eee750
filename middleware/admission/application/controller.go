package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"admission-gateway/middleware/admission/domain"

	"golang.org/x/time/rate"
)

// Controller é dono da tabela de quotas e do único contador escolhido na
// subida. Pode ser usado concorrentemente se o contador puder.
type Controller struct {
	quotas  domain.QuotaTable
	counter domain.Counter
	stats   domain.StatsStore
	logger  *slog.Logger
	now     func() time.Time

	rejectLog  *rate.Sometimes
	failureLog *rate.Sometimes
}

type Option func(*Controller)

// WithStats registra cada decisão em s, best-effort.
func WithStats(s domain.StatsStore) Option {
	return func(c *Controller) { c.stats = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogSampling define de quanto em quanto tempo os logs repetidos de
// recusa e de falha do store saem. Zero loga toda ocorrência.
func WithLogSampling(every time.Duration) Option {
	return func(c *Controller) {
		if every <= 0 {
			c.rejectLog = &rate.Sometimes{Every: 1}
			c.failureLog = &rate.Sometimes{Every: 1}
			return
		}
		c.rejectLog = &rate.Sometimes{First: 1, Interval: every}
		c.failureLog = &rate.Sometimes{First: 1, Interval: every}
	}
}

// NewController liga counter a quotas. O contador precisa ter sido criado
// a partir da mesma tabela.
func NewController(quotas domain.QuotaTable, counter domain.Counter, opts ...Option) *Controller {
	c := &Controller{
		quotas:     quotas,
		counter:    counter,
		logger:     slog.Default(),
		now:        time.Now,
		rejectLog:  &rate.Sometimes{First: 1, Interval: 10 * time.Second},
		failureLog: &rate.Sometimes{First: 1, Interval: time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Admit decide se uma requisição para route pode seguir. No Allow o contador
// da rota já foi incrementado. Erro não nil embrulha domain.ErrStoreUnavailable
// e significa que o estado da quota é desconhecido.
func (c *Controller) Admit(ctx context.Context, route domain.Route) (domain.Decision, error) {
	start := c.now()
	dec, err := c.counter.Admit(ctx, route)
	elapsed := c.now().Sub(start)

	c.record(ctx, domain.StatsEvent{
		Route:    route,
		Outcome:  dec.Outcome,
		Err:      err,
		Method:   MethodFromContext(ctx),
		Duration: elapsed,
		At:       start,
	})

	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = errors.Join(domain.ErrStoreUnavailable, err)
		}
		c.failureLog.Do(func() {
			c.logger.Error("admission check failed", "route", string(route), "mode", string(c.counter.Mode()), "err", err)
		})
		return domain.Decision{Route: route}, err
	}

	if !dec.Allowed() {
		c.rejectLog.Do(func() {
			c.logger.Info("request rejected", "route", string(route), "outcome", dec.Outcome.String(), "count", dec.Count, "quota", dec.Quota)
		})
	}
	return dec, nil
}

func (c *Controller) record(ctx context.Context, ev domain.StatsEvent) {
	if c.stats == nil {
		return
	}
	if err := c.stats.Record(ctx, ev); err != nil {
		c.logger.Debug("stats record failed", "route", string(ev.Route), "err", err)
	}
}

// Count retorna o valor atual do contador de route.
func (c *Controller) Count(ctx context.Context, route domain.Route) (int64, error) {
	return c.counter.Count(ctx, route)
}

func (c *Controller) Quotas() domain.QuotaTable { return c.quotas }

func (c *Controller) Mode() domain.Mode { return c.counter.Mode() }

func (c *Controller) Close() error { return c.counter.Close() }
