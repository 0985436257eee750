package infra

import (
	"context"
	"sync"

	"admission-gateway/middleware/admission/domain"
)

// LocalCounter mantém um contador por rota configurada na memória do
// processo. Começam em zero e se perdem quando o processo termina.
type LocalCounter struct {
	quotas domain.QuotaTable

	mu     sync.Mutex
	counts map[domain.Route]int64
}

func NewLocalCounter(quotas domain.QuotaTable) *LocalCounter {
	counts := make(map[domain.Route]int64, quotas.Len())
	for _, r := range quotas.Routes() {
		counts[r] = 0
	}
	return &LocalCounter{quotas: quotas, counts: counts}
}

// Admit implementa domain.Counter. Leitura, comparação e incremento ficam
// sob um lock só, então N chamadas concorrentes com quota N admitem
// exatamente N.
func (c *LocalCounter) Admit(_ context.Context, route domain.Route) (domain.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, ok := c.counts[route]
	if !ok {
		return domain.Decision{Outcome: domain.RejectUnknownRoute, Route: route}, nil
	}
	quota, _ := c.quotas.Limit(route)

	dec := domain.Decision{Route: route, Count: count, Quota: quota}
	if count < quota {
		c.counts[route] = count + 1
		dec.Outcome = domain.Allow
		return dec, nil
	}
	dec.Outcome = domain.RejectQuotaExceeded
	return dec, nil
}

// Count retorna o contador atual de uma rota configurada, 0 caso contrário.
func (c *LocalCounter) Count(_ context.Context, route domain.Route) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[route], nil
}

func (c *LocalCounter) Snapshot() map[domain.Route]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.Route]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func (c *LocalCounter) Mode() domain.Mode { return domain.ModeLocal }

func (c *LocalCounter) Close() error { return nil }
