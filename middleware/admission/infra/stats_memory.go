package infra

import (
	"context"
	"sync"

	"admission-gateway/middleware/admission/domain"
)

type Counters struct {
	Allowed       int64
	UnknownRoute  int64
	QuotaExceeded int64
	StoreErrors   int64
}

func (c *Counters) add(ev domain.StatsEvent) {
	if ev.Err != nil {
		c.StoreErrors++
		return
	}
	switch ev.Outcome {
	case domain.Allow:
		c.Allowed++
	case domain.RejectUnknownRoute:
		c.UnknownRoute++
	case domain.RejectQuotaExceeded:
		c.QuotaExceeded++
	}
}

// MemoryStatsStore agrega as decisões em memória.
// Serve para testes e debug de uma instância só; nada expira.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[domain.Route]Counters

	// rotas desconhecidas caem num bucket só, a menos que rastreadas
	trackUnknown bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackUnknownRoutes(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackUnknown = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{byRoute: make(map[domain.Route]Counters)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const unknownRouteBucket domain.Route = "<unknown>"

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Route
	if ev.Err == nil && ev.Outcome == domain.RejectUnknownRoute && !s.trackUnknown {
		route = unknownRouteBucket
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)
	c := s.byRoute[route]
	c.add(ev)
	s.byRoute[route] = c
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[domain.Route]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Route]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}
