package application

import (
	"context"
	"time"

	"admission-gateway/middleware/admission/domain"
)

// InflightService pega um slot do Pool antes do trabalho começar.
type InflightService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por um slot: até ctx acabar quando AcquireTimeout <= 0,
// senão no máximo AcquireTimeout. ok=false significa que nenhum slot foi pego.
func (s InflightService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}
