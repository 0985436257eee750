package infra

import (
	"context"

	"admission-gateway/middleware/admission/domain"
)

// ChanPool é um semáforo de canal com buffer. Um send ocupa um slot.
type ChanPool struct {
	slots chan struct{}
}

var _ domain.SlotPool = (*ChanPool)(nil)

func NewChanPool(size int) *ChanPool {
	if size < 1 {
		size = 1
	}
	return &ChanPool{slots: make(chan struct{}, size)}
}

func (p *ChanPool) Acquire(ctx context.Context) (func(), bool) {
	// slot livre ganha de um ctx já expirado
	select {
	case p.slots <- struct{}{}:
		return p.release, true
	default:
	}
	select {
	case p.slots <- struct{}{}:
		return p.release, true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *ChanPool) release() { <-p.slots }

// InUse informa quantos slots estão ocupados agora.
func (p *ChanPool) InUse() int { return len(p.slots) }

func (p *ChanPool) Size() int { return cap(p.slots) }
