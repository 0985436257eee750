package domain

import "context"

// SlotPool limita quantas requisições são atendidas ao mesmo tempo.
//
// Acquire bloqueia até um slot ficar livre ou ctx acabar. No sucesso a func
// release retornada deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
