package domain

import (
	"context"
	"fmt"
	"strings"
)

// Mode escolhe onde os contadores ficam.
type Mode string

const (
	// ModeLocal guarda os contadores na memória do processo.
	ModeLocal Mode = "local"
	// ModeShared guarda os contadores num key/value store compartilhado por
	// todas as instâncias.
	ModeShared Mode = "shared"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeShared:
		return ModeShared, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Outcome é o resultado de uma checagem de admissão. O valor zero não é uma
// decisão, então um Decision zerado nunca admite.
type Outcome int

const (
	Allow Outcome = iota + 1
	RejectUnknownRoute
	RejectQuotaExceeded
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RejectUnknownRoute:
		return "unknown_route"
	case RejectQuotaExceeded:
		return "quota_exceeded"
	}
	return "outcome(" + fmt.Sprint(int(o)) + ")"
}

type Decision struct {
	Outcome Outcome
	Route   Route
	// Count é o valor do contador observado antes de aplicar a decisão.
	Count int64
	// Quota é zero para rotas desconhecidas.
	Quota int64
}

func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Counter é uma estratégia de contagem. Admit confere a rota contra a quota
// e, quando passa, incrementa o contador da rota em exatamente um.
//
// Recusas voltam em Decision.Outcome. Erro não nil significa que não deu para
// saber o estado da quota.
type Counter interface {
	Admit(ctx context.Context, route Route) (Decision, error)
	Count(ctx context.Context, route Route) (int64, error)
	Mode() Mode
	Close() error
}
