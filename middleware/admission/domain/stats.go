package domain

import (
	"context"
	"time"
)

// StatsEvent descreve uma decisão de admissão.
//
// Route vem da requisição e pode ser um path não configurado; sinks que
// indexam por rota precisam cuidar da cardinalidade.
type StatsEvent struct {
	Route   Route
	Outcome Outcome
	// Err vem preenchido quando o store falhou; aí Outcome não vale nada.
	Err error

	Method   string
	Duration time.Duration
	At       time.Time
}

// StatsStore persiste as estatísticas das decisões. Record é best-effort:
// nenhuma requisição falha por causa dele.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
