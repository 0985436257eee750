package domain

import (
	"fmt"
	"sort"
)

// Route identifica um endpoint sujeito ao controle de admissão (o path).
type Route string

// QuotaTable mapeia cada rota admitida para o número de requisições que ela
// pode atender. É fixada na construção e nunca muda depois.
type QuotaTable struct {
	limits map[Route]int64
}

// NewQuotaTable copia quotas para uma tabela imutável.
// Limite 0 é aceito e não admite nada.
func NewQuotaTable(quotas map[string]int64) (QuotaTable, error) {
	if len(quotas) == 0 {
		return QuotaTable{}, ErrEmptyQuotas
	}
	limits := make(map[Route]int64, len(quotas))
	for path, limit := range quotas {
		if path == "" {
			return QuotaTable{}, fmt.Errorf("%w: empty route path", ErrInvalidQuota)
		}
		if limit < 0 {
			return QuotaTable{}, fmt.Errorf("%w: route %q has limit %d", ErrInvalidQuota, path, limit)
		}
		limits[Route(path)] = limit
	}
	return QuotaTable{limits: limits}, nil
}

// Limit retorna a quota configurada para route.
func (t QuotaTable) Limit(route Route) (int64, bool) {
	limit, ok := t.limits[route]
	return limit, ok
}

// Routes retorna as rotas configuradas em ordem lexical.
func (t QuotaTable) Routes() []Route {
	out := make([]Route, 0, len(t.limits))
	for r := range t.limits {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t QuotaTable) Len() int { return len(t.limits) }
