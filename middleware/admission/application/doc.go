// Package application contém os casos de uso da admissão.
//
// Depende só de domain e não sabe nada de net/http nem de Redis.
// Controller.Admit(ctx, route) retorna um domain.Decision; InflightService
// limita o trabalho concorrente com timeout de aquisição.
package application
