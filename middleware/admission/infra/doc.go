// Package infra contém as implementações concretas dos contratos de domain.
//
//   - LocalCounter: contadores em memória protegidos por mutex
//   - SharedCounter: contadores no Redis (github.com/redis/go-redis/v9)
//   - MemoryStatsStore, RedisStatsStore, PrometheusStats: estatísticas das decisões
//   - ChanPool: semáforo de canal para o limite de in-flight
//
// # Estouro no modo shared
//
// SharedCounter lê o contador e incrementa em duas idas ao store. Duas
// instâncias podem ler quota-1 e incrementar, então uma rota pode admitir
// até (instâncias concorrentes - 1) a mais. O INCR em si é atômico, então
// nenhum incremento se perde. LocalCounter segura um lock durante todo o
// check-then-increment e nunca admite a mais.
package infra
