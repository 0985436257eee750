// Package admission fornece um middleware net/http que admite ou recusa cada
// requisição contra uma quota fixa por rota.
//
// Camadas:
//
//   - domain: contratos e tipos (sem net/http)
//   - application: Controller.Admit e o serviço de in-flight
//   - infra: contadores local e Redis, sinks de stats, pool de slots
//   - admission (este pacote): montagem do controller, extração da rota, respostas HTTP
//
// Fluxo da requisição:
//
//  1. Extrai o path da rota da requisição
//  2. Pede uma decisão ao controller (que incrementa o contador no allow)
//  3. Rota desconhecida -> 404, quota esgotada -> 429, store fora -> 503
//  4. No allow, chama o próximo handler
//
// Os contadores nunca zeram sozinhos. No modo local vivem enquanto o processo
// vive; no modo shared ficam no Redis em "routeCounts:<path>" e é lá que
// precisam ser zerados.
package admission
