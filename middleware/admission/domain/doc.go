// Package domain define os contratos e tipos do controle de admissão por rota.
//
// Não depende de net/http nem de um store concreto, então a camada de
// application pode ser testada com fakes simples.
package domain
