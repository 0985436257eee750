// Package config carrega a configuração do gateway.
//
// Primeiro lê o arquivo YAML, depois as variáveis ADMISSION_* sobrescrevem
// campos, depois entram os defaults e por fim o resultado é validado. Valor
// de ambiente malformado é erro. FromEnv pula o arquivo.
//
// Exemplo de arquivo:
//
//	mode: shared
//	quotas:
//	  /items: 1000
//	  /items/search: 100
//	store:
//	  url: redis://localhost:6379/0
//	  op_timeout: 250ms
//	http:
//	  listen_addr: ":8080"
//	  upstream_url: http://localhost:8081
//	log:
//	  level: info
//	  format: json
package config
