package admission

import (
	"net/http"
	"strings"
)

// RouteFunc extrai o path da rota contra o qual a requisição é admitida.
type RouteFunc func(r *http.Request) string

// DefaultRouteFunc usa o path do pattern do ServeMux quando ele identifica
// uma rota só (ex: "GET /items/{id}"). Patterns de subárvore ("/", "/api/",
// "/files/{rest...}") casam com muitas rotas, então nesses casos vale r.URL.Path.
//
// stripPrefix é removido antes, para um gateway montado em /api usar os paths
// "puros" na tabela de quotas.
func DefaultRouteFunc(stripPrefix string) RouteFunc {
	stripPrefix = strings.TrimRight(strings.TrimSpace(stripPrefix), "/")
	return func(r *http.Request) string {
		path := r.URL.Path
		if p := patternPath(r.Pattern); p != "" {
			path = p
		}
		if stripPrefix != "" {
			if rest, ok := strings.CutPrefix(path, stripPrefix); ok && (rest == "" || rest[0] == '/') {
				path = rest
				if path == "" {
					path = "/"
				}
			}
		}
		return path
	}
}

// patternPath tira método e host de um pattern do ServeMux
// ("GET example.com/items/{id}" -> "/items/{id}").
// Retorna "" para patterns de subárvore.
func patternPath(pattern string) string {
	if pattern == "" {
		return ""
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = strings.TrimSpace(pattern[i+1:])
	}
	if i := strings.IndexByte(pattern, '/'); i > 0 {
		pattern = pattern[i:]
	}
	if strings.HasSuffix(pattern, "/") || strings.HasSuffix(pattern, "...}") {
		return ""
	}
	return pattern
}
