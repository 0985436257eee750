package admission

import (
	"net/http"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/infra"
)

type InflightOptions struct {
	// Max <= 0 desliga o limite.
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// InflightMiddleware limita quantas requisições são servidas ao mesmo tempo.
// A requisição que não consegue slot dentro de AcquireTimeout é recusada com
// RejectStatus (503 por padrão) e, quando envolve Middleware, não gasta
// quota de rota.
func InflightMiddleware(opts InflightOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.InflightService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				writeRejection(w, Rejection{
					Status:  opts.RejectStatus,
					Message: "too many requests in flight",
					Route:   r.URL.Path,
				})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
