package admission

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

type Options struct {
	// RouteFn padrão: DefaultRouteFunc(StripPrefix).
	RouteFn     RouteFunc
	StripPrefix string
	// RetryAfter vai nas respostas 503 quando o store está fora.
	RetryAfter time.Duration
	// AddAdmissionHeaders preenche X-Admission-Route, -Quota e -Count.
	AddAdmissionHeaders bool
	// RequestIDs gera um uuid para requisições sem X-Request-Id.
	RequestIDs bool
	Logger     *slog.Logger
}

// Middleware pergunta ao ctrl, uma vez por requisição, se ela pode seguir
// para next.
func Middleware(ctrl *application.Controller, opts Options) func(next http.Handler) http.Handler {
	if opts.RouteFn == nil {
		opts.RouteFn = DefaultRouteFunc(opts.StripPrefix)
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.RequestIDs {
				id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
				if id == "" {
					id = uuid.NewString()
					r.Header.Set(RequestIDHeader, id)
				}
				w.Header().Set(RequestIDHeader, id)
			}

			route := opts.RouteFn(r)
			ctx := application.ContextWithMethod(r.Context(), r.Method)

			dec, err := ctrl.Admit(ctx, domain.Route(route))
			if err != nil {
				opts.Logger.Warn("admission unavailable",
					"route", route,
					"request_id", r.Header.Get(RequestIDHeader),
					"err", err,
				)
				w.Header().Set("Retry-After", retryAfterSeconds(opts.RetryAfter))
				writeRejection(w, storeUnavailable(route))
				return
			}

			if opts.AddAdmissionHeaders {
				w.Header().Set("X-Admission-Route", route)
				if dec.Outcome != domain.RejectUnknownRoute {
					w.Header().Set("X-Admission-Quota", formatInt(dec.Quota))
					w.Header().Set("X-Admission-Count", formatInt(admittedCount(dec)))
				}
			}

			switch dec.Outcome {
			case domain.Allow:
				next.ServeHTTP(w, r)
			case domain.RejectUnknownRoute:
				writeRejection(w, unknownRoute(route))
			default:
				writeRejection(w, quotaExceeded(route))
			}
		})
	}
}

// admittedCount é o valor do contador depois de aplicada a decisão.
func admittedCount(dec domain.Decision) int64 {
	if dec.Allowed() {
		return dec.Count + 1
	}
	return dec.Count
}
