package admission

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalController(t *testing.T, quotas map[string]int64) *application.Controller {
	t.Helper()
	ctrl, err := New(context.Background(), Config{Mode: domain.ModeLocal, Quotas: quotas})
	require.NoError(t, err)
	return ctrl
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeRejection(t *testing.T, w *httptest.ResponseRecorder) Rejection {
	t.Helper()
	var rej Rejection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rej))
	return rej
}

func TestMiddleware_AllowsUntilQuotaThenRejects(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/a": 2})

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	h := Middleware(ctrl, Options{})(next)

	for i := 0; i < 2; i++ {
		w := serve(h, http.MethodGet, "http://example/a")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := serve(h, http.MethodGet, "http://example/a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	rej := decodeRejection(t, w)
	assert.Equal(t, http.StatusTooManyRequests, rej.Status)
	assert.Contains(t, rej.Message, "/a")
	assert.Equal(t, "/a", rej.Route)

	assert.Equal(t, 2, calls, "next must not run on rejection")
}

func TestMiddleware_UnknownRoute(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/a": 2})

	called := false
	h := Middleware(ctrl, Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := serve(h, http.MethodGet, "http://example/b")
	assert.Equal(t, http.StatusNotFound, w.Code)
	rej := decodeRejection(t, w)
	assert.Equal(t, http.StatusNotFound, rej.Status)
	assert.Contains(t, rej.Message, "/b")
	assert.False(t, called)
}

func TestMiddleware_AdmissionHeaders(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/a": 3})
	h := Middleware(ctrl, Options{AddAdmissionHeaders: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := serve(h, http.MethodGet, "http://example/a")
	assert.Equal(t, "/a", w.Header().Get("X-Admission-Route"))
	assert.Equal(t, "3", w.Header().Get("X-Admission-Quota"))
	assert.Equal(t, "1", w.Header().Get("X-Admission-Count"))

	w = serve(h, http.MethodGet, "http://example/zzz")
	assert.Equal(t, "/zzz", w.Header().Get("X-Admission-Route"))
	assert.Empty(t, w.Header().Get("X-Admission-Quota"))
}

func TestMiddleware_StripPrefix(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/items": 1})
	h := Middleware(ctrl, Options{StripPrefix: "/api/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "http://example/api/items").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "http://example/api/items").Code)
}

func TestMiddleware_RequestIDs(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/a": 5})

	var seen string
	h := Middleware(ctrl, Options{RequestIDs: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	w := serve(h, http.MethodGet, "http://example/a")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	r := httptest.NewRequest(http.MethodGet, "http://example/a", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestMiddleware_StoreUnavailableIs503(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	ctrl, err := New(context.Background(), Config{
		Mode:   domain.ModeShared,
		Quotas: map[string]int64{"/a": 5},
	}, WithRedisClient(rdb))
	require.NoError(t, err)

	called := 0
	h := Middleware(ctrl, Options{RetryAfter: 2500 * time.Millisecond})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "http://example/a").Code)

	mr.SetError("ERR store offline")
	w := serve(h, http.MethodGet, "http://example/a")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	rej := decodeRejection(t, w)
	assert.Equal(t, http.StatusServiceUnavailable, rej.Status)
	assert.Contains(t, rej.Message, "/a")
	assert.Equal(t, 1, called)
}

func TestMiddleware_UsesMuxPattern(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/items/{id}": 1})

	mux := http.NewServeMux()
	admit := Middleware(ctrl, Options{})
	mux.Handle("GET /items/{id}", admit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "http://example/items/1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(mux, http.MethodGet, "http://example/items/2").Code)
}

func TestMiddleware_CatchAllMountKeepsRoutesApart(t *testing.T) {
	ctrl := newLocalController(t, map[string]int64{"/a": 2, "/b": 2})

	mux := http.NewServeMux()
	mux.Handle("/", Middleware(ctrl, Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "http://example/a").Code, "/a request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(mux, http.MethodGet, "http://example/a").Code)
	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "http://example/b").Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, http.MethodGet, "http://example/c").Code)
}
