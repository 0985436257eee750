package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_CountsByOutcome(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	events := []domain.StatsEvent{
		{Route: "/a", Outcome: domain.Allow},
		{Route: "/a", Outcome: domain.Allow},
		{Route: "/a", Outcome: domain.RejectQuotaExceeded},
		{Route: "/x", Outcome: domain.RejectUnknownRoute},
		{Route: "/y", Outcome: domain.RejectUnknownRoute},
		{Route: "/a", Err: domain.ErrStoreUnavailable},
	}
	for _, ev := range events {
		require.NoError(t, s.Record(ctx, ev))
	}

	assert.Equal(t, Counters{Allowed: 2, UnknownRoute: 2, QuotaExceeded: 1, StoreErrors: 1}, s.Total())
	byRoute := s.ByRoute()
	assert.Equal(t, Counters{Allowed: 2, QuotaExceeded: 1, StoreErrors: 1}, byRoute["/a"])
	assert.Equal(t, Counters{UnknownRoute: 2}, byRoute[unknownRouteBucket])
	assert.NotContains(t, byRoute, domain.Route("/x"))
}

func TestMemoryStatsStore_TrackUnknownRoutes(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackUnknownRoutes(true))
	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Route: "/x", Outcome: domain.RejectUnknownRoute}))

	assert.Equal(t, Counters{UnknownRoute: 1}, s.ByRoute()["/x"])
}

func TestRedisStatsStore_Record(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStatsStore(rdb, WithStatsPrefix("st:"), WithStatsTTL(time.Hour))
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	require.NoError(t, s.Record(ctx, domain.StatsEvent{Route: "/a", Outcome: domain.Allow, At: at}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Route: "/a", Outcome: domain.RejectQuotaExceeded, At: at}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Route: "/zzz", Outcome: domain.RejectUnknownRoute, At: at}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Route: "/a", Err: errors.New("boom"), At: at}))

	assert.Equal(t, "1", mr.HGet("st:total", "allow"))
	assert.Equal(t, "1", mr.HGet("st:total", "quota_exceeded"))
	assert.Equal(t, "1", mr.HGet("st:total", "unknown_route"))
	assert.Equal(t, "1", mr.HGet("st:total", "store_error"))

	assert.Equal(t, "1", mr.HGet("st:route", "/a:allow"))
	assert.Equal(t, "1", mr.HGet("st:route", "/a:store_error"))
	assert.Equal(t, "", mr.HGet("st:route", "/zzz:unknown_route"))

	bucket := "st:minute:202603040506"
	assert.Equal(t, "1", mr.HGet(bucket, "allow"))
	assert.Equal(t, time.Hour, mr.TTL(bucket))
}

func TestRedisStatsStore_NoBucket(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStatsStore(rdb, WithStatsBucket("none"))

	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Route: "/a", Outcome: domain.Allow}))

	assert.Equal(t, "1", mr.HGet("admission:stats:total", "allow"))
	assert.ElementsMatch(t, []string{"admission:stats:total", "admission:stats:route"}, mr.Keys())
}

func TestPrometheusStats_Record(t *testing.T) {
	quotas := mustQuotas(t, map[string]int64{"/a": 3})
	p := NewPrometheusStats(quotas, nil)
	ctx := context.Background()

	require.NoError(t, p.Record(ctx, domain.StatsEvent{Route: "/a", Outcome: domain.Allow, Duration: time.Millisecond}))
	require.NoError(t, p.Record(ctx, domain.StatsEvent{Route: "/a", Outcome: domain.Allow}))
	require.NoError(t, p.Record(ctx, domain.StatsEvent{Route: "/nope", Outcome: domain.RejectUnknownRoute}))
	require.NoError(t, p.Record(ctx, domain.StatsEvent{Route: "/a", Err: domain.ErrStoreUnavailable}))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.decisions.WithLabelValues("/a", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("<unknown>", "unknown_route")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.storeErrors.WithLabelValues("/a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.quota.WithLabelValues("/a")))
}

type failingStats struct{ calls int }

func (f *failingStats) Record(context.Context, domain.StatsEvent) error {
	f.calls++
	return errors.New("sink down")
}

func TestMultiStats_CallsEverySink(t *testing.T) {
	mem := NewMemoryStatsStore()
	bad := &failingStats{}
	m := MultiStats{bad, nil, mem}

	err := m.Record(context.Background(), domain.StatsEvent{Route: "/a", Outcome: domain.Allow})
	require.Error(t, err)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, int64(1), mem.Total().Allowed)
}
