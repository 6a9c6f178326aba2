package render

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spektr-org/livingcost/catalog"
	"github.com/spektr-org/livingcost/chart"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

func failing(bad string) Renderer {
	return RendererFunc(func(_ context.Context, target string, _ chart.Spec) (View, error) {
		if target == bad {
			return View{}, errBoom
		}
		return View{Target: target, Data: []byte("ok")}, nil
	})
}

func TestSubmitAllFailuresStayIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewSubmitter(WithLogger(zap.New(core)))

	entries := catalog.All()
	pending := s.SubmitAll(context.Background(), failing(catalog.TargetWageAllocation), entries)
	require.Len(t, pending, len(entries))

	err := Wait(pending)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "render "+catalog.TargetWageAllocation+": boom")

	for _, p := range pending {
		view, err := p.Result()
		if p.Target == catalog.TargetWageAllocation {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err, p.Target)
		assert.Equal(t, p.Target, view.Target)
	}

	assert.Equal(t, 1, logs.FilterMessage("chart render failed").Len())
	assert.Equal(t, len(entries)-1, logs.FilterMessage("chart rendered").Len())

	failed := logs.FilterMessage("chart render failed").All()[0]
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Equal(t, catalog.TargetWageAllocation, failed.ContextMap()["target"])
}

func TestSubmitAllRecoversRendererPanic(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	s := NewSubmitter(WithLogger(zap.New(core)), WithMetrics(metrics), WithConcurrency(2))

	r := RendererFunc(func(_ context.Context, target string, _ chart.Spec) (View, error) {
		if target == catalog.TargetWageAllocation {
			var m map[string]int
			m[target]++
		}
		return View{Target: target}, nil
	})

	entries := catalog.All()
	pending := s.SubmitAll(context.Background(), r, entries)
	for _, p := range pending {
		_, err := p.Result()
		if p.Target == catalog.TargetWageAllocation {
			require.Error(t, err)
			assert.Contains(t, err.Error(), "render "+catalog.TargetWageAllocation+": panic:")
			continue
		}
		assert.NoError(t, err, p.Target)
	}

	assert.Equal(t, 1, logs.FilterMessage("chart render failed").Len())
	assert.Equal(t, len(entries)-1, logs.FilterMessage("chart rendered").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.renders.WithLabelValues(catalog.TargetWageAllocation, "error")))
}

func TestSubmitDoesNotWait(t *testing.T) {
	release := make(chan struct{})
	r := RendererFunc(func(ctx context.Context, target string, _ chart.Spec) (View, error) {
		<-release
		return View{Target: target}, nil
	})

	s := NewSubmitter(WithConcurrency(1))
	first := s.Submit(context.Background(), r, "a", chart.Spec{})
	second := s.Submit(context.Background(), r, "b", chart.Spec{})

	assert.NotEqual(t, first.ID, second.ID)
	select {
	case <-first.Done():
		t.Fatal("submission resolved before the renderer returned")
	case <-second.Done():
		t.Fatal("submission resolved before the renderer returned")
	default:
	}

	close(release)
	require.NoError(t, Wait([]*Pending{first, second}))
}

func TestConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	r := RendererFunc(func(_ context.Context, target string, _ chart.Spec) (View, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return View{Target: target}, nil
	})

	s := NewSubmitter(WithConcurrency(2))
	pending := s.SubmitAll(context.Background(), r, catalog.All())
	require.NoError(t, Wait(pending))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCancelledWhileQueued(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := RendererFunc(func(_ context.Context, target string, _ chart.Spec) (View, error) {
		close(started)
		<-release
		return View{Target: target}, nil
	})

	s := NewSubmitter(WithConcurrency(1))
	ctx, cancel := context.WithCancel(context.Background())
	running := s.Submit(context.Background(), r, "running", chart.Spec{})
	<-started
	queued := s.Submit(ctx, r, "queued", chart.Spec{})

	cancel()
	_, err := queued.Result()
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	_, err = running.Result()
	assert.NoError(t, err)
}

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	s := NewSubmitter(WithMetrics(m))
	pending := s.SubmitAll(context.Background(), failing("b"), []catalog.Entry{
		{Target: "a"}, {Target: "b"}, {Target: "a"},
	})
	_ = Wait(pending)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.renders.WithLabelValues("a", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("b", "error")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice fails")
}
