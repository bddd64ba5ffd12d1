// SPDX-License-Identifier: MIT

package memorybus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/metrics"
)

type pingEvent struct {
	event.Base
}

func newPing() *pingEvent {
	return &pingEvent{Base: event.NewBase("test.Ping")}
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestEmitDeliversToNameAndWildcardSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New()
	named := b.Subscribe("test.Ping")
	t.Cleanup(func() { _ = named.Close() })
	all := b.Subscribe("")
	t.Cleanup(func() { _ = all.Close() })
	other := b.Subscribe("test.Pong")
	t.Cleanup(func() { _ = other.Close() })

	evt := newPing()
	require.NoError(t, b.Emit(context.Background(), evt))

	require.Equal(t, evt.ID(), (<-named.C()).ID())
	require.Equal(t, evt.ID(), (<-all.C()).ID())
	require.Empty(t, other.C())
}

func TestEmitContextTimeoutIncrementsDropMetric(t *testing.T) {
	b := New()
	sub := b.Subscribe("test.Ping")
	t.Cleanup(func() { _ = sub.Close() })

	// Fill the subscriber channel to capacity so the next emit blocks.
	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, b.Emit(context.Background(), newPing()))
	}

	initial := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("test.Ping", "timeout"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Emit(ctx, newPing())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	final := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("test.Ping", "timeout"))
	require.Greater(t, final, initial)
}

func TestEmitRejectsNilContext(t *testing.T) {
	b := New()
	err := b.Emit(nil, newPing()) //nolint:staticcheck // nil context path under test
	require.Error(t, err)
	require.Contains(t, err.Error(), "context is nil")
}

func TestEmitRejectsNilEvent(t *testing.T) {
	b := New()
	require.Error(t, b.Emit(context.Background(), nil))
}

func TestCloseDetachesSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe("test.Ping")
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	// A closed subscriber no longer receives and its channel is closed.
	require.NoError(t, b.Emit(context.Background(), newPing()))
	_, open := <-sub.C()
	require.False(t, open)
}

func TestEmitWithoutSubscribersIsNoop(t *testing.T) {
	b := New()
	require.NoError(t, b.Emit(context.Background(), newPing()))
}
