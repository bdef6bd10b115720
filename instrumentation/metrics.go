// Package instrumentation exports simulator events as OpenTelemetry metrics.
package instrumentation

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/trace"
)

// MeterName is the instrumentation scope of the metrics hook.
const MeterName = "github.com/sarchlab/cachesim"

// MetricsHook counts accesses, misses and evictions. It is safe for
// concurrent use, so one hook can observe every simulator of a sweep.
type MetricsHook struct {
	accesses  metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
}

// NewMetricsHook creates the counters on meter.
func NewMetricsHook(meter metric.Meter) (*MetricsHook, error) {
	accesses, err := meter.Int64Counter(
		"cache.accesses",
		metric.WithDescription("Number of replayed accesses"),
		metric.WithUnit("{access}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Number of accesses that missed"),
		metric.WithUnit("{access}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Number of blocks evicted from full sets"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHook{
		accesses:  accesses,
		misses:    misses,
		evictions: evictions,
	}, nil
}

// Func records the event described by ctx.
func (h *MetricsHook) Func(ctx hooking.HookCtx) {
	rec, ok := ctx.Item.(trace.AccessRecord)
	if !ok {
		return
	}

	attrs := geometryAttrs(ctx.Domain)

	switch ctx.Pos {
	case cache.HookPosAccess:
		attrs = append(attrs, attribute.String("cache.op", rec.Op.String()))
		opt := metric.WithAttributes(attrs...)

		h.accesses.Add(context.Background(), 1, opt)
		if !ctx.Detail.(cache.AccessDetail).Hit {
			h.misses.Add(context.Background(), 1, opt)
		}
	case cache.HookPosEvict:
		h.evictions.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	}
}

type geometryOwner interface {
	Geometry() cache.Geometry
}

func geometryAttrs(domain hooking.Hookable) []attribute.KeyValue {
	owner, ok := domain.(geometryOwner)
	if !ok {
		return nil
	}

	g := owner.Geometry()

	return []attribute.KeyValue{
		attribute.Int("cache.ways", g.Ways()),
		attribute.Int("cache.sets", g.SetCount()),
		attribute.Int("cache.block_size", g.BlockSize()),
	}
}

// NewStdoutMeterProvider creates a meter provider that prints every metric
// to w when it is shut down.
func NewStdoutMeterProvider(w io.Writer) (*sdkmetric.MeterProvider, error) {
	exp, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
	), nil
}
