// Package tracing provides hooks that record what a cache simulator does on
// every access.
package tracing

import (
	"log"
	"sync"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/trace"
)

// A LogTracer is a hook that writes one line per access and per eviction.
type LogTracer struct {
	lock   sync.Mutex
	logger *log.Logger
}

// NewLogTracer creates a new LogTracer.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func logs the access or eviction described by ctx.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	rec, ok := ctx.Item.(trace.AccessRecord)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case cache.HookPosAccess:
		detail := ctx.Detail.(cache.AccessDetail)
		t.logger.Printf("access, %s, %s, 0x%x, tag 0x%x, index %d, %s\n",
			domainName(ctx.Domain),
			rec.Op,
			rec.Address,
			detail.Decoded.Tag,
			detail.Decoded.Index,
			hitOrMiss(detail.Hit))
	case cache.HookPosEvict:
		detail := ctx.Detail.(cache.EvictionDetail)
		t.logger.Printf("evict, %s, index %d, tag 0x%x, count %d\n",
			domainName(ctx.Domain),
			detail.Index,
			detail.Tag,
			detail.Count)
	}
}

func hitOrMiss(hit bool) string {
	if hit {
		return "hit"
	}

	return "miss"
}

type geometryOwner interface {
	Geometry() cache.Geometry
}

func domainName(domain hooking.Hookable) string {
	if owner, ok := domain.(geometryOwner); ok {
		return owner.Geometry().String()
	}

	return "unknown"
}
