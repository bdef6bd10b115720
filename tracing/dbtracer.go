package tracing

import (
	"sync"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/trace"
)

// AccessTableName is the table that a DBTracer writes into.
const AccessTableName = "cache_accesses"

// AccessEntry is one row of the access table.
type AccessEntry struct {
	Cache     string
	Seq       uint64
	Op        string
	Address   uint64
	Tag       uint64
	SetIndex  uint64
	Hit       bool
	Evicted   bool
	VictimTag uint64
	Count     uint64
}

// A DBTracer is a hook that records every access into a data recorder. One
// DBTracer can be shared by simulators that run concurrently; rows are
// numbered per simulator.
type DBTracer struct {
	lock         sync.Mutex
	dataRecorder datarecording.DataRecorder
	seq          map[hooking.Hookable]uint64
}

// NewDBTracer creates a DBTracer and the table it writes into.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
		seq:          make(map[hooking.Hookable]uint64),
	}

	t.dataRecorder.CreateTable(AccessTableName, AccessEntry{})

	return t
}

// Func records an access. Evictions are folded into the access row.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	rec, ok := ctx.Item.(trace.AccessRecord)
	if !ok {
		return
	}

	detail := ctx.Detail.(cache.AccessDetail)

	t.lock.Lock()
	defer t.lock.Unlock()

	t.seq[ctx.Domain]++

	entry := AccessEntry{
		Cache:     domainName(ctx.Domain),
		Seq:       t.seq[ctx.Domain],
		Op:        rec.Op.String(),
		Address:   rec.Address,
		Tag:       detail.Decoded.Tag,
		SetIndex:  detail.Decoded.Index,
		Hit:       detail.Hit,
		Evicted:   detail.Evicted,
		VictimTag: detail.VictimTag,
		Count:     detail.Count,
	}

	t.dataRecorder.InsertData(AccessTableName, entry)
}
