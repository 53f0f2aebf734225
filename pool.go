package apprun

import "sync"

// pool manages object pools for the hot paths of the runtime: one Emission
// per event delivery and one invocation record per task run. Adapted from
// the teacher's PoolManager (pool_manager.go), which pools ResolveCtx and
// ExecutionCtx; here the pooled shapes are EventManager's Emission and
// TaskRunner's taskInvocation instead, since apprun has no per-resolve
// context object to pool.
type pool struct {
	emissionPool sync.Pool
	invokePool   sync.Pool

	metrics poolMetrics
}

// poolMetrics tracks pool hit/miss counters, mirroring the teacher's
// PoolMetrics (pool_manager.go) but scoped to the two pools apprun actually
// needs.
type poolMetrics struct {
	mu                sync.RWMutex
	emissionHits       uint64
	emissionMisses     uint64
	invokeHits         uint64
	invokeMisses       uint64
}

// taskInvocation is a pooled scratch record for one TaskRunner.Run call,
// carrying the suppress flags threaded through the before/after/onError
// lifecycle payloads so a single allocation serves the whole invocation.
type taskInvocation struct {
	beforeSuppressed bool
	errSuppressed    bool
}

func newPool() *pool {
	return &pool{
		emissionPool: sync.Pool{
			New: func() any { return &Emission{} },
		},
		invokePool: sync.Pool{
			New: func() any { return &taskInvocation{} },
		},
	}
}

func (p *pool) getEmission() *Emission {
	em, ok := p.emissionPool.Get().(*Emission)
	p.metrics.mu.Lock()
	if ok {
		p.metrics.emissionHits++
	} else {
		p.metrics.emissionMisses++
		em = &Emission{}
	}
	p.metrics.mu.Unlock()
	return em
}

func (p *pool) putEmission(em *Emission) {
	if em == nil {
		return
	}
	em.reset()
	p.emissionPool.Put(em)
}

func (p *pool) getInvocation() *taskInvocation {
	inv, ok := p.invokePool.Get().(*taskInvocation)
	p.metrics.mu.Lock()
	if ok {
		p.metrics.invokeHits++
	} else {
		p.metrics.invokeMisses++
		inv = &taskInvocation{}
	}
	p.metrics.mu.Unlock()
	return inv
}

func (p *pool) putInvocation(inv *taskInvocation) {
	if inv == nil {
		return
	}
	inv.beforeSuppressed = false
	inv.errSuppressed = false
	p.invokePool.Put(inv)
}

// Metrics returns a snapshot of pool hit/miss counts, exposed for the
// graphctl CLI's `stats` command.
func (p *pool) Metrics() (emissionHits, emissionMisses, invokeHits, invokeMisses uint64) {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return p.metrics.emissionHits, p.metrics.emissionMisses, p.metrics.invokeHits, p.metrics.invokeMisses
}
