// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host

import (
	"sync"
	"sync/atomic"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// BufferPool recycles frame storage per geometry. Buffers handed out by Get
// return to the pool when their last reference is dropped.
type BufferPool struct {
	mu          sync.Mutex
	pools       map[frameplugin.FrameConfig]*sync.Pool
	outstanding atomic.Int64
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{pools: make(map[frameplugin.FrameConfig]*sync.Pool)}
}

// Get returns zeroed storage for cfg with one reference held by the caller.
func (p *BufferPool) Get(cfg frameplugin.FrameConfig) (*frameplugin.Buffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var pix []byte
	if v, ok := p.poolFor(cfg).Get().(*[]byte); ok {
		pix = *v
		clear(pix)
	} else {
		pix = make([]byte, cfg.Size())
	}
	b, err := frameplugin.WrapBuffer(cfg, pix, p.put)
	if err != nil {
		return nil, err
	}
	p.outstanding.Add(1)
	return b, nil
}

// Outstanding returns how many buffers from Get are still referenced.
func (p *BufferPool) Outstanding() int64 {
	return p.outstanding.Load()
}

func (p *BufferPool) put(b *frameplugin.Buffer) {
	pix := b.Bytes()
	p.poolFor(b.Config()).Put(&pix)
	p.outstanding.Add(-1)
}

func (p *BufferPool) poolFor(cfg frameplugin.FrameConfig) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.pools[cfg]
	if !ok {
		sp = &sync.Pool{}
		p.pools[cfg] = sp
	}
	return sp
}
