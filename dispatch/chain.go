// Package dispatch is the dispatcher chain. This single package also
// absorbs what the original source kept as two near-identical dispatcher
// hierarchies (rfc/ and rpc/): their divergence was accidental, there is
// exactly one chain here.
package dispatch

import (
	"sync"

	"github.com/galaxyeye/pioneer/nlog"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/wire"
)

// Dispatcher claims or declines a decoded frame. A Dispatch call returns a
// Result with IsFinal=false to mean "not mine, or mine but routing should
// continue" (both fold into the same continue action) and IsFinal=true to
// stop the chain.
type Dispatcher interface {
	Dispatch(fnID int32, body wire.Tuple, ctx rpc.Context) rpc.Result
}

// Chain routes a frame through an ordered set of dispatchers: the built-in
// resume dispatcher always first, then every registered dispatcher in LIFO
// order, newest first.
type Chain struct {
	builtin Dispatcher

	mu   sync.Mutex
	rest []Dispatcher
}

func NewChain(builtin Dispatcher) *Chain {
	return &Chain{builtin: builtin}
}

// Register adds d ahead of every previously-registered dispatcher.
func (c *Chain) Register(d Dispatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rest = append([]Dispatcher{d}, c.rest...)
}

// Route walks the chain; the first final result stops it. If nothing
// claims fnID, the frame is dropped and logged at low verbosity.
func (c *Chain) Route(fnID int32, body wire.Tuple, ctx rpc.Context) rpc.Result {
	c.mu.Lock()
	ordered := make([]Dispatcher, 0, len(c.rest)+1)
	ordered = append(ordered, c.builtin)
	ordered = append(ordered, c.rest...)
	c.mu.Unlock()

	for _, d := range ordered {
		res := d.Dispatch(fnID, body, ctx)
		if res.IsFinal {
			return res
		}
	}
	nlog.V(4).Infof("dispatch: fn_id %d claimed by no dispatcher, dropped", fnID)
	return rpc.NotMine()
}
