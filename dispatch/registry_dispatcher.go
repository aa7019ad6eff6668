package dispatch

import (
	"github.com/galaxyeye/pioneer/registry"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/wire"
)

// RegistryDispatcher adapts a function registry into the dispatcher-chain
// shape: it claims any fn_id that has a registered adapter and declines
// everything else.
type RegistryDispatcher struct {
	reg *registry.Registry
}

func NewRegistryDispatcher(reg *registry.Registry) *RegistryDispatcher {
	return &RegistryDispatcher{reg: reg}
}

func (d *RegistryDispatcher) Dispatch(fnID int32, body wire.Tuple, ctx rpc.Context) rpc.Result {
	adapter, ok := d.reg.Lookup(fnID)
	if !ok {
		return rpc.NotMine()
	}
	// the trailing KindNil slot (the context placeholder) is never
	// decoded; Adapter.Invoke injects ctx directly into the handler call.
	return adapter.Invoke(body, ctx)
}
