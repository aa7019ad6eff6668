// Package cluster holds the engine's global view of the mesh it sits in:
// this node's own address, the inward/outward peer sets, and a quitting
// flag set when the node begins shutting down. It mirrors pioneer's
// original system::context singleton, made an explicit component here
// because netio and inward both mutate it.
package cluster

import "sync"

// View is the cluster-wide state every component shares. The zero value is
// not ready for use; construct with New.
type View struct {
	mu sync.Mutex

	localIP  string
	quitting bool

	outwardIPs map[string]struct{} // external-client peers (outward direction)
	inwardIPs  map[string]struct{} // intra-cluster peers (inward direction)
}

func New(localIP string) *View {
	return &View{
		localIP:    localIP,
		outwardIPs: make(map[string]struct{}),
		inwardIPs:  make(map[string]struct{}),
	}
}

func (v *View) LocalIP() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.localIP
}

// Quitting reports whether SetQuitting has been called (node.Stop does so
// first). No component in this module checks it before accepting or
// originating a call.
func (v *View) Quitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quitting
}

func (v *View) SetQuitting() {
	v.mu.Lock()
	v.quitting = true
	v.mu.Unlock()
}

func (v *View) AddOutward(ip string) {
	v.mu.Lock()
	v.outwardIPs[ip] = struct{}{}
	v.mu.Unlock()
}

func (v *View) RemoveOutward(ip string) {
	v.mu.Lock()
	delete(v.outwardIPs, ip)
	v.mu.Unlock()
}

func (v *View) AddInward(ip string) {
	v.mu.Lock()
	v.inwardIPs[ip] = struct{}{}
	v.mu.Unlock()
}

func (v *View) RemoveInward(ip string) {
	v.mu.Lock()
	delete(v.inwardIPs, ip)
	v.mu.Unlock()
}

// OutwardCount and InwardCount give an O(1) peer count without copying the
// full address set, for status reporting.
func (v *View) OutwardCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.outwardIPs)
}

func (v *View) InwardCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.inwardIPs)
}

// OutwardIPs and InwardIPs return a snapshot suitable for iteration.
func (v *View) OutwardIPs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return keys(v.outwardIPs)
}

func (v *View) InwardIPs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return keys(v.inwardIPs)
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
