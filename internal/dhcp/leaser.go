package dhcp

import (
	"net"
	"net/netip"
	"sync"
	"time"
)

// Leaser decides which address a client gets.
type Leaser interface {
	// Offer proposes an address for the client.
	Offer(mac net.HardwareAddr) (netip.Addr, bool)
	// Bind confirms addr for the client. A false result is answered with a NAK.
	Bind(mac net.HardwareAddr, addr netip.Addr) bool
	// Release forgets the client's binding.
	Release(mac net.HardwareAddr)
}

// Binding is the leaser's record of the current holder.
type Binding struct {
	MAC     string
	Addr    netip.Addr
	BoundAt time.Time
}

// SingleLeaser hands out one fixed address to whoever asks. There is no
// pool and no conflict detection: a second client gets the same offer and
// becomes the recorded holder once it requests it.
type SingleLeaser struct {
	addr netip.Addr

	mu      sync.Mutex
	binding *Binding
}

// NewSingleLeaser returns a leaser for addr.
func NewSingleLeaser(addr netip.Addr) *SingleLeaser {
	return &SingleLeaser{addr: addr}
}

// Addr returns the fixed leased address.
func (l *SingleLeaser) Addr() netip.Addr {
	return l.addr
}

func (l *SingleLeaser) Offer(mac net.HardwareAddr) (netip.Addr, bool) {
	return l.addr, l.addr.IsValid()
}

func (l *SingleLeaser) Bind(mac net.HardwareAddr, addr netip.Addr) bool {
	if addr != l.addr {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.binding = &Binding{MAC: mac.String(), Addr: addr, BoundAt: time.Now()}
	return true
}

func (l *SingleLeaser) Release(mac net.HardwareAddr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.binding != nil && l.binding.MAC == mac.String() {
		l.binding = nil
	}
}

// Current returns the current binding, if any.
func (l *SingleLeaser) Current() (Binding, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.binding == nil {
		return Binding{}, false
	}
	return *l.binding, true
}
