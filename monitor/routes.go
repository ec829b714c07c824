package monitor

import (
	"sync"
	"sync/atomic"
)

// dispatcher is what a route handle resolves to. It holds the frozen handler
// registry but not the Monitor, so the facility never keeps a Monitor alive.
type dispatcher struct {
	handlers handlers
	closed   atomic.Bool
}

func (d *dispatcher) dispatch(e Event) {
	if d.closed.Load() {
		return
	}
	d.handlers.dispatch(e)
}

// routeTable maps the opaque userInfo handed to a facility to its dispatcher.
type routeTable struct {
	mu     sync.RWMutex
	next   uintptr
	routes map[uintptr]*dispatcher
}

var routes = &routeTable{routes: make(map[uintptr]*dispatcher)}

func (rt *routeTable) add(d *dispatcher) uintptr {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.next++
	rt.routes[rt.next] = d
	return rt.next
}

func (rt *routeTable) lookup(h uintptr) (*dispatcher, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	d, ok := rt.routes[h]
	return d, ok
}

func (rt *routeTable) remove(h uintptr) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.routes, h)
}

func (rt *routeTable) len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.routes)
}

// trampoline is the TapCallback given to every facility.
func trampoline(e Event, userInfo uintptr) Event {
	d, ok := routes.lookup(userInfo)
	if !ok {
		return nil
	}
	d.dispatch(e)
	return nil
}
