package surface

import "slices"

type listener struct {
	id ListenerID
	h  Handler
}

// Emitter is a synchronous event emitter. The zero value is ready to use.
// It is not safe for concurrent use.
type Emitter struct {
	next      ListenerID
	listeners map[string][]listener
}

// On registers h for events named name.
func (e *Emitter) On(name string, h Handler) ListenerID {
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.next++
	e.listeners[name] = append(e.listeners[name], listener{id: e.next, h: h})
	return e.next
}

// Off removes the registration id for name. Unknown ids are ignored.
func (e *Emitter) Off(name string, id ListenerID) {
	ls := e.listeners[name]
	ls = slices.DeleteFunc(slices.Clone(ls), func(l listener) bool { return l.id == id })
	if len(ls) == 0 {
		delete(e.listeners, name)
		return
	}
	e.listeners[name] = ls
}

// Fire calls every handler registered for name, in registration order.
// Handlers added or removed while firing take effect on the next Fire.
func (e *Emitter) Fire(name string, ev Event) {
	ev.Type = name
	for _, l := range e.listeners[name] {
		l.h(ev)
	}
}

// Listens reports whether any handler is registered for name.
func (e *Emitter) Listens(name string) bool {
	return len(e.listeners[name]) > 0
}
