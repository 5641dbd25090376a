// Package event delivers change notifications from editable entities to
// whoever is watching them (typically the editor UI).
//
// Delivery is synchronous: a handler runs before the mutating call that
// triggered it returns. Handlers may mutate entities again, which emits
// nested changes; nesting deeper than MaxDepth is dropped and counted.
package event

// MaxDepth is the maximum nesting of Emit calls made from inside handlers
const MaxDepth = 8

// Change identifies which field of which entity was modified
type Change struct {
	Source string // Entity identifier, e.g. "track/3" or "settings/ModeNames"
	Field  string // Field identifier, e.g. "AI" or "Item[2]"
}

// Handler receives change records
type Handler func(Change)

// Subscription identifies a registered handler
type Subscription int

// Feed is a list of handlers. The zero value is ready to use.
type Feed struct {
	handlers []entry
	next     Subscription
	depth    int
	dropped  int
}

type entry struct {
	id      Subscription
	handler Handler
}

// Subscribe registers a handler and returns its subscription
func (f *Feed) Subscribe(h Handler) Subscription {
	f.next++
	f.handlers = append(f.handlers, entry{id: f.next, handler: h})
	return f.next
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (f *Feed) Unsubscribe(s Subscription) {
	for i, e := range f.handlers {
		if e.id == s {
			f.handlers = append(f.handlers[:i:i], f.handlers[i+1:]...)
			return
		}
	}
}

// Emit delivers a change to every handler in subscription order
func (f *Feed) Emit(c Change) {
	if len(f.handlers) == 0 {
		return
	}
	if f.depth >= MaxDepth {
		f.dropped++
		return
	}

	f.depth++
	defer func() { f.depth-- }()

	// Handlers (un)subscribing during delivery do not affect this round
	handlers := make([]entry, len(f.handlers))
	copy(handlers, f.handlers)
	for _, e := range handlers {
		e.handler(c)
	}
}

// Dropped returns how many changes were discarded for exceeding MaxDepth
func (f *Feed) Dropped() int {
	return f.dropped
}
