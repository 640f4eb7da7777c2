package tabula

import (
	"reflect"
	"sync"
)

// Changed is published by Table.Notify after dependent views were marked stale.
type Changed struct {
	IDs   []ComponentID
	Types []reflect.Type
}

// ViewUpdated is published every time a View recomputes its keys.
type ViewUpdated struct {
	Schema     string
	Keys       int
	Generation uint64
}

// EventBus is a type-keyed publish/subscribe hub. The Table owns one and
// publishes Changed and ViewUpdated on it, so observers such as debuggers or
// loggers can follow structural changes without being wired into the store.
//
// Handlers run synchronously on the publishing goroutine, in subscription
// order. They must not block on store locks held by the publisher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	t := reflect.TypeFor[T]()
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.handlers == nil {
		bus.handlers = make(map[reflect.Type][]any)
	}
	bus.handlers[t] = append(bus.handlers[t], handler)
}

// Publish delivers event to every handler subscribed to T. The handler list
// is snapshotted first, so handlers may subscribe further handlers.
func Publish[T any](bus *EventBus, event T) {
	t := reflect.TypeFor[T]()
	bus.mu.RLock()
	hs := bus.handlers[t]
	bus.mu.RUnlock()
	for _, h := range hs {
		h.(func(T))(event)
	}
}
