package eventbus

import (
	"encoding/json"
	"sync"
)

type (
	// Bus fans operation events out to any number of listeners keyed by
	// operation id. Delivery order matches broadcast order per identifier, so
	// log lines arrive exactly as the external tool emitted them.
	Bus interface {
		Register(identifier string) chan Event
		Unregister(identifier string, ch chan Event)
		Broadcast(identifier string, evType Type, message string)
		BroadcastWithData(identifier string, evType Type, message string, data []byte)
	}

	Event struct {
		Type    Type            `json:"type"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}

	Type string
)

const (
	Error    Type = "error"
	Info     Type = "info"
	Warning  Type = "warning"
	Success  Type = "success"
	Complete Type = "complete"
)

type eventPublisher struct {
	events map[string][]chan Event
	lock   sync.Mutex
}

func New() Bus {
	return &eventPublisher{
		events: make(map[string][]chan Event),
	}
}

func (e *eventPublisher) Register(identifier string) chan Event {
	e.lock.Lock()
	defer e.lock.Unlock()

	ch := make(chan Event, 1000)
	e.events[identifier] = append(e.events[identifier], ch)
	return ch
}

func (e *eventPublisher) Unregister(identifier string, ch chan Event) {
	e.lock.Lock()
	defer e.lock.Unlock()

	listeners := e.events[identifier]
	for i, next := range listeners {
		if next == ch {
			e.events[identifier] = append(listeners[:i], listeners[i+1:]...)
			break
		}
	}
	if len(e.events[identifier]) == 0 {
		delete(e.events, identifier)
	}
}

func (e *eventPublisher) Broadcast(identifier string, evType Type, message string) {
	e.BroadcastWithData(identifier, evType, message, nil)
}

func (e *eventPublisher) BroadcastWithData(identifier string, evType Type, message string, data []byte) {
	e.lock.Lock()
	clients := make([]chan Event, len(e.events[identifier]))
	copy(clients, e.events[identifier])
	e.lock.Unlock()

	ev := Event{
		Type:    evType,
		Message: message,
		Data:    data,
	}

	for _, ch := range clients {
		select {
		case ch <- ev:
		default:
			// a stalled listener must not block the operation
		}
	}
}
