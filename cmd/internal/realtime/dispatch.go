package realtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"leadflow/cmd/internal/ids"
	v1 "leadflow/shared/contracts/realtime/v1"
)

// AnyType subscribes a handler to every inbound event, after the handlers
// registered for the event's own type.
const AnyType = "*"

// Handler reacts to one inbound event. A returned error is logged; it does
// not affect other handlers or later events.
type Handler func(ev v1.Event) error

// Subscription is one registered handler.
type Subscription struct {
	ID   string
	Type string

	h   Handler
	reg *registry

	once sync.Once
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.reg == nil {
		return
	}
	s.once.Do(func() { s.reg.remove(s) })
}

type registry struct {
	log     *slog.Logger
	metrics *Metrics

	mu     sync.RWMutex
	byType map[string][]*Subscription
}

func newRegistry(log *slog.Logger, m *Metrics) *registry {
	return &registry{log: log, metrics: m, byType: make(map[string][]*Subscription)}
}

func (r *registry) add(typ string, h Handler) *Subscription {
	id, err := ids.NewULID(time.Now())
	if err != nil {
		id = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Subscription{ID: id, Type: typ, h: h, reg: r}
	r.byType[typ] = append(r.byType[typ], s)
	return s
}

func (r *registry) remove(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byType[s.Type]
	for i, cur := range list {
		if cur == s {
			// Copy so snapshots taken by an in-flight dispatch stay intact.
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(r.byType, s.Type)
			} else {
				r.byType[s.Type] = next
			}
			return
		}
	}
}

func (r *registry) clear() {
	r.mu.Lock()
	r.byType = make(map[string][]*Subscription)
	r.mu.Unlock()
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, list := range r.byType {
		n += len(list)
	}
	return n
}

// dispatch runs every handler for ev's type, then the AnyType handlers,
// each in registration order.
func (r *registry) dispatch(ev v1.Event) {
	r.mu.RLock()
	typed := r.byType[ev.Type()]
	wild := r.byType[AnyType]
	r.mu.RUnlock()

	for _, s := range typed {
		r.call(s, ev)
	}
	for _, s := range wild {
		r.call(s, ev)
	}
}

func (r *registry) call(s *Subscription, ev v1.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.handlerFailure(ev.Type())
			r.log.Error("realtime.handler.panic", "type", ev.Type(), "sub_id", s.ID, "panic", fmt.Sprint(rec))
		}
	}()
	if err := s.h(ev); err != nil {
		r.metrics.handlerFailure(ev.Type())
		r.log.Warn("realtime.handler.fail", "type", ev.Type(), "sub_id", s.ID, "err", err)
	}
}

// Scope groups subscriptions so their owner can drop them all at once.
type Scope struct {
	c *Client

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// On registers h for typ within the scope. After Close it is a no-op that
// returns nil.
func (s *Scope) On(typ string, h Handler) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	sub := s.c.On(typ, h)
	s.subs = append(s.subs, sub)
	return sub
}

// Close unsubscribes every handler registered through the scope.
func (s *Scope) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

var knownTypes = map[string]struct{}{
	v1.TypeConnectionEstablished:    {},
	v1.TypeNewMessage:               {},
	v1.TypeConversationUpdated:      {},
	v1.TypeMessageStatusUpdated:     {},
	v1.TypeConversationAssigned:     {},
	v1.TypeUserTyping:               {},
	v1.TypeMessagesRead:             {},
	v1.TypeSubscribed:               {},
	v1.TypeUnsubscribed:             {},
	v1.TypePong:                     {},
	v1.TypeWhatsAppConnectionUpdate: {},
	v1.TypeProviderMessagesUpsert:   {},
	v1.TypeProviderMessagesUpdate:   {},
	v1.TypeProviderConnectionUpdate: {},
}

// eventLabel keeps metric label cardinality bounded.
func eventLabel(typ string) string {
	if _, ok := knownTypes[typ]; ok {
		return typ
	}
	return "other"
}
