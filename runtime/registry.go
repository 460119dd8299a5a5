package runtime

import (
	"sync"

	"chat-core/contract"

	"github.com/google/uuid"
)

type set[T comparable] map[T]struct{}

type session struct {
	userID string
	sink   contract.EventSink
}

// Registry is the subscription registry of the broadcast router. It keeps
// three views in sync under one lock:
//
//	sessions  connection id -> live sink
//	userConns user id       -> connection ids (multi-device)
//	members   conversation  -> user ids (mirrors active membership)
//	userConvs user id       -> conversation ids (reverse of members)
//
// Connections come and go with the websocket lifecycle; membership entries
// follow the conversation store via Attach/Detach.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]session
	userConns map[string]set[string]
	members   map[uuid.UUID]set[string]
	userConvs map[string]set[uuid.UUID]
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]session),
		userConns: make(map[string]set[string]),
		members:   make(map[uuid.UUID]set[string]),
		userConvs: make(map[string]set[uuid.UUID]),
	}
}

// Subscribe attaches a live connection to the channels of every
// conversation the user currently belongs to. Later membership changes
// arrive via Attach/Detach, so the subscription follows the store without
// reconnecting.
func (r *Registry) Subscribe(connectionID, userID string, conversations []uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connectionID] = session{userID: userID, sink: sink}
	if _, ok := r.userConns[userID]; !ok {
		r.userConns[userID] = make(set[string])
	}
	r.userConns[userID][connectionID] = struct{}{}

	for _, conversationID := range conversations {
		r.attachLocked(conversationID, userID)
	}
}

// Unsubscribe removes the connection. Membership entries stay: they mirror
// the store, not the connection.
func (r *Registry) Unsubscribe(connectionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connectionID)
	if conns, ok := r.userConns[userID]; ok {
		delete(conns, connectionID)
		if len(conns) == 0 {
			delete(r.userConns, userID)
		}
	}
}

func (r *Registry) Attach(conversationID uuid.UUID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachLocked(conversationID, userID)
}

func (r *Registry) attachLocked(conversationID uuid.UUID, userID string) {
	if _, ok := r.members[conversationID]; !ok {
		r.members[conversationID] = make(set[string])
	}
	r.members[conversationID][userID] = struct{}{}
	if _, ok := r.userConvs[userID]; !ok {
		r.userConvs[userID] = make(set[uuid.UUID])
	}
	r.userConvs[userID][conversationID] = struct{}{}
}

func (r *Registry) Detach(conversationID uuid.UUID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if users, ok := r.members[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.members, conversationID)
		}
	}
	if convs, ok := r.userConvs[userID]; ok {
		delete(convs, conversationID)
		if len(convs) == 0 {
			delete(r.userConvs, userID)
		}
	}
}

// SinksForConversation resolves every live connection of every member of
// the conversation.
func (r *Registry) SinksForConversation(conversationID uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users, ok := r.members[conversationID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for userID := range users {
		for connectionID := range r.userConns[userID] {
			if s, exists := r.sessions[connectionID]; exists {
				sinks = append(sinks, s.sink)
			}
		}
	}
	return sinks
}

// SinksForPeersOf resolves the connections subscribed to any conversation
// shared with the user, each connection at most once. Used for presence
// events, which are user scoped rather than conversation scoped.
func (r *Registry) SinksForPeersOf(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(set[string])
	var sinks []contract.EventSink
	for conversationID := range r.userConvs[userID] {
		for peerID := range r.members[conversationID] {
			for connectionID := range r.userConns[peerID] {
				if _, dup := seen[connectionID]; dup {
					continue
				}
				seen[connectionID] = struct{}{}
				if s, exists := r.sessions[connectionID]; exists {
					sinks = append(sinks, s.sink)
				}
			}
		}
	}
	return sinks
}
