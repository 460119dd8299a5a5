//go:generate go run go.uber.org/mock/mockgen -source=presence_service.go -destination=../mocks/mock_presence_service.go -package=mocks
package services

import (
	"log/slog"
	"sync"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/observability"
)

type IPresenceService interface {
	Connect(userID string)
	Disconnect(userID string)
	GetPresence(userID string) domain.Presence
}

// PresenceService tracks per-user online state with multi-session
// reference counting: a user may hold several simultaneous connections
// (devices, tabs), so presence reflects "at least one session alive"
// rather than the last connection event.
//
// State is pure in-memory, scoped to the process; it never survives a
// restart and is not required to.
type PresenceService struct {
	mu       sync.Mutex
	counts   map[string]int
	lastSeen map[string]time.Time
	bus      contract.Publisher
	metrics  *observability.Metrics
	log      *slog.Logger
}

func NewPresenceService(bus contract.Publisher, metrics *observability.Metrics, log *slog.Logger) *PresenceService {
	return &PresenceService{
		counts:   make(map[string]int),
		lastSeen: make(map[string]time.Time),
		bus:      bus,
		metrics:  metrics,
		log:      log,
	}
}

// Connect increments the connection count and broadcasts the online
// transition on 0 to 1.
func (s *PresenceService) Connect(userID string) {
	s.mu.Lock()
	s.counts[userID]++
	wentOnline := s.counts[userID] == 1
	s.mu.Unlock()

	if wentOnline {
		s.metrics.OnlineUsers.Inc()
		s.bus.Publish(event.PresenceChanged{UserID: userID, Online: true})
	}
}

// Disconnect decrements the count and records last-seen on the 1 to 0
// transition. Decrementing below zero is a programming error on the
// caller's side, guarded here by a floor at zero.
func (s *PresenceService) Disconnect(userID string) {
	s.mu.Lock()
	if s.counts[userID] == 0 {
		s.mu.Unlock()
		s.log.Warn("disconnect without a matching connect", "user_id", userID)
		return
	}
	s.counts[userID]--
	wentOffline := s.counts[userID] == 0
	var lastSeen time.Time
	if wentOffline {
		delete(s.counts, userID)
		lastSeen = time.Now().UTC()
		s.lastSeen[userID] = lastSeen
	}
	s.mu.Unlock()

	if wentOffline {
		s.metrics.OnlineUsers.Dec()
		s.bus.Publish(event.PresenceChanged{UserID: userID, Online: false, LastSeen: &lastSeen})
	}
}

// GetPresence reports the online flag and last-seen timestamp. Users never
// seen report offline with no last-seen value.
func (s *PresenceService) GetPresence(userID string) domain.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()

	presence := domain.Presence{UserID: userID, Online: s.counts[userID] > 0}
	if seen, ok := s.lastSeen[userID]; ok && !presence.Online {
		lastSeen := seen
		presence.LastSeen = &lastSeen
	}
	return presence
}
