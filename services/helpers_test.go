package services

import (
	"log/slog"
	"sync"
	"testing"

	"chat-core/domain/event"
	"chat-core/moderation"
	"chat-core/observability"
	"chat-core/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (p *capturePublisher) Publish(e event.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) all() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.DomainEvent(nil), p.events...)
}

func (p *capturePublisher) byKind(kind event.Kind) []event.DomainEvent {
	var matched []event.DomainEvent
	for _, e := range p.all() {
		if e.EventKind() == kind {
			matched = append(matched, e)
		}
	}
	return matched
}

type nopRouter struct{}

func (nopRouter) Attach(uuid.UUID, string) {}
func (nopRouter) Detach(uuid.UUID, string) {}

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	conversations *ConversationService
	messages      *MessageService
	reactions     *ReactionService
	bus           *capturePublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := newTestDB(t)
	log := slog.Default()
	bus := &capturePublisher{}
	metrics := observability.NewMetrics()

	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	reactionRepo := repositories.NewReactionRepository(db)

	moderator, err := moderation.NewModerator(nil, '*')
	require.NoError(t, err)

	return fixture{
		conversations: NewConversationService(conversationRepo, messageRepo, nopRouter{}, log),
		messages:      NewMessageService(conversationRepo, messageRepo, moderator, bus, metrics, log, 4096),
		reactions:     NewReactionService(conversationRepo, messageRepo, reactionRepo, bus, log),
		bus:           bus,
	}
}
