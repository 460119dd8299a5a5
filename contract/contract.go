//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-core/domain/event"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself: supervision, restart and panic recovery
// belong to the Supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives fanned-out events for one live connection.
// Consume must not block longer than the context allows; a full or slow
// sink drops the event rather than stalling other subscribers.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Publisher hands an event to the broadcast pipeline. It never blocks and
// never fails the originating mutation.
type Publisher interface {
	Publish(e event.DomainEvent)
}

// IRegistry is the subscription registry of the broadcast router: live
// connections on one axis, conversation membership on the other.
type IRegistry interface {
	Subscribe(connectionID, userID string, conversations []uuid.UUID, sink EventSink)
	Unsubscribe(connectionID, userID string)
	Attach(conversationID uuid.UUID, userID string)
	Detach(conversationID uuid.UUID, userID string)
	SinksForConversation(conversationID uuid.UUID) []EventSink
	SinksForPeersOf(userID string) []EventSink
}

// MembershipNotifier is the slice of IRegistry the conversation store needs
// to keep subscriptions in line with membership changes.
type MembershipNotifier interface {
	Attach(conversationID uuid.UUID, userID string)
	Detach(conversationID uuid.UUID, userID string)
}
