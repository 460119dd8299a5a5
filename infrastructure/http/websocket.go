package http

import (
	"net/http"
	"time"

	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// eventEnvelope is the wire shape of a live event.
type eventEnvelope struct {
	Kind    event.Kind        `json:"kind"`
	Payload event.DomainEvent `json:"payload"`
}

func (s *Server) upgrader() websocket.Upgrader {
	allowed := make(map[string]bool, len(s.allowedOrigins))
	wildcard := false
	for _, origin := range s.allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return wildcard || allowed[r.Header.Get("Origin")]
		},
	}
}

// handleWebSocket is the live channel: one subscription per connection,
// carrying every event scoped to the conversations the connection's user
// currently belongs to. The handler authenticates, subscribes a buffered
// sink in the registry and pumps events to the socket until the client
// goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	userID := claims.UserID

	conversations, _, err := s.conversations.GetUserConversations(userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	connSink := sink.NewConnSink(s.connectionBufferSize)
	conversationIDs := lo.Map(conversations, func(c domain.Conversation, _ int) uuid.UUID { return c.ID })

	s.registry.Subscribe(connectionID, userID, conversationIDs, connSink)
	s.presence.Connect(userID)
	s.metrics.ConnectedSessions.Inc()
	s.log.Info("connection subscribed", "connection_id", connectionID, "user_id", userID)

	defer func() {
		s.registry.Unsubscribe(connectionID, userID)
		s.presence.Disconnect(userID)
		s.metrics.ConnectedSessions.Dec()
		s.log.Info("connection closed", "connection_id", connectionID, "user_id", userID)
	}()

	done := make(chan struct{})
	go s.writePump(conn, connSink, done)
	defer close(done)

	// Read loop: the client sends nothing meaningful, reads only keep the
	// connection alive and detect the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, connSink *sink.ConnSink, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case evt := <-connSink.Events:
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteJSON(eventEnvelope{Kind: evt.EventKind(), Payload: evt}); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}
