// Package http exposes the REST surface and the live websocket channel of
// the chat engine.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"chat-core/auth"
	"chat-core/contract"
	"chat-core/observability"
	"chat-core/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const uuidPattern = "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"

// Server holds the handler dependencies.
type Server struct {
	conversations services.IConversationService
	messages      services.IMessageService
	reactions     services.IReactionService
	presence      services.IPresenceService
	typing        services.ITypingService
	registry      contract.IRegistry
	metrics       *observability.Metrics
	verifier      auth.Verifier
	limiter       *limiterPool
	validate      *validator.Validate
	log           *slog.Logger

	allowedOrigins       []string
	connectionBufferSize int
	writeTimeout         time.Duration
}

type Options struct {
	AllowedOrigins       []string
	ConnectionBufferSize int
	WriteTimeout         time.Duration
	RateRPS              float64
	RateBurst            int
}

func NewServer(
	conversations services.IConversationService,
	messages services.IMessageService,
	reactions services.IReactionService,
	presence services.IPresenceService,
	typing services.ITypingService,
	registry contract.IRegistry,
	metrics *observability.Metrics,
	verifier auth.Verifier,
	log *slog.Logger,
	opts Options,
) *Server {
	return &Server{
		conversations:        conversations,
		messages:             messages,
		reactions:            reactions,
		presence:             presence,
		typing:               typing,
		registry:             registry,
		metrics:              metrics,
		verifier:             verifier,
		limiter:              newLimiterPool(opts.RateRPS, opts.RateBurst),
		validate:             validator.New(),
		log:                  log,
		allowedOrigins:       opts.AllowedOrigins,
		connectionBufferSize: opts.ConnectionBufferSize,
		writeTimeout:         opts.WriteTimeout,
	}
}

// Handler builds the router. The uuid-constrained detail route is
// registered before the userId listing route so both spellings of
// GET /conversations/{...} coexist.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware, s.rateLimitMiddleware)

	api.HandleFunc("/conversations/direct", s.handleCreateDirect).Methods(http.MethodPost)
	api.HandleFunc("/conversations/group", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id:"+uuidPattern+"}", s.handleGetConversation).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{userId}", s.handleListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id:"+uuidPattern+"}/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id:"+uuidPattern+"}/messages", s.handleGetMessages).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id:"+uuidPattern+"}/leave", s.handleLeaveConversation).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id:"+uuidPattern+"}", s.handleDeleteMessage).Methods(http.MethodDelete)
	api.HandleFunc("/messages/{id:"+uuidPattern+"}/reactions", s.handleUpsertReaction).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id:"+uuidPattern+"}/reactions", s.handleListReactions).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id:"+uuidPattern+"}/reactions/{userId}", s.handleRemoveReaction).Methods(http.MethodDelete)
	api.HandleFunc("/typing", s.handleSetTyping).Methods(http.MethodPost)
	api.HandleFunc("/presence/{userId}", s.handleGetPresence).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(r)
}
