package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type createDirectRequest struct {
	UserA string `json:"userA" validate:"required"`
	UserB string `json:"userB" validate:"required"`
}

type createGroupRequest struct {
	Name           string   `json:"name" validate:"required"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=2"`
}

type sendMessageRequest struct {
	SenderID string `json:"senderId" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type leaveRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type upsertReactionRequest struct {
	UserID string `json:"userId" validate:"required"`
	Kind   string `json:"kind" validate:"required"`
}

type setTypingRequest struct {
	UserID         string    `json:"userId" validate:"required"`
	ConversationID uuid.UUID `json:"conversationId" validate:"required"`
	IsTyping       bool      `json:"isTyping"`
}

type conversationDetailResponse struct {
	Conversation domain.Conversation  `json:"conversation"`
	Participants []domain.Participant `json:"participants"`
}

type conversationsResponse struct {
	Conversations []domain.Conversation        `json:"conversations"`
	Previews      map[uuid.UUID]domain.Message `json:"previews"`
}

func (s *Server) handleCreateDirect(w http.ResponseWriter, r *http.Request) {
	var req createDirectRequest
	if !s.decode(w, r, &req) {
		return
	}
	conv, err := s.conversations.CreateDirect(req.UserA, req.UserB)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !s.decode(w, r, &req) {
		return
	}
	conv, err := s.conversations.CreateGroup(req.Name, req.ParticipantIDs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	conversations, previews, err := s.conversations.GetUserConversations(userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Conversations: conversations, Previews: previews})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	conv, participants, err := s.conversations.GetDetail(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationDetailResponse{Conversation: conv, Participants: participants})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if !s.decode(w, r, &req) {
		return
	}
	message, err := s.messages.Append(r.Context(), id, req.SenderID, req.Content)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", 50)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	messages, err := s.messages.GetPage(id, page, pageSize)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleLeaveConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req leaveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.conversations.Leave(id, req.UserID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteMessage takes the requester from the authenticated identity:
// only the original sender may delete.
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	claims := callerClaims(r)
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	if err := s.messages.SoftDelete(id, claims.UserID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpsertReaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req upsertReactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	reaction, err := s.reactions.AddOrUpdate(req.UserID, id, req.Kind)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reaction)
}

func (s *Server) handleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	removed, err := s.reactions.Remove(mux.Vars(r)["userId"], id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleListReactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reactions, err := s.reactions.List(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if reactions == nil {
		reactions = []domain.Reaction{}
	}
	writeJSON(w, http.StatusOK, reactions)
}

func (s *Server) handleSetTyping(w http.ResponseWriter, r *http.Request) {
	var req setTypingRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.typing.SetTyping(req.UserID, req.ConversationID, req.IsTyping); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.presence.GetPresence(mux.Vars(r)["userId"]))
}

// decode unmarshals and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ErrInvalidArgument
	}
	return value, nil
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSONError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
