package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NimbusChat/nimbus-client/pkg/network"
	"github.com/NimbusChat/nimbus-client/pkg/protocol"
)

// SendRequest asks the engine to send a text message
type SendRequest struct {
	To      string `json:"to" binding:"required"`
	Text    string `json:"text" binding:"required"`
	ReplyTo string `json:"replyTo"`
}

// SendResponse reports the assigned message id
type SendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// ReactRequest attaches an emoji reaction to a message
type ReactRequest struct {
	ChatJID   string `json:"chatJid" binding:"required"`
	MessageID string `json:"messageId" binding:"required"`
	Emoji     string `json:"emoji" binding:"required"`
}

// ReadRequest marks messages in a chat as read
type ReadRequest struct {
	ChatJID    string   `json:"chatJid" binding:"required"`
	MessageIDs []string `json:"messageIds" binding:"required"`
}

// TypingRequest toggles the typing indicator in a chat
type TypingRequest struct {
	ChatJID string `json:"chatJid" binding:"required"`
	Typing  bool   `json:"typing"`
}

// AvailabilityRequest toggles the device's availability
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// StatusResponse describes the engine's current state
type StatusResponse struct {
	State          string `json:"state"`
	Reason         string `json:"reason,omitempty"`
	HasIdentity    bool   `json:"hasIdentity"`
	RegistrationID uint32 `json:"registrationId,omitempty"`
	Platform       string `json:"platform,omitempty"`
	MessageCount   int    `json:"messageCount"`
}

// writeEngineError maps engine errors onto HTTP statuses
func writeEngineError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, network.ErrNotConnected) {
		status = http.StatusConflict
	}
	c.JSON(status, ErrorResponse{
		Error:   "Request failed",
		Message: err.Error(),
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	state, _ := s.client.State()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"state":  state.String(),
	})
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	state, reason := s.client.State()

	resp := StatusResponse{
		State:        state.String(),
		Reason:       reason,
		MessageCount: s.client.MessageCount(),
	}
	if identity := s.client.Identity(); identity != nil {
		resp.HasIdentity = true
		resp.RegistrationID = identity.RegistrationID
		resp.Platform = identity.Platform
	}

	c.JSON(http.StatusOK, resp)
}

// handleConnect handles POST /api/v1/connect
func (s *Server) handleConnect(c *gin.Context) {
	if err := s.client.Connect(); err != nil {
		writeEngineError(c, err)
		return
	}
	state, _ := s.client.State()
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: state.String(),
	})
}

// handleDisconnect handles POST /api/v1/disconnect
func (s *Server) handleDisconnect(c *gin.Context) {
	if err := s.client.Disconnect(); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleEvents handles GET /api/v1/events: it drains the queued
// events without blocking
func (s *Server) handleEvents(c *gin.Context) {
	events := make([]*network.Event, 0)
	for {
		ev, ok := s.client.TryNextEvent()
		if !ok {
			break
		}
		events = append(events, ev)
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// handleSend handles POST /api/v1/messages/send
func (s *Server) handleSend(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !strings.Contains(req.To, "@") {
		req.To = protocol.PhoneToJID(req.To)
	}

	id, err := s.client.SendText(req.To, req.Text, req.ReplyTo)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, SendResponse{Success: true, MessageID: id})
}

// handleReact handles POST /api/v1/messages/react
func (s *Server) handleReact(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.client.SendReaction(req.ChatJID, req.MessageID, req.Emoji); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleMarkRead handles POST /api/v1/messages/read
func (s *Server) handleMarkRead(c *gin.Context) {
	var req ReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.client.MarkRead(req.ChatJID, req.MessageIDs); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleGetMessage handles GET /api/v1/messages/:id
func (s *Server) handleGetMessage(c *gin.Context) {
	id := c.Param("id")

	if msg, ok := s.client.GetMessage(id); ok {
		c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: msg})
		return
	}

	if s.db != nil {
		msg, err := s.db.GetMessage(id)
		if err == nil {
			c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: msg})
			return
		}
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "Message not found",
		Message: id,
	})
}

// handleConversation handles GET /api/v1/conversations/:jid
func (s *Server) handleConversation(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "No message database attached",
		})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid limit",
				Message: raw,
			})
			return
		}
		limit = parsed
	}

	messages, err := s.db.GetConversation(c.Param("jid"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Query failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(messages),
		"messages": messages,
	})
}

// handleTyping handles POST /api/v1/presence/typing
func (s *Server) handleTyping(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.client.SendPresence(req.ChatJID, req.Typing); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleAvailability handles POST /api/v1/presence/availability
func (s *Server) handleAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.client.SetAvailability(req.Available); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleGroupMetadata handles GET /api/v1/groups/:jid
func (s *Server) handleGroupMetadata(c *gin.Context) {
	meta, err := s.client.GetGroupMetadata(protocol.GroupToJID(c.Param("jid")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: meta})
}

// handleGroupParticipants handles GET /api/v1/groups/:jid/participants
func (s *Server) handleGroupParticipants(c *gin.Context) {
	participants, err := s.client.GetGroupParticipants(protocol.GroupToJID(c.Param("jid")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":        len(participants),
		"participants": participants,
	})
}

// handleProfilePicture handles GET /api/v1/contacts/:jid/picture
func (s *Server) handleProfilePicture(c *gin.Context) {
	url, err := s.client.GetProfilePicture(c.Param("jid"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// handleContactStatus handles GET /api/v1/contacts/:jid/status
func (s *Server) handleContactStatus(c *gin.Context) {
	status, err := s.client.GetStatus(c.Param("jid"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
