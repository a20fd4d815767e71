package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talkbase/convstore/internal/conversation"
	"github.com/talkbase/convstore/internal/models"
	"github.com/talkbase/convstore/internal/utils"
)

type ConversationHandler struct {
	svc conversation.Service
}

func NewConversationHandler(svc conversation.Service) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type appendMessageRequest struct {
	Role      string                  `json:"role" binding:"required"`
	Content   string                  `json:"content" binding:"required"`
	Timestamp int64                   `json:"timestamp"`
	Metadata  *models.MessageMetadata `json:"metadata"`
}

func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AppendMessage", "role and content are required", err))
		return
	}

	msg, err := h.svc.AddMessage(c.Request.Context(), userID, models.Message{
		Role:      req.Role,
		Content:   req.Content,
		Timestamp: req.Timestamp,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) Window(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	lastN := 0
	if s := c.Query("last_n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "Window", "last_n must be an integer", err))
			return
		}
		lastN = n
	}

	msgs, err := h.svc.GetConversationWindow(c.Request.Context(), userID, lastN)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"count":    len(msgs),
	})
}

type setModelRequest struct {
	Model string `json:"model" binding:"required"`
}

func (h *ConversationHandler) SetModel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req setModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SetModel", "model is required", err))
		return
	}

	if err := h.svc.SetModel(c.Request.Context(), userID, req.Model); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": req.Model})
}

func (h *ConversationHandler) GetModel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	model, err := h.svc.GetModel(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if model == "" {
		c.JSON(http.StatusNotFound, APIError{
			Code:    utils.CodeNotFound,
			Message: "no model selected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": model})
}

func (h *ConversationHandler) UpsertMetadata(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var patch models.MetadataPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "UpsertMetadata", "invalid metadata patch", err))
		return
	}

	merged, err := h.svc.UpsertConversationMetadata(c.Request.Context(), userID, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, merged)
}

func (h *ConversationHandler) GetMetadata(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	md, err := h.svc.GetConversationMetadata(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if md == nil {
		c.JSON(http.StatusNotFound, APIError{
			Code:    utils.CodeNotFound,
			Message: "no conversation metadata",
		})
		return
	}

	c.JSON(http.StatusOK, md)
}

func (h *ConversationHandler) Clear(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.ClearHistory(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
