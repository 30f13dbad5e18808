// Package api exposes the daemon's control surface over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/drift/internal/connectivity"
	"github.com/matheus3301/drift/internal/location"
	"github.com/matheus3301/drift/internal/message"
	"github.com/matheus3301/drift/internal/objectstore"
	"github.com/matheus3301/drift/internal/status"
	syncengine "github.com/matheus3301/drift/internal/sync"
	"go.uber.org/zap"
)

// Engine is the slice of the sync engine the API needs.
type Engine interface {
	Messages() []message.Message
	Send(ctx context.Context, msg message.Message) error
	Room() string
}

// Uploader resolves a local file into a durable reference.
type Uploader interface {
	UploadBinary(ctx context.Context, localPath, folder, uploaderID string) (string, error)
}

// Locator captures the device position.
type Locator interface {
	Capture(ctx context.Context) (location.Fix, error)
}

// Handler serves the daemon control API.
type Handler struct {
	engine    Engine
	uploader  Uploader
	locator   Locator
	monitor   *connectivity.Monitor
	machine   *status.Machine
	author    message.Author
	session   string
	startedAt time.Time
	logger    *zap.Logger
}

// NewHandler creates a handler. author is stamped onto every message this
// daemon sends.
func NewHandler(engine Engine, uploader Uploader, locator Locator, monitor *connectivity.Monitor, machine *status.Machine, author message.Author, session string, logger *zap.Logger) *Handler {
	return &Handler{
		engine:    engine,
		uploader:  uploader,
		locator:   locator,
		monitor:   monitor,
		machine:   machine,
		author:    author,
		session:   session,
		startedAt: time.Now(),
		logger:    logger,
	}
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session":   h.session,
		"room":      h.engine.Room(),
		"state":     h.machine.Current(),
		"online":    h.monitor.Online(),
		"uptime_ms": time.Since(h.startedAt).Milliseconds(),
		"messages":  len(h.engine.Messages()),
	})
}

func (h *Handler) listMessages(c *gin.Context) {
	msgs := h.engine.Messages()
	if msgs == nil {
		msgs = []message.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	msg := message.Message{Text: req.Text, Author: h.author}
	if err := h.engine.Send(c.Request.Context(), msg); err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

type attachmentRequest struct {
	Path   string `json:"path" binding:"required"`
	Folder string `json:"folder"`
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	var req attachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	if !h.monitor.Online() {
		c.JSON(http.StatusConflict, gin.H{"error": syncengine.ErrOffline.Error()})
		return
	}
	if req.Folder == "" {
		req.Folder = "attachments"
	}

	url, err := h.uploader.UploadBinary(c.Request.Context(), req.Path, req.Folder, h.author.ID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("attachment upload failed", zap.String("path", req.Path), zap.Error(err))
		}
		if errors.Is(err, objectstore.ErrNotProvisioned) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed: " + err.Error()})
		return
	}

	msg := message.Message{ImageURL: url, Author: h.author}
	if err := h.engine.Send(c.Request.Context(), msg); err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent", "url": url})
}

func (h *Handler) shareLocation(c *gin.Context) {
	if !h.monitor.Online() {
		c.JSON(http.StatusConflict, gin.H{"error": syncengine.ErrOffline.Error()})
		return
	}

	fix, err := h.locator.Capture(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, location.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, location.ErrServicesDisabled):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		}
		return
	}

	msg := message.Message{
		Author:   h.author,
		Location: &message.Location{Latitude: fix.Latitude, Longitude: fix.Longitude},
	}
	if err := h.engine.Send(c.Request.Context(), msg); err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent", "location": fix})
}

func (h *Handler) sendError(c *gin.Context, err error) {
	if errors.Is(err, syncengine.ErrOffline) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if h.logger != nil {
		h.logger.Error("send failed", zap.Error(err))
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "send failed: " + err.Error()})
}
