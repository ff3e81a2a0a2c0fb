package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"
	"vidlink/internal/infrastructure/monitoring"
	"vidlink/pkg/errors"
	"vidlink/pkg/validation"

	"github.com/gin-gonic/gin"
)

type SignalingHandler struct {
	signaling   ports.SignalingService
	delivery    ports.DeliveryService
	credentials ports.CredentialService
	collector   *monitoring.PrometheusCollector
}

func NewSignalingHandler(
	signaling ports.SignalingService,
	delivery ports.DeliveryService,
	credentials ports.CredentialService,
	collector *monitoring.PrometheusCollector,
) *SignalingHandler {
	return &SignalingHandler{
		signaling:   signaling,
		delivery:    delivery,
		credentials: credentials,
		collector:   collector,
	}
}

func (h *SignalingHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/signaling", h.HandleSignal)
	router.GET("/messages", h.HandleMessages)
	router.POST("/turn-credentials", h.HandleTURNCredentials)
}

// signalEnvelope is the wire format of POST /signaling. Data stays raw: the
// relay stores it verbatim and only clients decode it.
type signalEnvelope struct {
	Type   string          `json:"type"`
	PeerID string          `json:"peerId"`
	Host   bool            `json:"host,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type deliveredMessage struct {
	Type       domain.SignalType `json:"type"`
	Data       json.RawMessage   `json:"data,omitempty"`
	FromPeerID domain.PeerID     `json:"fromPeerId"`
	Timestamp  int64             `json:"timestamp"`
}

func (h *SignalingHandler) HandleSignal(c *gin.Context) {
	var req signalEnvelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidEnvelopeError("malformed request body"))
		return
	}

	if err := validation.ValidatePeerID(req.PeerID); err != nil {
		c.Error(errors.NewInvalidEnvelopeError(err.Error()))
		return
	}

	peerID := domain.PeerID(req.PeerID)
	signalType := domain.SignalType(req.Type)

	if signalType == domain.SignalJoin {
		result, err := h.signaling.Join(c.Request.Context(), peerID, req.Host)
		if err != nil {
			c.Error(errors.NewStorageError(err))
			return
		}

		role := "guest"
		if req.Host {
			role = "host"
		}
		h.collector.RecordJoin(role, req.Host || result.IsInitiator)
		h.collector.SetActivePeers(result.PeerCount)

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"isInitiator": result.IsInitiator,
			"peerCount":   result.PeerCount,
		})
		return
	}

	if err := h.signaling.Publish(c.Request.Context(), peerID, signalType, req.Data); err != nil {
		switch err {
		case domain.ErrUnknownSignalType:
			c.Error(errors.NewUnknownSignalTypeError(req.Type))
		case domain.ErrEmptyPayload:
			c.Error(errors.NewInvalidEnvelopeError(err.Error()))
		default:
			c.Error(errors.NewStorageError(err))
		}
		return
	}

	h.collector.RecordMessageStored(req.Type)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SignalingHandler) HandleMessages(c *gin.Context) {
	start := time.Now()

	peerID := c.Query("peerId")
	if peerID == "" {
		c.Error(errors.NewMissingParameterError("peerId"))
		return
	}
	if err := validation.ValidatePeerID(peerID); err != nil {
		c.Error(errors.NewInvalidEnvelopeError(err.Error()))
		return
	}

	since := int64(0)
	if raw := c.Query("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || validation.ValidateSince(parsed) != nil {
			c.Error(errors.NewInvalidEnvelopeError("since must be a non-negative integer"))
			return
		}
		since = parsed
	}

	inbox, err := h.delivery.Fetch(c.Request.Context(), domain.PeerID(peerID), since)
	if err != nil {
		c.Error(errors.NewStorageError(err))
		return
	}

	h.collector.RecordDelivery(len(inbox.Messages))

	messages := make([]deliveredMessage, 0, len(inbox.Messages))
	for _, msg := range inbox.Messages {
		messages = append(messages, deliveredMessage{
			Type:       msg.Type,
			Data:       msg.Data,
			FromPeerID: msg.PeerID,
			Timestamp:  msg.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":  messages,
		"timestamp": inbox.Timestamp,
	})

	h.collector.ObservePollLatency(time.Since(start))
}

func (h *SignalingHandler) HandleTURNCredentials(c *gin.Context) {
	var req struct {
		PeerID string `json:"peerId"`
	}
	// Body is optional; anonymous grants are keyed to a placeholder id.
	if err := c.ShouldBindJSON(&req); err != nil || req.PeerID == "" {
		req.PeerID = "anonymous"
	}

	grant := h.credentials.Grant(domain.PeerID(req.PeerID))
	c.JSON(http.StatusOK, grant)
}
