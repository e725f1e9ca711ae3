package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tanpawarit/Chative-Order-Intake/agent/agents/orchestrator"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

// ErrorReply is what a customer sees when a turn fails after extraction.
const ErrorReply = "Lo siento, tuvimos un problema registrando tu mensaje. Inténtalo de nuevo en unos minutos 🙏"

// TurnHandler is satisfied by *orchestrator.Orchestrator.
type TurnHandler interface {
	HandleMessage(ctx context.Context, customerID string, text string) (string, error)
}

// Sender delivers replies back to WhatsApp. *whatsapp.Client satisfies it.
type Sender interface {
	Configured() bool
	SendText(ctx context.Context, to, body string) error
}

type Handler struct {
	turns       TurnHandler
	sender      Sender
	verifyToken string
	seen        *seenMessages
	log         zerolog.Logger
}

func NewHandler(turns TurnHandler, sender Sender, verifyToken string) (*Handler, error) {
	if turns == nil {
		return nil, errors.New("turn handler is required")
	}
	return &Handler{
		turns:       turns,
		sender:      sender,
		verifyToken: verifyToken,
		seen:        newSeenMessages(defaultSeenCapacity),
		log:         logx.Component("httpserver"),
	}, nil
}

type incomingMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Bot de pedidos de salmón está vivo 🐟",
		"endpoints": []string{"/webhook", "/whatsapp-webhook", "/docs"},
	})
}

// ReceiveMessage serves the local test endpoint.
func (h *Handler) ReceiveMessage(c *gin.Context) {
	var msg incomingMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(msg.Sender) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender is required"})
		return
	}

	h.log.Debug().Str("customer_id", msg.Sender).Str("text", msg.Text).Msg("local message received")

	reply, err := h.turns.HandleMessage(c.Request.Context(), msg.Sender, msg.Text)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidCustomer) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sender is required"})
			return
		}
		h.log.Error().Err(err).Str("customer_id", msg.Sender).Msg("local turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrorReply})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// VerifyWebhook answers Meta's subscription handshake.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(challenge))
		return
	}
	h.log.Warn().Str("mode", mode).Msg("whatsapp webhook verification rejected")
	c.Status(http.StatusForbidden)
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (h *Handler) WhatsAppWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn().Err(err).Msg("whatsapp payload is not json")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	messages := payload.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "no_messages"})
		return
	}

	msg := messages[0]
	if msg.Type != "text" || msg.Text == nil {
		h.log.Info().Str("type", msg.Type).Msg("unsupported whatsapp message type")
		c.JSON(http.StatusOK, gin.H{"status": "unsupported_message_type"})
		return
	}

	// Meta redelivers on timeouts; a repeated id must not run the turn twice.
	if msg.ID != "" && !h.seen.claim(msg.ID) {
		h.log.Info().Str("message_id", msg.ID).Msg("duplicate whatsapp message dropped")
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	ctx := c.Request.Context()
	reply, err := h.turns.HandleMessage(ctx, msg.From, msg.Text.Body)
	if err != nil {
		if msg.ID != "" {
			h.seen.release(msg.ID)
		}
		if errors.Is(err, orchestrator.ErrInvalidCustomer) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		h.log.Error().Err(err).Str("customer_id", msg.From).Msg("whatsapp turn failed")
		reply = ErrorReply
	}

	if h.sender == nil || !h.sender.Configured() {
		h.log.Warn().Msg("whatsapp outbound is not configured")
		c.JSON(http.StatusOK, gin.H{"status": "whatsapp_not_configured"})
		return
	}

	if err := h.sender.SendText(ctx, msg.From, reply); err != nil {
		h.log.Error().Err(err).Str("customer_id", msg.From).Msg("whatsapp send failed")
		c.JSON(http.StatusOK, gin.H{"status": "send_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
