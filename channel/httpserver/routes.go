package httpserver

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.Root)

	// /docs is where the local chat client posts.
	r.POST("/webhook", h.ReceiveMessage)
	r.POST("/docs", h.ReceiveMessage)

	r.GET("/whatsapp-webhook", h.VerifyWebhook)
	r.POST("/whatsapp-webhook", h.WhatsAppWebhook)
}
