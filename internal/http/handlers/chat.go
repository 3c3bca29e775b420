package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spendsmart/spendsmart/internal/chat"
	"github.com/spendsmart/spendsmart/internal/config"
	"github.com/spendsmart/spendsmart/internal/observability"
)

type ChatHandler struct {
	bot     chat.Replier
	metrics *observability.Prom
}

func NewChatHandler(bot chat.Replier, metrics *observability.Prom) *ChatHandler {
	return &ChatHandler{bot: bot, metrics: metrics}
}

type ChatRequest struct {
	UserMessage string `json:"userMessage"`
}

// Chat relays one message to the model and post-processes the reply. The
// relay is synchronous; the only state it touches is the upstream service.
func (h *ChatHandler) Chat(ctx *gin.Context) {
	var req ChatRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.UserMessage) == "" {
		h.countChat("empty")
		RespondBadRequest(ctx, "empty_message", "Message cannot be empty")
		return
	}

	cctx, cancel := config.WithTimeout(30 * time.Second)

	defer cancel()

	start := time.Now()

	reply, err := h.bot.Reply(cctx, req.UserMessage)

	if h.metrics != nil {
		h.metrics.ChatDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		h.countChat("upstream_error")
		RespondInternal(ctx, "service_error", "Failed to get response from the assistant")
		return
	}

	h.countChat("ok")

	ctx.JSON(http.StatusOK, gin.H{
		"botReply": chat.PostProcess(reply),
	})
}

func (h *ChatHandler) countChat(result string) {
	if h.metrics != nil {
		h.metrics.ChatRequests.WithLabelValues(result).Inc()
	}
}
