package line

import (
	"context"
	"errors"
	"net/http"

	"mahjongbot/bot"
	"mahjongbot/commands"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	log "github.com/sirupsen/logrus"
)

// Messenger is the outbound half of the LINE channel
type Messenger interface {
	Reply(ctx context.Context, replyToken string, reply *bot.Reply) error
	DisplayName(ctx context.Context, groupID, userID string) string
}

// CommandHandler turns a chat message into a reply
type CommandHandler interface {
	Handle(ctx context.Context, req bot.Request) *bot.Reply
}

// WebhookHandler receives LINE webhook callbacks
type WebhookHandler struct {
	channelSecret string
	messenger     Messenger
	dispatcher    CommandHandler
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(channelSecret string, messenger Messenger, dispatcher CommandHandler) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		messenger:     messenger,
		dispatcher:    dispatcher,
	}
}

// HandleWebhook verifies the callback signature and handles each text message event
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			log.Warn("Rejected webhook with invalid signature")
			c.Status(http.StatusBadRequest)
			return
		}
		log.WithError(err).Error("Failed to parse webhook request")
		c.Status(http.StatusInternalServerError)
		return
	}

	for _, event := range cb.Events {
		h.handleEvent(c.Request.Context(), event)
	}

	c.Status(http.StatusOK)
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event webhook.EventInterface) {
	e, ok := event.(webhook.MessageEvent)
	if !ok {
		return
	}
	message, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		return
	}

	req := bot.Request{Text: message.Text}
	switch source := e.Source.(type) {
	case webhook.GroupSource:
		req.GroupID = source.GroupId
		req.UserID = source.UserId
	case webhook.UserSource:
		req.UserID = source.UserId
	case webhook.RoomSource:
		// multi-person chats are not groups; group commands get the group-only notice
		req.UserID = source.UserId
	default:
		return
	}
	if req.UserID == "" {
		return
	}

	cmd := commands.Parse(req.Text)
	if cmd.Kind == commands.KindUnknown {
		return
	}
	if cmd.Kind.NeedsDisplayName() {
		req.DisplayName = h.messenger.DisplayName(ctx, req.GroupID, req.UserID)
	}

	reply := h.dispatcher.Handle(ctx, req)
	if reply == nil {
		return
	}

	if err := h.messenger.Reply(ctx, e.ReplyToken, reply); err != nil {
		log.WithFields(log.Fields{
			"command": cmd.Kind.String(),
			"userID":  req.UserID,
			"groupID": req.GroupID,
			"error":   err,
		}).Error("Failed to reply to message")
	}
}

// HandleHealth reports liveness
func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
