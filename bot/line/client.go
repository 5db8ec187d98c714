package line

import (
	"context"
	"fmt"

	"mahjongbot/bot"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	log "github.com/sirupsen/logrus"
)

// Client sends replies and looks up profiles through the LINE Messaging API
type Client struct {
	api *messaging_api.MessagingApiAPI
}

// NewClient creates a new Messaging API client for the channel access token
func NewClient(channelAccessToken string) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging api client: %w", err)
	}
	return &Client{api: api}, nil
}

// Reply answers a webhook event with the rendered reply
func (c *Client) Reply(ctx context.Context, replyToken string, reply *bot.Reply) error {
	_, err := c.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   buildMessages(reply),
	})
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// DisplayName returns the sender's LINE display name.
// Group members are looked up through the group so users who never added the bot resolve too.
func (c *Client) DisplayName(ctx context.Context, groupID, userID string) string {
	api := c.api.WithContext(ctx)

	if groupID != "" {
		profile, err := api.GetGroupMemberProfile(groupID, userID)
		if err == nil && profile.DisplayName != "" {
			return profile.DisplayName
		}
		if err != nil {
			log.WithFields(log.Fields{
				"groupID": groupID,
				"userID":  userID,
				"error":   err,
			}).Warn("Failed to get group member profile")
		}
	}

	profile, err := api.GetProfile(userID)
	if err != nil {
		log.WithFields(log.Fields{
			"userID": userID,
			"error":  err,
		}).Warn("Failed to get user profile")
		return bot.DefaultDisplayName
	}
	if profile.DisplayName == "" {
		return bot.DefaultDisplayName
	}
	return profile.DisplayName
}

// buildMessages converts a reply into LINE text messages, notice first
func buildMessages(reply *bot.Reply) []messaging_api.MessageInterface {
	var messages []messaging_api.MessageInterface
	if reply.Notice != "" {
		messages = append(messages, messaging_api.TextMessage{Text: reply.Notice})
	}

	text := messaging_api.TextMessage{Text: reply.Text}
	if len(reply.QuickReplies) > 0 {
		items := make([]messaging_api.QuickReplyItem, 0, len(reply.QuickReplies))
		for _, qr := range reply.QuickReplies {
			items = append(items, messaging_api.QuickReplyItem{
				Action: &messaging_api.MessageAction{
					Label: qr.Label,
					Text:  qr.Text,
				},
			})
		}
		text.QuickReply = &messaging_api.QuickReply{Items: items}
	}
	return append(messages, text)
}
