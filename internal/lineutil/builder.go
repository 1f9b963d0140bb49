// Package lineutil provides utility functions for building LINE messages and actions.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/mih97/qcnav-linebot-go/internal/stringutil"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewTextMessage creates a simple text message.
// LINE API limits: max 5000 characters per text message.
func NewTextMessage(text string) *messaging_api.TextMessage {
	if len(text) > MaxTextMessageLength {
		text = TruncateRunes(text, MaxTextMessageLength)
	}

	return &messaging_api.TextMessage{
		Text: text,
	}
}

// NewTextMessageWithQuickReply creates a text message with quick reply items.
func NewTextMessageWithQuickReply(text string, items ...QuickReplyItem) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// NewQuickReply creates a quick reply component.
// LINE API limits: max 13 items.
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		qrItem := messaging_api.QuickReplyItem{
			Action: item.Action,
		}
		if item.ImageURL != "" {
			qrItem.ImageUrl = item.ImageURL
		}
		quickReplyItems[i] = qrItem
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// NewMessageAction creates a message action that sends a message when clicked.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Text:  text,
	}
}

// NewPostbackAction creates a postback action that sends data to the bot when clicked.
func NewPostbackAction(label, data string) Action {
	return &messaging_api.PostbackAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Data:  data,
	}
}

// NewPostbackActionWithDisplayText creates a postback action with custom display text.
// The label is shown on the button, displayText appears in the chat when clicked.
func NewPostbackActionWithDisplayText(label, displayText, data string) Action {
	return &messaging_api.PostbackAction{
		Label:       TruncateRunes(label, MaxQuickReplyLabel),
		DisplayText: displayText,
		Data:        data,
	}
}

// NewURIAction creates a URI action that opens a URL when clicked.
func NewURIAction(label, uri string) Action {
	return &messaging_api.UriAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Uri:   uri,
	}
}

// TruncateRunes truncates text at a rune boundary, appending "..." when cut.
// Byte-based truncation would split multibyte Hangul characters.
func TruncateRunes(text string, maxRunes int) string {
	cut := stringutil.TruncateRunes(text, maxRunes)
	if cut == text || maxRunes <= 3 {
		return cut
	}
	return stringutil.TruncateRunes(text, maxRunes-3) + "..."
}

// AddQuickReplyToMessages attaches quick reply items to the last message in a
// slice. No-op if the slice is empty or the last message doesn't support
// quick replies.
func AddQuickReplyToMessages(messages []messaging_api.MessageInterface, items ...QuickReplyItem) {
	if len(messages) == 0 || len(items) == 0 {
		return
	}
	qr := NewQuickReply(items)
	switch m := messages[len(messages)-1].(type) {
	case *messaging_api.TextMessage:
		m.QuickReply = qr
	case *messaging_api.TemplateMessage:
		m.QuickReply = qr
	case *messaging_api.FlexMessage:
		m.QuickReply = qr
	}
}
