// Package bot routes LINE webhook events to handler modules. Each module
// implements the Handler interface; the Processor validates and sanitizes
// incoming events before dispatching through the Registry.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Handler is one bot module. A module claims text messages through CanHandle
// and postback events through its PostbackPrefix.
type Handler interface {
	// Name identifies the module in logs and postback payloads.
	Name() string

	// PostbackPrefix is the payload prefix this module owns, including the
	// trailing ':' (e.g. "nav:"). Empty string means the module takes no
	// postbacks.
	PostbackPrefix() string

	// CanHandle reports whether this handler wants the given sanitized text.
	CanHandle(text string) bool

	// HandleMessage answers a text message. Returns at most
	// lineutil.MaxMessagesPerReply messages; nil means the handler produced
	// no reply and the processor falls through to help.
	HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface

	// HandlePostback answers a postback event. The data has already had the
	// module prefix stripped, leaving "action$param1$param2...".
	HandlePostback(ctx context.Context, data string) []messaging_api.MessageInterface
}
