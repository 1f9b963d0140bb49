package bot

import (
	"context"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Registry holds the registered handler modules and dispatches events to
// them. Message dispatch is first-match in registration order; postback
// dispatch is by module prefix.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make([]Handler, 0)}
}

// Register adds a handler. Registration order decides message precedence.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// DispatchMessage routes a text message to the first handler that claims it.
// Returns nil when no handler claims the text.
func (r *Registry) DispatchMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	for _, h := range r.handlers {
		if h.CanHandle(text) {
			return h.HandleMessage(ctx, text)
		}
	}
	return nil
}

// DispatchPostback routes postback data to the handler owning its prefix.
// The prefix is stripped before the handler sees the payload.
func (r *Registry) DispatchPostback(ctx context.Context, data string) []messaging_api.MessageInterface {
	for _, h := range r.handlers {
		prefix := h.PostbackPrefix()
		if prefix != "" && strings.HasPrefix(data, prefix) {
			return h.HandlePostback(ctx, strings.TrimPrefix(data, prefix))
		}
	}
	return nil
}

// GetHandler returns the handler with the given module name, or nil.
func (r *Registry) GetHandler(name string) Handler {
	for _, h := range r.handlers {
		if h.Name() == name {
			return h
		}
	}
	return nil
}
