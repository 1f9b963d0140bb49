// Package webhook receives LINE webhook callbacks, acknowledges them
// immediately, and processes the contained events asynchronously through the
// bot processor.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/mih97/qcnav-linebot-go/internal/bot"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/ctxutil"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/ratelimit"
)

// Handler handles LINE webhook callbacks.
type Handler struct {
	channelSecret string
	client        *messaging_api.MessagingApiAPI
	metrics       *metrics.Metrics
	logger        *logger.Logger
	processor     *bot.Processor
	rateLimiter   *ratelimit.Limiter // global reply-rate limiter
	wg            sync.WaitGroup

	maxMessagesPerReply int
	maxEventsPerWebhook int
	minReplyTokenLength int
}

// HandlerConfig holds the dependencies for a webhook Handler.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	BotConfig     *config.BotConfig
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Processor     *bot.Processor
}

// NewHandler creates a webhook handler with its own messaging API client.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}

	return &Handler{
		channelSecret:       cfg.ChannelSecret,
		client:              client,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger,
		processor:           cfg.Processor,
		rateLimiter:         ratelimit.New(cfg.BotConfig.GlobalRateLimitRPS, cfg.BotConfig.GlobalRateLimitRPS),
		maxMessagesPerReply: cfg.BotConfig.MaxMessagesPerReply,
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
		minReplyTokenLength: cfg.BotConfig.MinReplyTokenLength,
	}, nil
}

// Handle is the Gin handler for the webhook endpoint. LINE requires a fast
// 200 response, so events are copied out and processed after the response.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warnf("invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Errorf("failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)

	start := time.Now()
	if len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).Warnf("webhook batch too large; truncating")
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Errorf("panic in async event processing")
			}
		}()

		ctx := context.Background()
		for _, event := range events {
			h.processEvent(ctx, event, start)
		}
	})
}

// processEvent handles one webhook event and sends the reply.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface, batchStart time.Time) {
	eventStart := time.Now()

	eventID := extractEventID(event)
	log := h.logger
	if eventID != "" {
		ctx = ctxutil.WithEventID(ctx, eventID)
		log = log.WithRequestID(eventID)
	}

	if shouldShowLoading(event) {
		if err := h.showLoadingAnimation(event); err != nil {
			log.WithError(err).Warn("failed to show loading animation")
		}
	}

	var (
		messages  []messaging_api.MessageInterface
		eventType string
		err       error
	)
	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType = "message"
		messages, err = h.processor.ProcessMessage(ctx, e)
	case webhook.PostbackEvent:
		eventType = "postback"
		messages, err = h.processor.ProcessPostback(ctx, e)
	case webhook.FollowEvent:
		eventType = "follow"
		messages, err = h.processor.ProcessFollow(e)
	default:
		log.WithField("event_type", fmt.Sprintf("%T", e)).Debug("unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).WithField("event_type", eventType).Error("failed to handle event")
	}
	h.metrics.RecordWebhook(eventType, status, time.Since(eventStart))

	if len(messages) > 0 && err == nil {
		h.reply(ctx, log, event, eventType, messages)
	}

	log.WithField("event_type", eventType).
		WithField("event_duration_ms", time.Since(eventStart).Milliseconds()).
		WithField("batch_duration_ms", time.Since(batchStart).Milliseconds()).
		Info("event processed")
}

// reply sends the assembled messages using the event's reply token.
func (h *Handler) reply(ctx context.Context, log *logger.Logger, event webhook.EventInterface, eventType string, messages []messaging_api.MessageInterface) {
	if len(messages) > h.maxMessagesPerReply {
		log.WithField("message_count", len(messages)).Warn("message count exceeds reply limit; truncating")
		messages = messages[:h.maxMessagesPerReply]
	}

	replyToken := getReplyToken(event)
	if replyToken == "" {
		log.Debug("empty reply token, skipping reply")
		return
	}
	if len(replyToken) < h.minReplyTokenLength {
		log.WithField("token_length", len(replyToken)).Debug("invalid reply token format")
		return
	}

	if !h.rateLimiter.Allow() {
		log.Warn("global reply rate limit exceeded; waiting")
		h.metrics.RecordRateLimitDrop("global")
		if err := h.rateLimiter.Wait(ctx); err != nil {
			log.WithError(err).Warn("gave up waiting for reply rate limit")
			return
		}
	}

	if _, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	}); err != nil {
		switch {
		case strings.Contains(err.Error(), "Invalid reply token"):
			log.WithError(err).Debug("reply token already used or expired")
		default:
			log.WithError(err).Error("failed to send reply")
		}
		h.metrics.RecordWebhook(eventType, "reply_error", 0)
	}
}

// showLoadingAnimation shows the typing indicator in personal chats while
// retrieval and re-ranking run. Only valid for user chats per the LINE API.
func (h *Handler) showLoadingAnimation(event webhook.EventInterface) error {
	chatID := getEventChatID(event)
	if chatID == "" {
		return nil
	}

	// loadingSeconds must be 5-60 in multiples of 5
	_, err := h.client.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: 30,
	})
	if err != nil {
		return fmt.Errorf("show loading animation: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight async event processing.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shouldShowLoading reports whether the event will produce a visible reply
// in a personal chat. The loading API rejects group and room chat IDs.
func shouldShowLoading(event webhook.EventInterface) bool {
	switch e := event.(type) {
	case webhook.MessageEvent:
		_, personal := e.Source.(webhook.UserSource)
		return personal && e.Message.GetType() == "text"
	case webhook.PostbackEvent:
		_, personal := e.Source.(webhook.UserSource)
		return personal
	default:
		return false
	}
}

func extractEventID(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId
	case webhook.PostbackEvent:
		return e.WebhookEventId
	case webhook.FollowEvent:
		return e.WebhookEventId
	default:
		return ""
	}
}

func getReplyToken(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.ReplyToken
	case webhook.PostbackEvent:
		return e.ReplyToken
	case webhook.FollowEvent:
		return e.ReplyToken
	default:
		return ""
	}
}

func getEventChatID(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return bot.GetChatID(e.Source)
	case webhook.PostbackEvent:
		return bot.GetChatID(e.Source)
	case webhook.FollowEvent:
		return bot.GetChatID(e.Source)
	default:
		return ""
	}
}
