package bot

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/ctxutil"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
	"github.com/mih97/qcnav-linebot-go/internal/lineutil"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/ratelimit"
	"github.com/mih97/qcnav-linebot-go/internal/stringutil"
)

// helpKeywords trigger the usage guide instead of a document search.
var helpKeywords = []string{"help", "도움말", "사용법"}

// Processor validates and sanitizes LINE events, applies per-chat rate
// limits, and dispatches to the registered handler modules.
type Processor struct {
	registry    *Registry
	userLimiter *ratelimit.PerKeyLimiter
	logger      *logger.Logger
	metrics     *metrics.Metrics

	webhookTimeout      time.Duration
	maxMessageLength    int
	maxPostbackDataSize int
}

// ProcessorConfig holds the dependencies for a Processor.
type ProcessorConfig struct {
	Registry    *Registry
	UserLimiter *ratelimit.PerKeyLimiter
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	BotConfig   *config.BotConfig
}

// NewProcessor creates an event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		registry:            cfg.Registry,
		userLimiter:         cfg.UserLimiter,
		logger:              cfg.Logger,
		metrics:             cfg.Metrics,
		webhookTimeout:      cfg.BotConfig.WebhookTimeout,
		maxMessageLength:    cfg.BotConfig.MaxMessageLength,
		maxPostbackDataSize: cfg.BotConfig.MaxPostbackDataSize,
	}
}

// ProcessMessage handles a text message event.
func (p *Processor) ProcessMessage(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error) {
	chatID := GetChatID(event.Source)
	userID := GetUserID(event.Source)
	ctx = ctxutil.WithChatID(ctx, chatID)
	ctx = ctxutil.WithUserID(ctx, userID)

	if allowed, limitMsg := p.checkUserRateLimit(event.Source, chatID); !allowed {
		return limitMsg, nil
	}

	if event.Message.GetType() != "text" {
		return nil, nil
	}
	textMsg, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return nil, errors.New("failed to cast message to text")
	}

	text := textMsg.Text
	if len(text) == 0 {
		return nil, nil
	}
	if len(text) > p.maxMessageLength {
		p.logger.Warnf("text message too long: %d bytes", len(text))
		notice := "질문이 너무 깁니다. 증상이나 에러코드를 짧게 입력해 주세요."
		if docref.DetectLanguage(text) == docref.LangEnglish {
			notice = "Your question is too long. Please describe the symptom or error code briefly."
		}
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessage(notice),
		}, nil
	}

	// Whitespace only; punctuation stays because document references and
	// error codes carry hyphens ("HPLC-030", "E-101").
	text = stringutil.CollapseSpaces(text)
	if text == "" {
		return nil, nil
	}

	if slices.ContainsFunc(helpKeywords, func(k string) bool {
		return strings.EqualFold(text, k)
	}) {
		return p.helpMessages(), nil
	}

	processCtx, cancel := context.WithTimeout(ctx, p.webhookTimeout)
	defer cancel()

	if msgs := p.registry.DispatchMessage(processCtx, text); len(msgs) > 0 {
		return msgs, nil
	}
	return p.helpMessages(), nil
}

// ProcessPostback handles a postback event.
func (p *Processor) ProcessPostback(ctx context.Context, event webhook.PostbackEvent) ([]messaging_api.MessageInterface, error) {
	chatID := GetChatID(event.Source)
	userID := GetUserID(event.Source)
	ctx = ctxutil.WithChatID(ctx, chatID)
	ctx = ctxutil.WithUserID(ctx, userID)

	data := strings.TrimSpace(event.Postback.Data)
	if data == "" {
		p.logger.Warnf("empty postback data")
		return nil, nil
	}
	if len(data) > p.maxPostbackDataSize {
		p.logger.Warnf("postback data too long: %d bytes", len(data))
		return nil, nil
	}

	p.logger.WithField("data", data).Debug("received postback")

	processCtx, cancel := context.WithTimeout(ctx, p.webhookTimeout)
	defer cancel()

	if msgs := p.registry.DispatchPostback(processCtx, data); len(msgs) > 0 {
		return msgs, nil
	}

	// Postbacks carry no query text to detect a language from, so the
	// notice is bilingual like the pagination expiry message.
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessage("선택한 항목이 만료되었거나 유효하지 않습니다. 질문을 다시 입력해 주세요.\nThat selection is expired or invalid. Please send your question again."),
	}, nil
}

// ProcessFollow handles a follow event with the welcome guide.
func (p *Processor) ProcessFollow(event webhook.FollowEvent) ([]messaging_api.MessageInterface, error) {
	p.logger.Info("new user followed the bot")

	return []messaging_api.MessageInterface{
		lineutil.NewTextMessage("안녕하세요! QC 문서 내비게이터입니다.\n장비 증상이나 에러코드를 입력하면 관련 문서를 찾아 드립니다."),
		p.helpMessage(),
	}, nil
}

// helpMessages returns the usage guide as a reply list.
func (p *Processor) helpMessages() []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{p.helpMessage()}
}

// helpMessage builds the usage guide with example-query quick replies.
func (p *Processor) helpMessage() *messaging_api.TextMessage {
	helpText := "사용 방법\n" +
		"• 증상으로 질문: \"HPLC 피크 테일링이 생겨요\"\n" +
		"• 에러코드로 질문: \"GC E-101 에러\"\n" +
		"• 문서 번호로 질문: \"HPLC-030 보여줘\"\n\n" +
		"대상 장비: HPLC / UPLC / GC / ICP\n" +
		"영어 질문도 지원합니다. (English queries are supported.)"

	return lineutil.NewTextMessageWithQuickReply(helpText,
		lineutil.QuickReplyItem{Action: lineutil.NewMessageAction("HPLC 피크 테일링", "HPLC 피크 테일링")},
		lineutil.QuickReplyItem{Action: lineutil.NewMessageAction("GC 베이스라인 드리프트", "GC 베이스라인 드리프트")},
		lineutil.QuickReplyItem{Action: lineutil.NewMessageAction("도움말", "도움말")},
	)
}

// checkUserRateLimit enforces the per-chat token bucket. Shared chats are
// silently dropped to avoid spamming the whole group.
func (p *Processor) checkUserRateLimit(source webhook.SourceInterface, chatID string) (bool, []messaging_api.MessageInterface) {
	if chatID == "" || p.userLimiter == nil {
		return true, nil
	}
	if p.userLimiter.Allow(chatID) {
		return true, nil
	}

	logChatID := chatID
	if len(chatID) > 8 {
		logChatID = chatID[:8] + "..."
	}
	p.logger.WithField("chat_id", logChatID).Warn("user rate limit exceeded")
	p.metrics.RecordRateLimitDrop("user")

	if IsPersonalChat(source) {
		return false, []messaging_api.MessageInterface{
			lineutil.NewTextMessage("요청이 너무 잦습니다. 잠시 후 다시 시도해 주세요.\nToo many requests. Please try again in a moment."),
		}
	}
	return false, nil
}
