package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/mih97/qcnav-linebot-go/internal/ctxutil"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
	domerrors "github.com/mih97/qcnav-linebot-go/internal/errors"
	"github.com/mih97/qcnav-linebot-go/internal/lineutil"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/navigate"
)

const (
	navModuleName     = "nav"
	navPostbackPrefix = "nav:"
	navActionMore     = "more"
)

// NavigateHandler answers symptom queries with ranked QC document
// recommendations and pages through captured result lists on "show more"
// postbacks. It is the catch-all module: any non-empty text is a query.
type NavigateHandler struct {
	resolver *navigate.Resolver
	logger   *logger.Logger
}

// NewNavigateHandler creates the document navigation module.
func NewNavigateHandler(resolver *navigate.Resolver, log *logger.Logger) *NavigateHandler {
	return &NavigateHandler{
		resolver: resolver,
		logger:   log.WithModule(navModuleName),
	}
}

// Name implements Handler.
func (h *NavigateHandler) Name() string { return navModuleName }

// PostbackPrefix implements Handler.
func (h *NavigateHandler) PostbackPrefix() string { return navPostbackPrefix }

// CanHandle implements Handler. Every non-empty text is a document query.
func (h *NavigateHandler) CanHandle(text string) bool {
	return strings.TrimSpace(text) != ""
}

// HandleMessage resolves a symptom query into a first-page answer.
func (h *NavigateHandler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	chatID := ctxutil.GetChatID(ctx)

	reply, err := h.resolver.Answer(ctx, chatID, text)
	if err != nil && !errors.Is(err, domerrors.ErrEmptyResultSet) {
		h.logger.WithError(err).Warn("query resolution failed")
	}
	// The resolver renders a reply for every outcome: a page of results,
	// the fixed apology, or a generic failure message.
	return h.replyMessages(reply)
}

// HandlePostback serves the next page of a captured result list.
// The payload arrives prefix-stripped as "more$<pageIndex>".
func (h *NavigateHandler) HandlePostback(ctx context.Context, data string) []messaging_api.MessageInterface {
	fields := strings.Split(data, PostbackSplitChar)
	if fields[0] != navActionMore || len(fields) != 2 {
		h.logger.WithField("data", data).Warn("unknown postback action")
		return nil
	}

	pageIndex, err := strconv.Atoi(fields[1])
	if err != nil || pageIndex < 1 {
		h.logger.WithField("data", data).Warn("invalid postback page index")
		return nil
	}

	chatID := ctxutil.GetChatID(ctx)
	reply, err := h.resolver.More(ctx, chatID, pageIndex)
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			return []messaging_api.MessageInterface{
				lineutil.NewTextMessage("이전 검색 결과가 만료되었습니다. 질문을 다시 입력해 주세요.\nThe previous results have expired. Please send your question again."),
			}
		}
		h.logger.WithError(err).Warn("pagination failed")
		return nil
	}
	return h.replyMessages(reply)
}

// replyMessages converts an assembled reply into LINE messages, attaching
// the "show more" quick reply when further pages exist.
func (h *NavigateHandler) replyMessages(reply *navigate.Reply) []messaging_api.MessageInterface {
	if reply == nil || reply.Text == "" {
		return nil
	}

	if !reply.HasMore {
		return []messaging_api.MessageInterface{lineutil.NewTextMessage(reply.Text)}
	}

	label := "Show more"
	if reply.Language == docref.LangKorean {
		label = "더 보기"
	}

	data, err := BuildPostback(navModuleName, navActionMore, strconv.Itoa(reply.PageIndex+1))
	if err != nil {
		// Payload is a short constant format; failure here means a bug,
		// not user input. Serve the page without the button.
		h.logger.WithError(err).Errorf("failed to build pagination postback")
		return []messaging_api.MessageInterface{lineutil.NewTextMessage(reply.Text)}
	}

	msg := lineutil.NewTextMessageWithQuickReply(reply.Text, lineutil.QuickReplyItem{
		Action: lineutil.NewPostbackActionWithDisplayText(label, label, data),
	})
	return []messaging_api.MessageInterface{msg}
}
