package lineutil

// LINE API character limits (rune count)
// Reference: https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength = 5000 // Text message max content length
	MaxAltTextLength     = 400  // Template/Flex message alt text length
	MaxPostbackData      = 300  // Postback action data length

	// Quick Reply Limits
	MaxQuickReplyItemCount = 13 // Max items in a quick reply
	MaxQuickReplyLabel     = 20 // Max label length for quick reply item

	// MaxMessagesPerReply is the LINE API cap on messages per reply token
	MaxMessagesPerReply = 5
)
