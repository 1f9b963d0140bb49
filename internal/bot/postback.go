package bot

import (
	"fmt"
	"strings"

	"github.com/mih97/qcnav-linebot-go/internal/lineutil"
)

// PostbackSplitChar separates the action and its parameters in postback
// payloads. The full format is "module:action$param1$param2". Parameter
// values must not contain '$'; there is no escaping mechanism.
const PostbackSplitChar = "$"

// PostbackData is a decoded postback payload.
type PostbackData struct {
	Module string
	Action string
	Params []string
}

// BuildPostback encodes a postback payload in the "module:action$param..."
// format. Returns an error when the encoded payload exceeds the LINE
// 300-byte limit, so oversized buttons fail at build time rather than
// silently at the API.
func BuildPostback(module, action string, params ...string) (string, error) {
	parts := append([]string{action}, params...)
	data := module + ":" + strings.Join(parts, PostbackSplitChar)
	if len(data) > lineutil.MaxPostbackData {
		return "", fmt.Errorf("postback data %d bytes exceeds limit %d", len(data), lineutil.MaxPostbackData)
	}
	return data, nil
}

// ParsePostback decodes a "module:action$param1$param2" payload.
func ParsePostback(data string) (*PostbackData, error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid postback format: missing ':' separator")
	}

	fields := strings.Split(parts[1], PostbackSplitChar)
	if fields[0] == "" {
		return nil, fmt.Errorf("invalid postback format: missing action")
	}

	return &PostbackData{
		Module: parts[0],
		Action: fields[0],
		Params: fields[1:],
	}, nil
}
