package bot

import (
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

func TestGetChatID(t *testing.T) {
	tests := []struct {
		name   string
		source webhook.SourceInterface
		want   string
	}{
		{"user source", webhook.UserSource{UserId: "U123"}, "U123"},
		{"group source", webhook.GroupSource{GroupId: "G456", UserId: "U123"}, "G456"},
		{"room source", webhook.RoomSource{RoomId: "R789", UserId: "U123"}, "R789"},
		{"nil source", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetChatID(tt.source); got != tt.want {
				t.Errorf("GetChatID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	if got := GetUserID(webhook.GroupSource{GroupId: "G456", UserId: "U123"}); got != "U123" {
		t.Errorf("GetUserID() = %q, want U123", got)
	}
	if got := GetUserID(nil); got != "" {
		t.Errorf("GetUserID(nil) = %q, want empty", got)
	}
}

func TestIsPersonalChat(t *testing.T) {
	if !IsPersonalChat(webhook.UserSource{UserId: "U123"}) {
		t.Error("user source should be personal")
	}
	if IsPersonalChat(webhook.GroupSource{GroupId: "G456"}) {
		t.Error("group source should not be personal")
	}
}
