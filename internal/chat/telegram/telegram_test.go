package telegram

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/ovoronin/hireloop/internal/chat"
)

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	length := len(text)
	if idx := strings.IndexByte(text, ' '); idx != -1 {
		length = idx
	}
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestNormalizeCommand(t *testing.T) {
	t.Parallel()

	in, ok := normalize(tgbotapi.Update{Message: commandMessage(7, "/start  tok-42 ")})
	require.True(t, ok)
	require.Equal(t, chat.KindCommand, in.Kind)
	require.EqualValues(t, 7, in.ChatID)
	require.Equal(t, "start", in.Command)
	require.Equal(t, "tok-42", in.Args)
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	in, ok := normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 8},
		Text: "three years",
	}})
	require.True(t, ok)
	require.Equal(t, chat.KindText, in.Kind)
	require.Equal(t, "three years", in.Text)
	require.Empty(t, in.FileRef)
}

func TestNormalizeDocument(t *testing.T) {
	t.Parallel()

	in, ok := normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 9},
		Caption:  "my portfolio",
		Document: &tgbotapi.Document{FileID: "file-123"},
	}})
	require.True(t, ok)
	require.Equal(t, chat.KindText, in.Kind)
	require.Equal(t, "file-123", in.FileRef)
	require.Equal(t, "my portfolio", in.Text)
}

func TestNormalizeCallback(t *testing.T) {
	t.Parallel()

	in, ok := normalize(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		Data:    "choice:Yes",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}},
	}})
	require.True(t, ok)
	require.Equal(t, chat.KindCallback, in.Kind)
	require.Equal(t, "choice:Yes", in.Callback)
}

func TestNormalizeIgnoresOtherUpdates(t *testing.T) {
	t.Parallel()

	_, ok := normalize(tgbotapi.Update{})
	require.False(t, ok)

	_, ok = normalize(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{Data: "x"}})
	require.False(t, ok)
}
