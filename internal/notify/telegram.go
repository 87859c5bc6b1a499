package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/shopvd/backoffice/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrTelegramDisabled Telegram 未配置
var ErrTelegramDisabled = errors.New("telegram notifier disabled")

// Messenger 管理员消息通道
type Messenger interface {
	SendHTML(ctx context.Context, text string) error
}

// Telegram 基于 Bot API 的消息通道
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram 创建 Telegram 通道；未启用时返回 ErrTelegramDisabled
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if !cfg.Enabled || token == "" || cfg.ChatID == 0 {
		return nil, ErrTelegramDisabled
	}
	endpoint := strings.TrimSpace(cfg.APIEndpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

// SendHTML 发送 HTML 格式消息，不展示链接预览
func (t *Telegram) SendHTML(ctx context.Context, text string) error {
	if t == nil || t.bot == nil {
		return ErrTelegramDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}
