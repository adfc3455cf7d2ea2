// Package notify отправляет уведомления о сохраненных КП в Telegram.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kpcalc/internal/storage"
)

// Notifier шлет краткое уведомление админам при сохранении КП.
// Пустой токен полностью отключает отправку — сервис работает без бота.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zap.Logger
}

func New(token string, chatIDs []int64, logger *zap.Logger) (*Notifier, error) {
	if token == "" {
		logger.Warn("Telegram notifications disabled - no token configured")
		return &Notifier{logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram notifications enabled",
		zap.String("bot", bot.Self.UserName),
		zap.Int("chats", len(chatIDs)))

	return &Notifier{
		bot:     bot,
		chatIDs: chatIDs,
		logger:  logger,
	}, nil
}

// QuoteSaved уведомляет все сконфигурированные чаты о новом КП.
// Ошибки отправки логируются и не прерывают запрос: уведомление
// вторично по отношению к сохранению.
func (n *Notifier) QuoteSaved(quote storage.Quote) {
	if n.bot == nil || len(n.chatIDs) == 0 {
		return
	}

	text := fmt.Sprintf(
		"📋 Новое КП #%d\n"+
			"Продавец: %s\n"+
			"Клиент: %s\n"+
			"Позиций: %d\n"+
			"Итого с НДС: %s %s\n"+
			"Прибыль: %s %s",
		quote.ID,
		quote.SellerCompany,
		quote.ClientName,
		len(quote.Products),
		quote.TotalSaleIncVAT.StringFixed(2), quote.QuoteCurrency,
		quote.TotalProfit.StringFixed(2), quote.QuoteCurrency,
	)

	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error("Failed to send quote notification",
				zap.Int64("chat_id", chatID),
				zap.Int64("quote_id", quote.ID),
				zap.Error(err))
		}
	}
}
