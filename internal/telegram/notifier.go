package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
)

// MessageSender is the part of *bot.Bot the notifier uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier posts operator notifications to topics of a Telegram forum chat.
// Sends happen in the background; Wait blocks until they finish.
type Notifier struct {
	sender MessageSender
	cfg    *config.Config
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewNotifier(sender MessageSender, cfg *config.Config) *Notifier {
	return &Notifier{sender: sender, cfg: cfg, now: time.Now}
}

// NewBot builds a send-only bot client for notifications.
func NewBot(token string) (*bot.Bot, error) {
	return bot.New(token, bot.WithSkipGetMe())
}

type Topic string

const (
	TopicError         Topic = "error"
	TopicTaskPosted    Topic = "taskPosted"
	TopicPaymentFailed Topic = "paymentFailed"
)

func (n *Notifier) TaskPosted(task *domain.Task) {
	msg := fmt.Sprintf("📌 *Task Posted*\n\n*Title:* %s\n*Budget:* $%s - $%s\n*Poster:* `%s`\n*Task:* `%s`",
		EscapeMarkdown(task.Title), task.BudgetMin.StringFixed(2), task.BudgetMax.StringFixed(2), task.PosterID, task.ID)
	n.Log(TopicTaskPosted, msg)
}

func (n *Notifier) PaymentFailed(attempt *domain.PaymentAttempt) {
	msg := fmt.Sprintf("💳 *Payment Failed*\n\n*Intent:* `%s`\n*User:* `%s`\n*Amount:* %d",
		attempt.PaymentIntentID, attempt.UserID, attempt.Amount)
	n.Log(TopicPaymentFailed, msg)
}

func (n *Notifier) Error(err error, where string) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* %s\n*Time:* %s",
		EscapeMarkdown(where), EscapeMarkdown(err.Error()), n.now().UTC().Format("2006-01-02 15:04:05"))
	n.Log(TopicError, msg)
}

// Log queues message for the topic. Topics without a configured thread are
// dropped. A nil *Notifier drops everything.
func (n *Notifier) Log(topic Topic, message string) {
	if n == nil || n.cfg.LogTelegramChatID == 0 {
		return
	}
	topicID := n.topicID(topic)
	if topicID == 0 {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(topic, topicID, Truncate(message, config.MaxTelegramMessageLen))
	}()
}

// Wait blocks until queued messages are sent or have failed.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *Notifier) send(topic Topic, topicID int, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), config.TelegramSendTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:          n.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: topicID,
	}
	if _, err := n.sender.SendMessage(ctx, params); err != nil {
		slog.Warn("markdown send failed, falling back to plain text", "topic", topic, "error", err)
		params.ParseMode = ""
		if _, err := n.sender.SendMessage(ctx, params); err != nil {
			slog.Error("failed to send telegram log", "topic", topic, "error", err)
		}
	}
}

func (n *Notifier) topicID(topic Topic) int {
	switch topic {
	case TopicError:
		return n.cfg.LogTopicError
	case TopicTaskPosted:
		return n.cfg.LogTopicTaskPosted
	case TopicPaymentFailed:
		return n.cfg.LogTopicPaymentFailed
	default:
		return 0
	}
}
