package reporter

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-notice-crawler/internal/models"
	"go-notice-crawler/internal/notice"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier posts new notices and run summaries to one chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithClient(token, chatID, tgbotapi.APIEndpoint, &http.Client{})
}

// NewTelegramNotifierWithClient points the bot at another API endpoint
// (format "https://host/bot%s/%s").
func NewTelegramNotifierWithClient(token string, chatID int64, endpoint string, client *http.Client) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// escapeLinkURL escapes the two characters MarkdownV2 reserves inside (...).
func escapeLinkURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`).Replace(u)
}

const (
	previewRunes = 300
	reasonRunes  = 200
)

func formatNotice(n models.Notice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 *%s*\n", escapeMarkdown(n.Title))
	fmt.Fprintf(&b, "🏫 %s\n", escapeMarkdown(n.SourceSchool))
	if n.HasDate() {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdown(n.DatePosted))
	}
	if n.Content != "" && n.Content != models.ContentNotFound {
		fmt.Fprintf(&b, "📝 %s\n", escapeMarkdown(truncate(n.Content, previewRunes)))
	}
	fmt.Fprintf(&b, "🔗 [View notice](%s)", escapeLinkURL(n.OriginalLink))
	return b.String()
}

func formatSummary(r *notice.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ℹ️ Crawl %s finished in %s\n", r.RunID, r.Duration.Round(time.Second))
	fmt.Fprintf(&b, "new: %d, already stored: %d, failed: %d", r.Created, r.Existing, r.Failed)
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(&b, "\n❌ %s: %s (%s)", res.Key, res.Status, truncate(res.Error(), reasonRunes))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func (t *TelegramNotifier) SendNotice(n models.Notice) error {
	msg := tgbotapi.NewMessage(t.chatID, formatNotice(n))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Open notice", n.OriginalLink),
		),
	)
	_, err := t.bot.Send(msg)
	return err
}

// SendRunSummary sends plain text; report fields are not escaped.
func (t *TelegramNotifier) SendRunSummary(r *notice.RunReport) error {
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, formatSummary(r)))
	return err
}

func (t *TelegramNotifier) SendError(errReq error) error {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("❌ Notice crawler error: %v", errReq))
	_, err := t.bot.Send(msg)
	return err
}
