package main

import (
	"context"
	"fmt"
	"html"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketbrief/marketbrief/config"
	"github.com/marketbrief/marketbrief/internal/api/openai"
	"github.com/marketbrief/marketbrief/internal/api/twelvedata"
	"github.com/marketbrief/marketbrief/internal/cache"
	"github.com/marketbrief/marketbrief/internal/handler"
	"github.com/marketbrief/marketbrief/internal/orchestrate"
	"github.com/marketbrief/marketbrief/internal/ratelimit"
	"github.com/marketbrief/marketbrief/internal/store"
	"github.com/marketbrief/marketbrief/internal/symbol"
	"github.com/marketbrief/marketbrief/models"
)

const helpText = `I answer quick market questions.

/stock SYMBOL — live quote, trend and news for a stock (try /stock AAPL)
/crypto SYMBOL — the same for a coin (try /crypto BTC)
/help — this message`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Loading configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_TOKEN is not set")
	}

	kv, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Connecting to the KV store")
	}
	defer cleanup()

	c := cache.New(kv, cache.TTLs{
		Quote:   cfg.QuoteTTL,
		History: cfg.HistoryTTL,
		Summary: cfg.SummaryTTL,
		Profile: cfg.ProfileTTL,
	})

	limiter := ratelimit.New(kv, buildPolicy(cfg))

	market := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: cfg.QuoteTimeout,
	})
	summaries := openai.NewClient(cfg.OpenAIAPIKey, "")

	orch := orchestrate.New(c, market, market, summaries, symbol.Suggest, orchestrate.Options{
		OverallTimeout: cfg.OverallTimeout,
		SummaryTimeout: cfg.SummaryTimeout,
		CloseGrace:     cfg.WriteGrace,
	})
	defer orch.Close()

	h := handler.New(limiter, orch, cfg.HistoryDays)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Connecting to Telegram")
	}
	log.Info().Str("account", bot.Self.UserName).Msg("Bot authorized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			bot.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil || !update.Message.IsCommand() {
				continue
			}
			go handleUpdate(ctx, bot, h, update)
		}
	}
}

func handleUpdate(ctx context.Context, bot *tgbotapi.BotAPI, h *handler.Handler, update tgbotapi.Update) {
	msg := update.Message
	command := msg.Command()

	switch command {
	case "start", "help":
		send(bot, msg.Chat.ID, helpText)
		return
	case "stock", "crypto":
	default:
		// Let the pipeline produce the unknown-command reply.
	}

	cmd := models.CommandInput{
		Command: command,
		Options: map[string]string{"symbol": strings.TrimSpace(msg.CommandArguments())},
		UserID:  strconv.FormatInt(msg.From.ID, 10),
	}

	reply := h.Handle(ctx, cmd)
	send(bot, msg.Chat.ID, renderHTML(reply))
}

// renderHTML flattens the transport-agnostic reply into a Telegram HTML
// message. Telegram has no embeds, so fields become bolded sections.
func renderHTML(reply models.Reply) string {
	if reply.Embed == nil {
		return html.EscapeString(reply.Text)
	}

	var sb strings.Builder
	sb.WriteString("<b>")
	sb.WriteString(html.EscapeString(reply.Embed.Title))
	sb.WriteString("</b>\n")

	for _, f := range reply.Embed.Fields {
		sb.WriteString("\n<b>")
		sb.WriteString(html.EscapeString(f.Name))
		sb.WriteString("</b>\n")
		if f.Name == "Trend" {
			// Monospace keeps the sparkline aligned.
			sb.WriteString("<pre>")
			sb.WriteString(html.EscapeString(f.Value))
			sb.WriteString("</pre>\n")
		} else {
			sb.WriteString(html.EscapeString(f.Value))
			sb.WriteString("\n")
		}
	}

	if reply.Embed.Footer != "" {
		sb.WriteString("\n<i>")
		sb.WriteString(html.EscapeString(reply.Embed.Footer))
		sb.WriteString("</i>")
	}
	return sb.String()
}

func send(bot *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Sending reply")
	}
}

func buildStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.DBHost == "" {
		log.Warn().Msg("DB_HOST not set, using the in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(store.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("postgres store: %w", err)
	}
	return pg, func() { pg.Close() }, nil
}

func buildPolicy(cfg *config.Config) ratelimit.Policy {
	if cfg.RateLimitPolicy == "sliding" {
		return ratelimit.SlidingWindow{Span: cfg.RateLimitWindow, Max: cfg.RateLimitMax}
	}
	return ratelimit.FixedCooldown{Cooldown: cfg.RateLimitWindow}
}
