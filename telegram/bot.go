package telegram

import (
	"fmt"
	"html"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/astro_bot/internal/config"
	"github.com/mroshb/astro_bot/internal/handlers"
	"github.com/mroshb/astro_bot/internal/middleware"
	"github.com/mroshb/astro_bot/internal/services"
	"github.com/mroshb/astro_bot/pkg/logger"
)

// sender is the part of *tgbotapi.BotAPI used for outbound messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	config   *config.Config
	handlers *handlers.HandlerManager
	limiter  *middleware.RateLimiter
	modeKeys []string

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update
	workers     sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once
}

func InitBot(cfg *config.Config, quiz *services.QuizService, limiter *middleware.RateLimiter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := newBot(cfg, quiz, limiter, api)
	bot.api = api

	bot.startWorkers()
	go bot.startUpdateListener()

	if cfg.SessionTTLMinutes > 0 {
		go bot.startBackgroundJobs()
	}

	return bot, nil
}

func newBot(cfg *config.Config, quiz *services.QuizService, limiter *middleware.RateLimiter, s sender) *Bot {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	return &Bot{
		sender:      s,
		config:      cfg,
		handlers:    handlers.NewHandlerManager(cfg, quiz),
		limiter:     limiter,
		modeKeys:    services.ModeKeys(quiz.Modes()),
		workerChans: make([]chan tgbotapi.Update, workers),
		stop:        make(chan struct{}),
	}
}

func (b *Bot) startWorkers() {
	for i := range b.workerChans {
		b.workerChans[i] = make(chan tgbotapi.Update, 100)
		b.workers.Add(1)
		go b.startWorker(b.workerChans[i])
	}
}

func (b *Bot) startUpdateListener() {
	// Only the listener writes to the worker channels.
	defer b.closeWorkers()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			b.dispatch(update)
		}

		select {
		case <-b.stop:
			return
		default:
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		select {
		case <-b.stop:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// dispatch hashes an update onto a worker by chat id, so each chat's
// messages are handled in order.
func (b *Bot) dispatch(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	workerIdx := msg.Chat.ID % int64(len(b.workerChans))
	if workerIdx < 0 {
		workerIdx = -workerIdx
	}
	b.workerChans[workerIdx] <- update
}

// closeWorkers closes every worker channel and waits for the queued updates
// to drain.
func (b *Bot) closeWorkers() {
	for _, ch := range b.workerChans {
		close(ch)
	}
	b.workers.Wait()
	logger.Info("Update workers stopped")
}

func (b *Bot) startBackgroundJobs() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.handlers.HandleExpiredSessions(b)
		case <-b.stop:
			return
		}
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	defer b.workers.Done()
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil || message.From.IsBot || message.Chat == nil {
		return
	}

	cmd := ParseCommand(message.Text, b.modeKeys)
	if cmd.Kind == CmdNone {
		return
	}

	origin := services.Origin{ChatID: message.Chat.ID, UserID: message.From.ID}
	if !b.limiter.Allow(origin.UserID) {
		logger.Warn("Rate limit exceeded", "user_id", origin.UserID, "chat_id", origin.ChatID, "command", cmd.Kind.String())
		return
	}

	logger.Debug("Received command",
		"chat_id", origin.ChatID,
		"user_id", origin.UserID,
		"command", cmd.Kind.String(),
		"mode", cmd.Mode,
	)

	switch cmd.Kind {
	case CmdStart:
		b.handlers.HandleStartQuiz(origin, cmd.Mode, b)
	case CmdPic:
		b.handlers.HandleAnotherPic(origin, cmd.Mode, b)
	case CmdSkip:
		b.handlers.HandleSkip(origin, b)
	case CmdHint:
		b.handlers.HandleHint(origin, cmd.Mode, b)
	case CmdGuess:
		b.handlers.HandleGuess(origin, cmd.Mode, cmd.Args, b)
	case CmdAnnounce:
		b.handlers.HandleAnnounce(origin, cmd.Args, b)
	case CmdHelp:
		b.handlers.HandleHelp(origin.ChatID, b)
	}
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return b.send(chatID, msg)
}

// SendImage posts the image by URL; Telegram fetches it.
func (b *Bot) SendImage(chatID int64, image services.ImagePrompt) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(image.URL))
	photo.Caption = imageCaption(image)
	photo.ParseMode = tgbotapi.ModeHTML
	return b.send(chatID, photo)
}

func (b *Bot) SendAnnouncement(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return b.send(chatID, msg)
}

func imageCaption(image services.ImagePrompt) string {
	return fmt.Sprintf("<b>%s</b>\n<i>%s</i>", html.EscapeString(image.Title), html.EscapeString(image.Footer))
}

// send makes a single attempt; a failure is logged and returned, never retried.
func (b *Bot) send(chatID int64, c tgbotapi.Chattable) error {
	if _, err := b.sender.Send(c); err != nil {
		logger.Warn("Telegram send failed", "error", err, "chat_id", chatID)
		return err
	}
	return nil
}

// Stop ends polling and the background jobs. The update listener then closes
// the worker channels.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		if b.api != nil {
			b.api.StopReceivingUpdates()
		}
		logger.Info("Bot stopped receiving updates")
	})
}
