package handlers

import (
	"github.com/mroshb/astro_bot/internal/security"
	"github.com/mroshb/astro_bot/internal/services"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/mroshb/astro_bot/pkg/logger"
)

const msgInternalError = "❌ Something went wrong. Please try again."

// HandleStartQuiz starts a quiz in mode (/a, /b, /c).
func (h *HandlerManager) HandleStartQuiz(origin services.Origin, mode string, bot BotInterface) {
	reply, err := h.Quiz.Start(origin, mode)
	h.deliver(origin.ChatID, reply, err, bot)
}

// HandleAnotherPic shows the next image of the active object. mode is set
// for the prefixed form ("a.pic") and empty for /pic.
func (h *HandlerManager) HandleAnotherPic(origin services.Origin, mode string, bot BotInterface) {
	reply, err := h.Quiz.NextImage(origin, mode)
	if h.idlePrefixed(origin, mode, err) {
		return
	}
	h.deliver(origin.ChatID, reply, err, bot)
}

func (h *HandlerManager) HandleHint(origin services.Origin, mode string, bot BotInterface) {
	reply, err := h.Quiz.RequestHint(origin, mode)
	if h.idlePrefixed(origin, mode, err) {
		return
	}
	h.deliver(origin.ChatID, reply, err, bot)
}

func (h *HandlerManager) HandleSkip(origin services.Origin, bot BotInterface) {
	reply, err := h.Quiz.Skip(origin)
	h.deliver(origin.ChatID, reply, err, bot)
}

// HandleGuess judges free text typed with a mode prefix. Chatter in a chat
// with no quiz running gets no answer.
func (h *HandlerManager) HandleGuess(origin services.Origin, mode, text string, bot BotInterface) {
	guess := security.SanitizeGuess(text)
	if guess == "" {
		return
	}

	reply, err := h.Quiz.SubmitGuess(origin, mode, guess)
	if h.idlePrefixed(origin, mode, err) {
		return
	}
	h.deliver(origin.ChatID, reply, err, bot)
}

// idlePrefixed reports whether a mode-prefixed message arrived where no quiz
// is running. Those get no answer, like any other chatter.
func (h *HandlerManager) idlePrefixed(origin services.Origin, mode string, err error) bool {
	if mode == "" || !errors.HasCode(err, errors.ErrCodeNoActiveSession) {
		return false
	}
	logger.Debug("Prefixed message without active quiz", "chat_id", origin.ChatID, "user_id", origin.UserID, "mode", mode)
	return true
}

func (h *HandlerManager) HandleHelp(chatID int64, bot BotInterface) {
	h.send(chatID, services.HelpText(h.Quiz.Modes()), bot)
}

// HandleExpiredSessions runs the TTL sweep and tells each chat the answer.
func (h *HandlerManager) HandleExpiredSessions(bot BotInterface) {
	for _, exp := range h.Quiz.ExpireStale() {
		h.deliver(exp.ChatID, exp.Reply, nil, bot)
	}
}

// deliver sends reply, or the user-facing text of err. Send failures are
// logged; the session state has already moved on.
func (h *HandlerManager) deliver(chatID int64, reply services.Reply, err error, bot BotInterface) {
	if err != nil {
		logger.Debug("Quiz request refused", "chat_id", chatID, "code", errors.CodeOf(err))
		h.send(chatID, userMessage(err), bot)
		return
	}
	if reply.IsEmpty() {
		return
	}

	if reply.Image != nil {
		if sendErr := bot.SendImage(chatID, *reply.Image); sendErr != nil {
			logger.Error("Failed to send image", "chat_id", chatID, "url", reply.Image.URL, "error", sendErr)
		}
		return
	}
	h.send(chatID, reply.Text, bot)
}

func (h *HandlerManager) send(chatID int64, text string, bot BotInterface) {
	if err := bot.SendMessage(chatID, text); err != nil {
		logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

func userMessage(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Code != errors.ErrCodeInternalError {
		return appErr.Message
	}
	logger.Error("Unexpected quiz error", "error", err)
	return msgInternalError
}
