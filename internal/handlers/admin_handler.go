package handlers

import (
	"strconv"
	"strings"

	"github.com/mroshb/astro_bot/internal/security"
	"github.com/mroshb/astro_bot/internal/services"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/mroshb/astro_bot/pkg/logger"
)

const (
	msgOperatorOnly      = "❌ Only the bot operator can use this command."
	msgAnnounceUsage     = "Usage: <code>/announce &lt;chat_id&gt; &lt;message&gt;</code>"
	msgAnnounceFailed    = "❌ Failed to send the announcement."
	msgAnnouncementSent  = "✅ Announcement sent."
	announcementMaxRunes = 4000
)

func (h *HandlerManager) requireOperator(userID int64) error {
	if h.Config.OperatorID == 0 || userID != h.Config.OperatorID {
		return errors.New(errors.ErrCodeForbidden, msgOperatorOnly)
	}
	return nil
}

// HandleAnnounce posts args ("<chat_id> <message>") to the target chat on
// behalf of the operator.
func (h *HandlerManager) HandleAnnounce(origin services.Origin, args string, bot BotInterface) {
	if err := h.requireOperator(origin.UserID); err != nil {
		logger.Warn("Announce rejected", "user_id", origin.UserID, "chat_id", origin.ChatID)
		h.send(origin.ChatID, userMessage(err), bot)
		return
	}

	target, text, ok := parseAnnounceArgs(args)
	if !ok {
		h.send(origin.ChatID, msgAnnounceUsage, bot)
		return
	}

	if err := bot.SendAnnouncement(target, text); err != nil {
		logger.Error("Failed to send announcement", "target_chat_id", target, "error", err)
		h.send(origin.ChatID, msgAnnounceFailed, bot)
		return
	}

	logger.Info("Operator announcement", "operator_id", origin.UserID, "target_chat_id", target)
	h.send(origin.ChatID, msgAnnouncementSent, bot)
}

func parseAnnounceArgs(args string) (int64, string, bool) {
	idStr, rest, found := strings.Cut(strings.TrimSpace(args), " ")
	if !found {
		return 0, "", false
	}
	target, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || target == 0 {
		return 0, "", false
	}

	text := security.SanitizeString(security.SanitizeHTML(rest), announcementMaxRunes)
	if text == "" {
		return 0, "", false
	}
	return target, text, true
}
