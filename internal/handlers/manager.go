package handlers

import (
	"github.com/mroshb/astro_bot/internal/config"
	"github.com/mroshb/astro_bot/internal/services"
)

// BotInterface is the outbound side of the chat transport.
type BotInterface interface {
	SendMessage(chatID int64, text string) error
	SendImage(chatID int64, image services.ImagePrompt) error
	SendAnnouncement(chatID int64, text string) error
}

type HandlerManager struct {
	Config *config.Config
	Quiz   *services.QuizService
}

func NewHandlerManager(cfg *config.Config, quiz *services.QuizService) *HandlerManager {
	return &HandlerManager{
		Config: cfg,
		Quiz:   quiz,
	}
}
