package telegram

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/astro_bot/internal/catalog"
	"github.com/mroshb/astro_bot/internal/config"
	"github.com/mroshb/astro_bot/internal/middleware"
	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/internal/services"
	"github.com/mroshb/astro_bot/pkg/utils"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func newTestBot(t *testing.T, maxPerMinute int) (*Bot, *fakeSender, *services.QuizService) {
	t.Helper()
	cat, err := catalog.New([]models.CatalogEntry{{
		Name:     "M31",
		Aliases:  []string{"Andromeda Galaxy"},
		Images:   []string{"u1", "u2"},
		Division: models.DivisionB,
		Hint:     "Nearest large spiral galaxy",
	}})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	quiz := services.NewQuizService(cat, services.QuizOptions{Rand: utils.NewRand(3)})

	limiter := middleware.NewRateLimiter(maxPerMinute, time.Minute)
	t.Cleanup(limiter.Stop)

	out := &fakeSender{}
	cfg := &config.Config{OperatorID: 99, WorkerCount: 2}
	return newBot(cfg, quiz, limiter, out), out, quiz
}

func messageUpdate(chatID, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID},
	}}
}

func TestHandleMessage_Dispatch(t *testing.T) {
	b, out, quiz := newTestBot(t, 100)

	// Steps run in order against one chat; each checks what was sent.
	steps := []struct {
		text      string
		wantPhoto string
		wantText  string
	}{
		{text: "/a", wantPhoto: "u1"},
		{text: "b.pic"},
		{text: "b.hint"},
		{text: "b.m31"},
		{text: "a.pic", wantPhoto: "u2"},
		{text: "/pic", wantPhoto: "u1"},
		{text: "a.hint", wantText: "HINT #1"},
		{text: "/hint", wantText: "HINT #2"},
		{text: "a.orion nebula", wantText: "❌"},
		{text: "nice picture"},
		{text: "/help", wantText: "/pic"},
		{text: "/announce -100 hi", wantText: "operator"},
		{text: "/skip", wantText: "Skipped!"},
		{text: "a.pic"},
		{text: "/pic", wantText: "No active quiz"},
	}
	for _, step := range steps {
		before := out.count()
		b.handleUpdate(messageUpdate(1, 7, step.text))

		if step.wantPhoto == "" && step.wantText == "" {
			if n := out.count() - before; n != 0 {
				t.Errorf("%q: sent %d messages, want none", step.text, n)
			}
			continue
		}
		if out.count() != before+1 {
			t.Fatalf("%q: sent %d messages, want 1", step.text, out.count()-before)
		}

		switch c := out.last().(type) {
		case tgbotapi.PhotoConfig:
			if c.ChatID != 1 || c.File != tgbotapi.FileURL(step.wantPhoto) {
				t.Errorf("%q: sent photo %v to %d, want %s", step.text, c.File, c.ChatID, step.wantPhoto)
			}
		case tgbotapi.MessageConfig:
			if step.wantText == "" || !strings.Contains(c.Text, step.wantText) {
				t.Errorf("%q: sent text %q, want %q", step.text, c.Text, step.wantText)
			}
		default:
			t.Errorf("%q: sent unexpected %T", step.text, c)
		}
	}

	if n := quiz.ActiveSessions(); n != 0 {
		t.Errorf("ActiveSessions() = %d after skip", n)
	}
}

func TestHandleMessage_RateLimited(t *testing.T) {
	b, out, quiz := newTestBot(t, 1)

	b.handleUpdate(messageUpdate(1, 7, "/a"))
	if quiz.ActiveSessions() != 1 || out.count() != 1 {
		t.Fatalf("first command: sessions=%d sent=%d", quiz.ActiveSessions(), out.count())
	}

	b.handleUpdate(messageUpdate(1, 7, "/skip"))
	if quiz.ActiveSessions() != 1 || out.count() != 1 {
		t.Errorf("limited command changed state: sessions=%d sent=%d", quiz.ActiveSessions(), out.count())
	}

	// Chatter does not count against the limit, and other players are unaffected.
	b.handleUpdate(messageUpdate(1, 8, "hello"))
	b.handleUpdate(messageUpdate(1, 8, "/skip"))
	if quiz.ActiveSessions() != 0 {
		t.Error("another player's skip was limited")
	}
}

func TestHandleMessage_IgnoresBots(t *testing.T) {
	b, out, _ := newTestBot(t, 100)

	u := messageUpdate(1, 7, "/a")
	u.Message.From.IsBot = true
	b.handleUpdate(u)
	b.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Text: "/a", Chat: &tgbotapi.Chat{ID: 1}}})

	if out.count() != 0 {
		t.Errorf("sent %d messages for bot or anonymous updates", out.count())
	}
}

func TestSend_SingleAttempt(t *testing.T) {
	b, out, _ := newTestBot(t, 100)
	out.err = errors.New("net/http: timeout awaiting response headers")

	if err := b.SendMessage(1, "✅ Correct!"); err == nil {
		t.Fatal("SendMessage() error = nil, want the send error")
	}
	if out.count() != 1 {
		t.Errorf("Send called %d times, want 1", out.count())
	}
}

func TestCloseWorkers_DrainsQueuedUpdates(t *testing.T) {
	b, out, _ := newTestBot(t, 100)
	b.startWorkers()

	b.dispatch(messageUpdate(1, 7, "/a"))
	b.dispatch(messageUpdate(2, 7, "/help"))
	b.dispatch(tgbotapi.Update{})

	done := make(chan struct{})
	go func() {
		b.closeWorkers()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not stop after their channels closed")
	}
	if out.count() != 2 {
		t.Errorf("sent %d messages, want 2 (queued updates handled before exit)", out.count())
	}
}

func TestStop_Idempotent(t *testing.T) {
	b, _, _ := newTestBot(t, 100)
	b.Stop()
	b.Stop()

	select {
	case <-b.stop:
	default:
		t.Error("stop channel not closed")
	}
}

func TestImageCaption(t *testing.T) {
	got := imageCaption(services.ImagePrompt{
		URL:    "https://example.org/m31.jpg",
		Title:  "🔭 Identify this Deep Space Object!",
		Footer: `Reply with "a.[your guess]" & more`,
	})
	want := "<b>🔭 Identify this Deep Space Object!</b>\n<i>Reply with &#34;a.[your guess]&#34; &amp; more</i>"
	if got != want {
		t.Errorf("imageCaption() = %q, want %q", got, want)
	}
}
