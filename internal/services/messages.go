package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/mroshb/astro_bot/internal/models"
)

// Text is sent with HTML parse mode; catalog strings are escaped here.

const (
	QuizTitle   = "🔭 Identify this Deep Space Object!"
	HintMask    = "###"
	SkipKeyword = "skip"

	MsgNoEligibleObjects = "No objects available in this mode."
	MsgChannelBusy       = "❗ Someone else already has a quiz running in this chat. Wait for it to finish."
	MsgNoImages          = "⚠️ No images available for this object."
	MsgNoMoreHints       = "No further hints available for this object."
)

var Insults = []string{
	"❌ ok bugbo 🥀",
	"❌ If ignorance is bliss, you must be the happiest person alive.",
	"❌ Incorrect!",
}

func footer(mode string) string {
	return fmt.Sprintf(`Reply with "%[1]s.[your guess]", "%[1]s.pic" for another view, "%[1]s.skip" to skip, or "%[1]s.hint" for up to 2 hints.`, mode)
}

func msgAlreadyActive(mode string) string {
	return fmt.Sprintf("❗ There's already an active quiz here. Use <code>%[1]s.skip</code> to skip or <code>%[1]s.pic</code> for another image.", mode)
}

func msgNoActiveSession(modes []Mode) string {
	starts := make([]string, 0, len(modes))
	for _, m := range modes {
		starts = append(starts, "/"+m.Key)
	}
	return fmt.Sprintf("No active quiz. Use %s to start one.", strings.Join(starts, ", "))
}

func msgFirstHint(prefix string) string {
	return fmt.Sprintf("💡 HINT #1: The first three letters are <b>%s%s</b>", html.EscapeString(prefix), HintMask)
}

func msgSecondHint(hint string) string {
	return "💡 HINT #2: " + html.EscapeString(hint)
}

func reveal(lead string, entry *models.CatalogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>.", lead, html.EscapeString(entry.DisplayName()))
	if entry.WikipediaURL != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(entry.WikipediaURL))
	}
	return b.String()
}

func msgSkipped(entry *models.CatalogEntry) string {
	return reveal("⏭️ Skipped! The correct answer was", entry)
}

func msgCorrect(entry *models.CatalogEntry) string {
	return reveal("✅ Correct! It's", entry)
}

func msgExpired(entry *models.CatalogEntry) string {
	return reveal("⌛ Time's up! The correct answer was", entry)
}

// HelpText lists the commands for the configured modes.
func HelpText(modes []Mode) string {
	var b strings.Builder
	b.WriteString("🌌 Deep space object quiz\n\n")
	for _, m := range modes {
		fmt.Fprintf(&b, "/%s - start a quiz: %s\n", m.Key, html.EscapeString(m.Label))
	}
	b.WriteString("/pic - another image of the current object\n")
	b.WriteString("/hint - up to two hints\n")
	b.WriteString("/skip - reveal the answer\n\n")
	b.WriteString("Guess by typing the mode prefix, e.g. <code>a.andromeda galaxy</code>")
	return b.String()
}
