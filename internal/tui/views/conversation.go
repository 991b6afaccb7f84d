package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/bookchat/internal/chat"
	"github.com/matheus3301/bookchat/internal/tui/ui"
)

// Conversation displays the active conversation's history above a composer.
type Conversation struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *Composer
	contact  string
	now      func() time.Time
}

// NewConversation creates a new conversation view.
func NewConversation(theme *ui.Theme) *Conversation {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	composer := NewComposer(theme)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	return &Conversation{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}
}

// Update renders the window snapshot. self is the signed-in username. The
// composer text follows the draft only when the conversation changes, so
// typing is never overwritten by a redraw.
func (cv *Conversation) Update(w chat.WindowView, self string) {
	switched := w.Contact.Username != cv.contact
	cv.contact = w.Contact.Username

	cv.messages.SetTitle(" " + tview.Escape(conversationTitle(w)) + " ")
	cv.messages.Clear()
	_, _ = fmt.Fprint(cv.messages, renderHistory(w, self, cv.theme, cv.now()))
	cv.messages.ScrollToEnd()

	if switched {
		cv.composer.SetDraft(w.Draft)
	}
}

// ClearComposer empties the composer if it still holds sent.
func (cv *Conversation) ClearComposer(sent string) {
	if cv.composer.GetText() == sent {
		cv.composer.SetDraft("")
	}
}

// Messages returns the history text view (for focus management).
func (cv *Conversation) Messages() *tview.TextView {
	return cv.messages
}

// Composer returns the composer (for focus management and callbacks).
func (cv *Conversation) Composer() *Composer {
	return cv.composer
}

func conversationTitle(w chat.WindowView) string {
	switch w.State {
	case chat.Loading:
		return w.Contact.Username + " (loading...)"
	case chat.Active:
		if w.FetchErr != nil {
			return w.Contact.Username + " (offline copy)"
		}
		return w.Contact.Username
	default:
		return "Chat"
	}
}

func renderHistory(w chat.WindowView, self string, theme *ui.Theme, now time.Time) string {
	dim := ui.ColorTag(theme.DimColor)
	if w.State == chat.Loading && len(w.History) == 0 {
		return fmt.Sprintf("[%s]loading history...[-]", dim)
	}
	if len(w.History) == 0 {
		if w.FetchErr != nil {
			return fmt.Sprintf("[%s]could not load history; messages you send will still be delivered[-]", dim)
		}
		return fmt.Sprintf("[%s]no messages yet, say hello[-]", dim)
	}

	var b strings.Builder
	for _, m := range w.History {
		sender, color := m.Sender, ui.ColorTag(theme.PeerColor)
		if m.Sender == self {
			sender, color = "You", ui.ColorTag(theme.SelfColor)
		}
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [%s]%s[-]\n%s\n\n",
			color, tview.Escape(sanitizeForTerminal(sender)),
			dim, formatTimestamp(m.Timestamp, now),
			tview.Escape(sanitizeForTerminal(m.Body)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
