package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/bookchat/internal/chat"
)

// StatusBar displays the profile, signed-in user and widget state.
type StatusBar struct {
	*tview.TextView
	profile string
	user    string
	state   string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// Update reflects a session snapshot.
func (sb *StatusBar) Update(v chat.SessionView, user string) {
	sb.user = user
	sb.state = describeState(v)
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	user := sb.user
	if user == "" {
		user = "signed out"
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s | %s",
		tview.Escape(sb.profile), tview.Escape(user), sb.state, time.Now().Format("15:04"))
	_, _ = fmt.Fprint(sb, line)
}

func describeState(v chat.SessionView) string {
	if !v.Available {
		return "chat unavailable"
	}
	switch v.Visibility {
	case chat.ContactsOpen:
		return fmt.Sprintf("contacts (%d)", len(v.Contacts))
	case chat.ConversationOpen:
		return "chatting with " + tview.Escape(v.Window.Contact.Username)
	default:
		return "chat collapsed"
	}
}
