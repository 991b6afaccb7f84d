package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/bookchat/internal/tui/ui"
)

// HelpView displays the key binding and command reference.
type HelpView struct {
	*tview.TextView
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	_, _ = fmt.Fprint(tv, helpText(ui.ColorTag(theme.MenuKeyColor)))
	return &HelpView{TextView: tv}
}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Global Keys", [][2]string{
		{"c", "Open or collapse the chat"},
		{":", "Command mode"},
		{"?", "Help"},
		{"q", "Quit"},
	}},
	{"Contacts", [][2]string{
		{"Enter", "Open conversation"},
		{"r", "Refresh contacts"},
		{"Esc", "Collapse chat"},
	}},
	{"Conversation", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send message (in composer)"},
		{"Esc", "Back to contacts"},
	}},
	{"Commands", [][2]string{
		{":contact <seller>", "Message a book's seller"},
		{":open <user>", "Open a conversation"},
		{":refresh", "Refresh contacts"},
		{":close / :closeall", "Close conversation / collapse"},
		{":login <user> / :logout", "Switch marketplace user"},
		{":quit", "Quit"},
	}},
}

func helpText(keyColor string) string {
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-26s[-:-:-] %s\n", keyColor, tview.Escape(r[0]), r[1])
		}
	}
	return b.String()
}
