package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/bookchat/internal/tui/ui"
)

// Composer is the text input for sending messages. Its text mirrors the
// chat window's draft.
type Composer struct {
	*tview.InputField
	onSend   func(text string)
	onChange func(text string)
	silent   bool
}

// NewComposer creates a new message composer.
func NewComposer(theme *ui.Theme) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetTitle(" Message (i to focus, Enter to send) ")
	input.SetTitleColor(theme.DimColor)

	c := &Composer{InputField: input}

	input.SetChangedFunc(func(text string) {
		if !c.silent && c.onChange != nil {
			c.onChange(text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSend != nil {
			if text := c.GetText(); text != "" {
				c.onSend(text)
			}
		}
	})

	return c
}

// SetOnSend sets the callback when Enter is pressed. The text stays in the
// field until the send is confirmed.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnChange sets the callback for user edits.
func (c *Composer) SetOnChange(fn func(text string)) {
	c.onChange = fn
}

// SetDraft replaces the text without reporting it as a user edit.
func (c *Composer) SetDraft(text string) {
	if c.GetText() == text {
		return
	}
	c.silent = true
	c.SetText(text)
	c.silent = false
}
