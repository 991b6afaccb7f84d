package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/bookchat/internal/chat"
	"github.com/matheus3301/bookchat/internal/tui/ui"
)

// ContactList is the table of people the user has chatted with.
type ContactList struct {
	*tview.Table
	theme    *ui.Theme
	contacts []chat.Contact
	active   string
}

// NewContactList creates a new contact table.
func NewContactList(theme *ui.Theme) *ContactList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Contacts ")
	table.SetTitleColor(theme.TitleColor)

	return &ContactList{Table: table, theme: theme}
}

// Update replaces the rows, keeping the cursor on the same contact when it
// is still listed. active marks the open conversation, if any.
func (cl *ContactList) Update(contacts []chat.Contact, active string) {
	selected := cl.SelectedContact()
	cl.contacts = contacts
	cl.active = active
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Contact").
		SetSelectable(false).
		SetTextColor(cl.theme.TableHeaderFg).
		SetAttributes(tcell.AttrBold))

	if len(contacts) == 0 {
		cl.SetCell(1, 0, tview.NewTableCell(" no conversations yet").
			SetSelectable(false).
			SetTextColor(cl.theme.DimColor))
		return
	}

	row := 1
	for i, c := range contacts {
		label := " " + sanitizeForTerminal(c.Username)
		color := cl.theme.FgColor
		if c.Username == active {
			label = "*" + label[1:]
			color = cl.theme.PeerColor
		}
		cl.SetCell(i+1, 0, tview.NewTableCell(label).
			SetTextColor(color).
			SetExpansion(1))
		if c.Username == selected.Username {
			row = i + 1
		}
	}
	cl.Select(row, 0)
}

// SelectedContact returns the contact under the cursor.
func (cl *ContactList) SelectedContact() chat.Contact {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(cl.contacts) {
		return cl.contacts[idx]
	}
	return chat.Contact{}
}

// SetOnSelect sets the callback when a contact is chosen with Enter.
func (cl *ContactList) SetOnSelect(fn func(chat.Contact)) {
	cl.SetSelectedFunc(func(row, _ int) {
		idx := row - 1
		if idx >= 0 && idx < len(cl.contacts) {
			fn(cl.contacts[idx])
		}
	})
}
