package ui

import "github.com/rivo/tview"

// Pages wraps tview.Pages, showing exactly one page at a time and
// notifying when the visible page changes.
type Pages struct {
	*tview.Pages
	current  string
	onChange func(name string)
}

// NewPages creates a new page switcher.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange sets a callback that fires when the visible page changes.
func (p *Pages) SetOnChange(fn func(name string)) {
	p.onChange = fn
}

// Show makes name the only visible page. Showing the current page again is
// a no-op and reports false.
func (p *Pages) Show(name string) bool {
	if name == p.current {
		return false
	}
	p.SwitchToPage(name)
	p.current = name
	if p.onChange != nil {
		p.onChange(name)
	}
	return true
}

// Current returns the name of the visible page.
func (p *Pages) Current() string {
	return p.current
}
