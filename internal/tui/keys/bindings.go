// Package keys holds the TUI key bindings, scoped globally or per page.
package keys

import (
	"sort"

	"github.com/gdamore/tcell/v2"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string // key as shown in hints, e.g. "Enter"
	Description string
	Handler     func()
	Visible     bool
	order       int
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Hint is a visible binding for the menu bar.
type Hint struct {
	Key         string
	Description string
}

// Registry holds keybindings organized by scope.
type Registry struct {
	Global map[string]*Action
	Views  map[string]map[string]*Action
	next   int
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		Global: make(map[string]*Action),
		Views:  make(map[string]map[string]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(name string, action *Action) {
	action.order = r.bump()
	r.Global[name] = action
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view, name string, action *Action) {
	if r.Views[view] == nil {
		r.Views[view] = make(map[string]*Action)
	}
	action.order = r.bump()
	r.Views[view][name] = action
}

func (r *Registry) bump() int {
	r.next++
	return r.next
}

// Hints returns visible bindings for view, view-specific first, each group
// in registration order.
func (r *Registry) Hints(view string) []Hint {
	var hints []Hint
	for _, a := range sorted(r.Views[view]) {
		if a.Visible {
			hints = append(hints, Hint{Key: a.label(), Description: a.Description})
		}
	}
	for _, a := range sorted(r.Global) {
		if a.Visible {
			hints = append(hints, Hint{Key: a.label(), Description: a.Description})
		}
	}
	return hints
}

// HandleEvent dispatches a key event to the matching action in the given
// view, falling back to global bindings. Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range sorted(r.Views[view]) {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range sorted(r.Global) {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}

func (a *Action) label() string {
	if a.Label != "" {
		return a.Label
	}
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	return tcell.KeyNames[a.Key]
}

func sorted(m map[string]*Action) []*Action {
	out := make([]*Action, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}
