// Package tui is the terminal host for the bookchat widget.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/bookchat/internal/bus"
	"github.com/matheus3301/bookchat/internal/chat"
	"github.com/matheus3301/bookchat/internal/session"
	"github.com/matheus3301/bookchat/internal/tui/keys"
	"github.com/matheus3301/bookchat/internal/tui/ui"
	"github.com/matheus3301/bookchat/internal/tui/views"
)

// Page names.
const (
	pageCollapsed    = "collapsed"
	pageContacts     = "contacts"
	pageConversation = "conversation"
	pageHelp         = "help"
)

// Options configures the TUI.
type Options struct {
	Profile        string
	Session        *chat.Session
	Accounts       *session.Provider
	Bus            *bus.Bus
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

// App is the main TUI application shell.
type App struct {
	app          *tview.Application
	root         *tview.Flex
	pages        *ui.Pages
	theme        *ui.Theme
	registry     *keys.Registry
	flash        *ui.FlashModel
	flashBar     *ui.FlashBar
	menu         *ui.Menu
	prompt       *ui.Prompt
	statusBar    *views.StatusBar
	launcher     *tview.TextView
	contacts     *views.ContactList
	conversation *views.Conversation
	help         *views.HelpView

	chat     *chat.Session
	accounts *session.Provider
	bus      *bus.Bus
	logger   *zap.Logger
	timeout  time.Duration

	returnTo string
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	a := &App{
		app:          tview.NewApplication(),
		pages:        ui.NewPages(),
		theme:        theme,
		registry:     keys.NewRegistry(),
		flash:        ui.NewFlashModel(),
		flashBar:     ui.NewFlashBar(theme),
		menu:         ui.NewMenu(theme),
		prompt:       ui.NewPrompt(theme),
		statusBar:    views.NewStatusBar(),
		launcher:     tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		contacts:     views.NewContactList(theme),
		conversation: views.NewConversation(theme),
		help:         views.NewHelpView(theme),
		chat:         opts.Session,
		accounts:     opts.Accounts,
		bus:          opts.Bus,
		logger:       logger,
		timeout:      timeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	a.statusBar.SetProfile(opts.Profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("chat", &keys.Action{
		Key: tcell.KeyRune, Rune: 'c',
		Description: "chat", Visible: true,
		Handler: a.chat.ToggleVisibility,
	})
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Description: "command", Visible: true,
		Handler: a.showPrompt,
	})
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Description: "help", Visible: true,
		Handler: a.showHelp,
	})
	a.registry.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "quit", Visible: true,
		Handler: a.Stop,
	})

	a.registry.AddView(pageContacts, "refresh", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Description: "refresh", Visible: true,
		Handler: func() { a.runCommand(Command{Name: "refresh"}) },
	})
	a.registry.AddView(pageContacts, "collapse", &keys.Action{
		Key: tcell.KeyEscape, Label: "Esc",
		Description: "collapse", Visible: true,
		Handler: a.chat.CloseAll,
	})

	a.registry.AddView(pageConversation, "compose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Description: "compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.conversation.Composer().InputField) },
	})
	a.registry.AddView(pageConversation, "back", &keys.Action{
		Key: tcell.KeyEscape, Label: "Esc",
		Description: "contacts", Visible: true,
		Handler: a.chat.CloseConversation,
	})

	a.registry.AddView(pageHelp, "back", &keys.Action{
		Key: tcell.KeyEscape, Label: "Esc",
		Description: "back", Visible: true,
		Handler: a.hideHelp,
	})
}

func (a *App) setupCallbacks() {
	a.contacts.SetOnSelect(a.chat.SelectContact)

	composer := a.conversation.Composer()
	composer.SetOnChange(a.chat.SetDraft)
	composer.SetOnSend(func(text string) {
		go a.send(text)
	})

	a.prompt.SetOnSubmit(func(text string) {
		a.hidePrompt()
		a.runCommand(ParseCommand(text))
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.pages.SetOnChange(func(name string) {
		a.menu.Update(a.hints(name))
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageCollapsed, a.launcher, true, false)
	a.pages.AddPage(pageContacts, a.contacts, true, false)
	a.pages.AddPage(pageConversation, a.conversation, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			// Esc leaves the composer instead of closing the conversation.
			if event.Key() == tcell.KeyEscape && focused == a.conversation.Composer().InputField {
				a.app.SetFocus(a.conversation.Messages())
				return nil
			}
			return event
		}
		if a.registry.HandleEvent(a.pages.Current(), event) {
			return nil
		}
		return event
	})
}

func (a *App) hints(page string) []ui.MenuHint {
	var out []ui.MenuHint
	for _, h := range a.registry.Hints(page) {
		out = append(out, ui.MenuHint{Key: h.Key, Description: h.Description})
	}
	return out
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("chat.", 128)
	defer unsub()

	a.render()
	go a.watch(events)
	go a.tick()

	err := a.app.Run()
	a.cancel()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// watch redraws on every chat event and turns failures into flash notices.
func (a *App) watch(events <-chan bus.Event) {
	for {
		select {
		case evt := <-events:
			a.notify(evt)
			a.app.QueueUpdateDraw(a.render)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) notify(evt bus.Event) {
	switch evt.Kind {
	case chat.EventContactsRefreshFailed:
		a.flash.Warn("could not refresh contacts; showing the last known list")
	case chat.EventHistoryLoaded:
		if res, ok := evt.Payload.(chat.HistoryResult); ok && res.Err != nil {
			a.flash.Warn("could not load history with " + res.Contact.Username)
		}
	case chat.EventMessageSendFailed:
		if res, ok := evt.Payload.(chat.MessageResult); ok {
			a.flash.Err(res.Err)
		}
	case chat.EventSessionReset:
		a.flash.Info("chat cleared")
	}
}

// render pulls a snapshot from the session and updates every view. It runs
// on the tview event goroutine.
func (a *App) render() {
	v := a.chat.State()
	user, _ := a.accounts.CurrentUser()

	a.statusBar.Update(v, user.Username)
	a.flashBar.Update(a.flash.Current())
	a.contacts.Update(v.Contacts, v.Window.Contact.Username)
	a.conversation.Update(v.Window, user.Username)
	a.launcher.SetText(launcherText(v, a.theme))

	if a.pages.Current() == pageHelp {
		a.returnTo = pageFor(v)
		return
	}
	if a.pages.Show(pageFor(v)) {
		a.focusPage()
	}
}

func (a *App) focusPage() {
	switch a.pages.Current() {
	case pageContacts:
		a.app.SetFocus(a.contacts)
	case pageConversation:
		a.app.SetFocus(a.conversation.Composer().InputField)
	default:
		a.app.SetFocus(a.pages)
	}
}

func pageFor(v chat.SessionView) string {
	if !v.Available {
		return pageCollapsed
	}
	switch v.Visibility {
	case chat.ContactsOpen:
		return pageContacts
	case chat.ConversationOpen:
		return pageConversation
	default:
		return pageCollapsed
	}
}

func launcherText(v chat.SessionView, theme *ui.Theme) string {
	key := ui.ColorTag(theme.MenuKeyColor)
	if !v.Available {
		return "\n\n[::b]bookchat[-:-:-]\n\nSign in to chat with sellers: [" + key + "]:login <username>[-]"
	}
	return "\n\n[::b]bookchat[-:-:-]\n\nPress [" + key + "]c[-] to open your conversations,\nor [" +
		key + "]:contact <seller>[-] to ask about a book."
}

func (a *App) send(text string) {
	ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
	defer cancel()

	_, err := a.chat.Send(ctx, text)
	a.app.QueueUpdateDraw(func() {
		if err != nil {
			a.logger.Warn("send from composer failed", zap.Error(err))
			if errors.Is(err, chat.ErrNoActiveConversation) {
				a.flash.Warn("open a conversation first")
			}
			a.flashBar.Update(a.flash.Current())
			return
		}
		a.conversation.ClearComposer(text)
	})
}

func (a *App) runCommand(cmd Command) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
		defer cancel()

		msg, err := Execute(ctx, cmd, a.chat, a.accounts)
		if errors.Is(err, ErrQuit) {
			a.Stop()
			return
		}
		a.app.QueueUpdateDraw(func() {
			switch {
			case err != nil:
				a.flash.Err(err)
			case msg != "":
				a.flash.Info(msg)
			}
			a.render()
		})
	}()
}

func (a *App) showPrompt() {
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt.InputField)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage()
}

func (a *App) showHelp() {
	if a.pages.Current() == pageHelp {
		return
	}
	a.returnTo = a.pages.Current()
	a.pages.Show(pageHelp)
	a.app.SetFocus(a.help)
}

func (a *App) hideHelp() {
	a.pages.Show(a.returnTo)
	a.focusPage()
}
