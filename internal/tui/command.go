package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/bookchat/internal/chat"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (with or without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// ChatController is the part of chat.Session that commands drive.
type ChatController interface {
	NotifyExternalContact(sellerUsername string, current chat.User)
	SelectContact(contact chat.Contact)
	ToggleVisibility()
	CloseConversation()
	CloseAll()
	RefreshContacts(ctx context.Context) ([]chat.Contact, error)
}

// Accounts signs marketplace users in and out.
type Accounts interface {
	CurrentUser() (chat.User, bool)
	SignIn(u chat.User) error
	SignOut()
}

// Execute runs cmd and returns a short confirmation for the flash bar.
func Execute(ctx context.Context, cmd Command, c ChatController, accounts Accounts) (string, error) {
	switch cmd.Name {
	case "contact", "seller":
		if cmd.Args == "" {
			return "", fmt.Errorf("usage: :%s <seller>", cmd.Name)
		}
		user, ok := accounts.CurrentUser()
		if !ok {
			return "", errors.New("sign in to contact a seller")
		}
		if cmd.Args == user.Username {
			return "that listing is yours", nil
		}
		c.NotifyExternalContact(cmd.Args, user)
		return "chatting with " + cmd.Args, nil

	case "open", "chat":
		if cmd.Args == "" {
			return "", fmt.Errorf("usage: :%s <user>", cmd.Name)
		}
		c.SelectContact(chat.Contact{Username: cmd.Args})
		return "", nil

	case "toggle":
		c.ToggleVisibility()
		return "", nil

	case "close":
		c.CloseConversation()
		return "", nil

	case "closeall", "collapse":
		c.CloseAll()
		return "", nil

	case "refresh", "r":
		contacts, err := c.RefreshContacts(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d contacts", len(contacts)), nil

	case "login":
		if cmd.Args == "" {
			return "", errors.New("usage: :login <username>")
		}
		if err := accounts.SignIn(chat.User{ID: cmd.Args, Username: cmd.Args}); err != nil {
			return "", err
		}
		return "signed in as " + cmd.Args, nil

	case "logout":
		accounts.SignOut()
		return "signed out", nil

	case "quit", "q", "q!":
		return "", ErrQuit

	case "":
		return "", nil

	default:
		return "", fmt.Errorf("unknown command %q", cmd.Name)
	}
}
