package chat

import (
	"fmt"
	"slices"
)

// Visibility is what the chat widget currently renders.
type Visibility int

const (
	// Collapsed shows only the toggle affordance.
	Collapsed Visibility = iota
	// ContactsOpen shows the contact list without a conversation.
	ContactsOpen
	// ConversationOpen shows the active conversation next to the contact list.
	ConversationOpen
)

func (v Visibility) String() string {
	switch v {
	case Collapsed:
		return "COLLAPSED"
	case ContactsOpen:
		return "CONTACTS_OPEN"
	case ConversationOpen:
		return "CONVERSATION_OPEN"
	default:
		return fmt.Sprintf("Visibility(%d)", int(v))
	}
}

// validTransitions defines allowed visibility changes. Staying in the same
// state is always allowed and is not a transition.
var validTransitions = map[Visibility][]Visibility{
	Collapsed:        {ContactsOpen, ConversationOpen},
	ContactsOpen:     {Collapsed, ConversationOpen},
	ConversationOpen: {Collapsed, ContactsOpen},
}

func checkTransition(from, to Visibility) error {
	if from == to {
		return nil
	}
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("invalid visibility transition from %s to %s", from, to)
	}
	return nil
}
