package chat

import "testing"

func TestVisibilityTransitions(t *testing.T) {
	tests := []struct {
		from, to Visibility
		wantErr  bool
	}{
		{Collapsed, ContactsOpen, false},
		{Collapsed, ConversationOpen, false},
		{ContactsOpen, Collapsed, false},
		{ContactsOpen, ConversationOpen, false},
		{ConversationOpen, ContactsOpen, false},
		{ConversationOpen, Collapsed, false},
		{ConversationOpen, ConversationOpen, false},
		{Collapsed, Collapsed, false},
		{Collapsed, Visibility(7), true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			err := checkTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkTransition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestVisibilityString(t *testing.T) {
	if got := ConversationOpen.String(); got != "CONVERSATION_OPEN" {
		t.Errorf("String() = %q", got)
	}
	if got := Visibility(9).String(); got != "Visibility(9)" {
		t.Errorf("String() = %q", got)
	}
}
