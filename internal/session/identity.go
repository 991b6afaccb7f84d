package session

import (
	"errors"
	"sync"

	"github.com/matheus3301/bookchat/internal/chat"
	"github.com/matheus3301/bookchat/internal/config"
)

// ErrNoUsername is returned when signing in without a username.
var ErrNoUsername = errors.New("sign in: username required")

// Provider holds the signed-in marketplace user. It implements
// chat.Identity. The zero value is signed out.
type Provider struct {
	mu       sync.RWMutex
	user     chat.User
	signedIn bool
	hooks    []func()
}

var _ chat.Identity = (*Provider)(nil)

// NewProvider returns a provider signed in as the given profile, or signed
// out when the profile has no username.
func NewProvider(p config.Profile) *Provider {
	prov := &Provider{}
	if p.Username != "" {
		_ = prov.SignIn(chat.User{ID: p.UserID, Username: p.Username})
	}
	return prov
}

// CurrentUser implements chat.Identity.
func (p *Provider) CurrentUser() (chat.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user, p.signedIn
}

// SignIn replaces the current user. Signing in as a different user while
// signed in runs the sign-out hooks first.
func (p *Provider) SignIn(u chat.User) error {
	if u.Username == "" {
		return ErrNoUsername
	}
	p.mu.Lock()
	switching := p.signedIn && p.user.Username != u.Username
	p.mu.Unlock()
	if switching {
		p.SignOut()
	}

	p.mu.Lock()
	p.user, p.signedIn = u, true
	p.mu.Unlock()
	return nil
}

// SignOut clears the current user and runs the registered hooks. It is a
// no-op when already signed out.
func (p *Provider) SignOut() {
	p.mu.Lock()
	if !p.signedIn {
		p.mu.Unlock()
		return
	}
	p.user, p.signedIn = chat.User{}, false
	hooks := append([]func(){}, p.hooks...)
	p.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// OnSignOut registers fn to run after every sign-out.
func (p *Provider) OnSignOut(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, fn)
}
