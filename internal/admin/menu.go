// Package admin provides the administrative menu, page routing and
// admin-post action dispatch that settings pages plug into.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// ErrDuplicate indicates a page slug or action name registered twice.
var ErrDuplicate = errors.New("admin: duplicate registration")

// PermissionChecker answers capability questions for role sets.
type PermissionChecker interface {
	AnyRoleHas(ctx context.Context, roles []string, capability string) bool
}

// Page is one submenu page.
type Page struct {
	Parent     string `json:"parent"`
	PageTitle  string `json:"page_title"`
	MenuTitle  string `json:"menu_title"`
	Capability string `json:"capability"`
	Slug       string `json:"slug"`

	Handler http.Handler `json:"-"`
}

// URL returns the address of the page.
func (p Page) URL() string {
	return "/admin?page=" + url.QueryEscape(p.Slug)
}

// Menu holds registered pages in registration order.
type Menu struct {
	mu     sync.RWMutex
	pages  []Page
	bySlug map[string]int
}

// NewMenu returns an empty Menu.
func NewMenu() *Menu {
	return &Menu{bySlug: make(map[string]int)}
}

// AddSubmenuPage registers p under its parent menu.
func (m *Menu) AddSubmenuPage(p Page) error {
	if p.Slug == "" || p.Handler == nil {
		return fmt.Errorf("admin: page %q needs a slug and a handler", p.PageTitle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySlug[p.Slug]; ok {
		return fmt.Errorf("%w: page %s", ErrDuplicate, p.Slug)
	}
	m.bySlug[p.Slug] = len(m.pages)
	m.pages = append(m.pages, p)
	return nil
}

// Page looks up a page by slug.
func (m *Menu) Page(slug string) (Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.bySlug[slug]
	if !ok {
		return Page{}, false
	}
	return m.pages[idx], true
}

// Visible lists the pages whose capability p holds.
func (m *Menu) Visible(ctx context.Context, checker PermissionChecker, p *principal.Principal) []Page {
	if p == nil {
		return nil
	}
	m.mu.RLock()
	pages := append([]Page(nil), m.pages...)
	m.mu.RUnlock()

	out := make([]Page, 0, len(pages))
	for _, page := range pages {
		if page.Capability == "" || checker.AnyRoleHas(ctx, p.Roles, page.Capability) {
			out = append(out, page)
		}
	}
	return out
}

// Actions maps admin-post action names to handlers.
type Actions struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

// NewActions returns an empty registry.
func NewActions() *Actions {
	return &Actions{handlers: make(map[string]http.Handler)}
}

// Register binds name to h.
func (a *Actions) Register(name string, h http.Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.handlers[name]; ok {
		return fmt.Errorf("%w: action %s", ErrDuplicate, name)
	}
	a.handlers[name] = h
	return nil
}

// Lookup returns the handler bound to name.
func (a *Actions) Lookup(name string) (http.Handler, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.handlers[name]
	return h, ok
}
