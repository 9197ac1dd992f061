package oidc_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

type memCodes struct {
	mu    sync.Mutex
	codes map[string]oidc.AuthorizationCode
}

func newMemCodes() *memCodes {
	return &memCodes{codes: make(map[string]oidc.AuthorizationCode)}
}

func (m *memCodes) StoreCode(_ context.Context, c oidc.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[c.Code]; ok {
		return oidc.ErrCodeExists
	}
	m.codes[c.Code] = c
	return nil
}

func (m *memCodes) ConsumeCode(_ context.Context, code string, notBefore time.Time) (auth.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok || !c.CreatedAt.After(notBefore) {
		return auth.Claim{}, oidc.ErrCodeNotFound
	}
	delete(m.codes, code)
	return c.Claim, nil
}

func (m *memCodes) DeleteCodesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, c := range m.codes {
		if !c.CreatedAt.After(cutoff) {
			delete(m.codes, k)
			n++
		}
	}
	return n, nil
}

func (m *memCodes) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

type memApps struct {
	mu   sync.Mutex
	apps []*oidc.App
}

func (m *memApps) CreateApp(_ context.Context, app *oidc.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ClientID == app.ClientID {
			return oidc.ErrAppExists
		}
	}
	m.apps = append(m.apps, app)
	return nil
}

func (m *memApps) GetApp(_ context.Context, clientID string) (*oidc.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ClientID == clientID {
			return a, nil
		}
	}
	return nil, oidc.ErrAppNotFound
}

func (m *memApps) ListApps(_ context.Context, limit, offset int) ([]*oidc.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.apps) {
		return nil, nil
	}
	end := min(offset+limit, len(m.apps))
	return slices.Clone(m.apps[offset:end]), nil
}

func (m *memApps) DeleteApp(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.apps {
		if a.ClientID == clientID {
			m.apps = slices.Delete(m.apps, i, i+1)
			return nil
		}
	}
	return oidc.ErrAppNotFound
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
