package action

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// fakeClient simula el proveedor con tokens de un solo uso y cuenta llamadas.
type fakeClient struct {
	mu sync.Mutex

	tokens map[string]*fakeToken
	issued []string

	inspectCalls int
	verifyCalls  int
	resolveCalls int
	resetCalls   int
	signInCalls  int
	issueErr     error
	inspectErr   error // si no es nil, Inspect falla con este error
	block        chan struct{} // si no es nil, los consume* esperan a que se cierre
}

type fakeToken struct {
	op       Mode
	email    string
	expired  bool
	consumed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{tokens: map[string]*fakeToken{}}
}

func (c *fakeClient) add(token string, op Mode, email string) *fakeToken {
	t := &fakeToken{op: op, email: email}
	c.tokens[token] = t
	return t
}

func (c *fakeClient) lookup(token string) (*fakeToken, error) {
	t, ok := c.tokens[token]
	switch {
	case !ok:
		return nil, fmt.Errorf("fake: %w", ErrInvalidToken)
	case t.expired:
		return nil, fmt.Errorf("fake: %w", ErrExpiredToken)
	case t.consumed:
		return nil, fmt.Errorf("fake: %w", ErrTokenConsumed)
	}
	return t, nil
}

func (c *fakeClient) wait() {
	c.mu.Lock()
	b := c.block
	c.mu.Unlock()
	if b != nil {
		<-b
	}
}

func (c *fakeClient) Inspect(_ context.Context, token string) (TokenInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inspectCalls++
	if c.inspectErr != nil {
		return TokenInfo{}, c.inspectErr
	}
	t, ok := c.tokens[token]
	if !ok {
		return TokenInfo{}, fmt.Errorf("fake: %w", ErrInvalidToken)
	}
	if t.expired {
		return TokenInfo{}, fmt.Errorf("fake: %w", ErrExpiredToken)
	}
	return TokenInfo{Operation: t.op, Email: t.email}, nil
}

func (c *fakeClient) ConsumeForVerification(_ context.Context, token string) error {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyCalls++
	t, err := c.lookup(token)
	if err != nil {
		return err
	}
	t.consumed = true
	return nil
}

func (c *fakeClient) ResolveAccountEmail(_ context.Context, token string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveCalls++
	t, err := c.lookup(token)
	if err != nil {
		return "", err
	}
	return t.email, nil
}

func (c *fakeClient) ConsumeForPasswordReset(_ context.Context, token, newCredential string) error {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetCalls++
	t, err := c.lookup(token)
	if err != nil {
		return err
	}
	if newCredential == "password123" {
		return fmt.Errorf("fake: %w", ErrWeakCredential)
	}
	t.consumed = true
	return nil
}

func (c *fakeClient) IssueSignInLink(_ context.Context, email, continueTarget string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.issueErr != nil {
		return c.issueErr
	}
	c.issued = append(c.issued, email)
	return nil
}

func (c *fakeClient) IsSignInLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	q := u.Query()
	if inner := q.Get("link"); inner != "" && q.Get("oobCode") == "" {
		return c.IsSignInLink(inner)
	}
	return q.Get("mode") == string(ModeSignIn) && q.Get("oobCode") != ""
}

func (c *fakeClient) ConsumeForSignIn(_ context.Context, token, email string) (Session, error) {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signInCalls++
	t, err := c.lookup(token)
	if err != nil {
		return Session{}, err
	}
	if t.email != email {
		return Session{}, fmt.Errorf("fake: %w", ErrEmailMismatch)
	}
	t.consumed = true
	return Session{Token: "session-" + token, Email: email}, nil
}

// memStore es un PendingEmailStore de un solo browsing context.
type memStore struct {
	mu     sync.Mutex
	email  string
	ok     bool
	getErr error
	setErr error
}

func (s *memStore) Get(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.email, s.ok, nil
}

func (s *memStore) Set(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.email, s.ok = email, true
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email, s.ok = "", false
	return nil
}

func signInLink(token string) string {
	return "https://app.example.com/auth/action?mode=signIn&oobCode=" + token + "&continueUrl=%2Fdashboard"
}
