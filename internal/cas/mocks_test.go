// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// mockMechanism records calls and either accepts every token or returns err.
type mockMechanism struct {
	mu        sync.Mutex
	callCount int
	lastToken UnauthenticatedToken
	auth      *Authentication
	err       error
}

func (m *mockMechanism) Authenticate(_ context.Context, token UnauthenticatedToken) (*Authentication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastToken = token

	if m.err != nil {
		return nil, m.err
	}
	if m.auth != nil {
		return m.auth, nil
	}
	return &Authentication{
		Principal:     RealPrincipal("un", nil),
		Credentials:   token.Ticket,
		Service:       token.Service,
		Authorities:   []string{"ROLE_USER"},
		Authenticated: true,
	}, nil
}

func (m *mockMechanism) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// mockStorage is an in-memory ProxyGrantingTicketStorage.
type mockStorage struct {
	mu    sync.Mutex
	saved map[string]string
	err   error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[string]string)}
}

func (s *mockStorage) Save(_ context.Context, pgtIou, pgtID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved[pgtIou] = pgtID
	return nil
}

func (s *mockStorage) Retrieve(_ context.Context, pgtIou string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pgt, ok := s.saved[pgtIou]
	if !ok {
		return "", errors.New("not found")
	}
	delete(s.saved, pgtIou)
	return pgt, nil
}

// mockChain records downstream invocations.
type mockChain struct {
	callCount   int
	lastRequest *http.Request
}

func (c *mockChain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.callCount++
	c.lastRequest = r
	w.WriteHeader(http.StatusOK)
}

// mockSuccessHandler records success callbacks.
type mockSuccessHandler struct {
	callCount   int
	lastAuth    *Authentication
	lastRequest *http.Request
}

func (h *mockSuccessHandler) OnAuthenticationSuccess(w http.ResponseWriter, r *http.Request, auth *Authentication) {
	h.callCount++
	h.lastAuth = auth
	h.lastRequest = r
	w.WriteHeader(http.StatusNoContent)
}

// mockFailureHandler records failure callbacks.
type mockFailureHandler struct {
	callCount int
	lastErr   *AuthenticationError
}

func (h *mockFailureHandler) OnAuthenticationFailure(w http.ResponseWriter, _ *http.Request, err *AuthenticationError) {
	h.callCount++
	h.lastErr = err
	w.WriteHeader(http.StatusUnauthorized)
}
