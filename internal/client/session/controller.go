// Copyright (c) 2026 Voxdesk. All rights reserved.

/*
Package session implements the client-side session state machine.

A freshly loaded app does not know whether the user is signed in: the refresh
cookie is HttpOnly and invisible to it. The controller resolves that by
probing the API, and settles into exactly one of two terminal phases:

	unknown ──[profile fetch ok]──────────────► authenticated
	    │
	    ├──[401]──► refresh ──[ok]──► retry ──► authenticated
	    │               │
	    │               └──[fail]─────────────► unauthenticated
	    │
	    └──[other failure]────────────────────► unauthenticated

Consumers subscribe to phase changes instead of polling; the redirect to the
login page fires at most once per resolution.
*/
package session

import (
	"context"
	"sync"
)

// Phase is the controller's view of the session.
type Phase string

const (
	// PhaseUnknown is the initial state before the first probe completes.
	PhaseUnknown Phase = "unknown"

	// PhaseAuthenticated means a valid session is established.
	PhaseAuthenticated Phase = "authenticated"

	// PhaseUnauthenticated means no session could be established.
	PhaseUnauthenticated Phase = "unauthenticated"
)

// Fetcher is the API surface the controller probes. *client.Client satisfies it.
type Fetcher interface {
	// CurrentUser returns the authenticated profile or an error.
	CurrentUser(ctx context.Context) (*User, error)

	// Refresh rotates the session using the ambient refresh credential.
	Refresh(ctx context.Context) error

	// Logout revokes the session server-side.
	Logout(ctx context.Context) error

	// Unauthorized reports whether err means the credential was rejected,
	// as opposed to a transport failure.
	Unauthorized(err error) bool
}

// User is the resolved identity, opaque to the controller.
type User struct {
	ID          string
	Username    string
	DisplayName string
	Role        string
}

// Navigator performs page-level navigation. In the browser app this is a
// router push; in tests it is a recorder.
type Navigator interface {
	RedirectToLogin()
}

// Listener receives phase transitions.
type Listener func(Phase, *User)

// Controller resolves and tracks the session phase.
//
// # Concurrency
//
// All state transitions happen under a single mutex. Start may be called
// once; Logout and subscriptions are safe from any goroutine.
type Controller struct {
	fetcher   Fetcher
	navigator Navigator

	mu         sync.Mutex
	phase      Phase
	user       *User
	redirected bool
	listeners  []Listener
}

// NewController constructs a [Controller] in [PhaseUnknown].
func NewController(fetcher Fetcher, navigator Navigator) *Controller {
	return &Controller{
		fetcher:   fetcher,
		navigator: navigator,
		phase:     PhaseUnknown,
	}
}

// Phase returns the current phase.
func (controller *Controller) Phase() Phase {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.phase
}

// User returns the resolved user, nil unless authenticated.
func (controller *Controller) User() *User {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.user
}

// Subscribe registers a listener for phase transitions. The listener is
// invoked immediately with the current state so late subscribers never miss
// the resolution.
func (controller *Controller) Subscribe(listener Listener) {
	controller.mu.Lock()
	controller.listeners = append(controller.listeners, listener)
	phase, user := controller.phase, controller.user
	controller.mu.Unlock()

	listener(phase, user)
}

/*
Start resolves the session phase.

Description: Probes the profile endpoint. On a 401 it attempts exactly one
refresh and retries the probe once. Every failure, credential or transport,
settles at [PhaseUnauthenticated] and triggers the login redirect; the one
exception is cancellation, which leaves the phase at [PhaseUnknown] so an
unmounted consumer never observes a transition.

Parameters:
  - ctx: context.Context (cancels the resolution)

Returns:
  - Phase: The settled phase, or [PhaseUnknown] when ctx was cancelled
*/
func (controller *Controller) Start(ctx context.Context) Phase {
	user, err := controller.fetcher.CurrentUser(ctx)
	if err == nil {
		return controller.settleAuthenticated(user)
	}

	if ctx.Err() != nil {
		return controller.Phase()
	}

	// A transport failure cannot be repaired by a refresh.
	if !controller.fetcher.Unauthorized(err) {
		return controller.settleUnauthenticated()
	}

	// Access token missing or stale. One refresh, one retry.
	if err := controller.fetcher.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return controller.Phase()
		}
		return controller.settleUnauthenticated()
	}

	user, err = controller.fetcher.CurrentUser(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return controller.Phase()
		}
		return controller.settleUnauthenticated()
	}

	return controller.settleAuthenticated(user)
}

/*
Logout ends the session and forces [PhaseUnauthenticated].

Description: The server-side revocation is best effort; the local state
transitions regardless so the UI never shows a signed-in shell after the
user asked to leave.

Parameters:
  - ctx: context.Context
*/
func (controller *Controller) Logout(ctx context.Context) {
	_ = controller.fetcher.Logout(ctx)
	controller.settleUnauthenticated()
}

// # State Transitions

func (controller *Controller) settleAuthenticated(user *User) Phase {
	controller.mu.Lock()
	controller.phase = PhaseAuthenticated
	controller.user = user
	listeners := append([]Listener(nil), controller.listeners...)
	controller.mu.Unlock()

	for _, listener := range listeners {
		listener(PhaseAuthenticated, user)
	}
	return PhaseAuthenticated
}

func (controller *Controller) settleUnauthenticated() Phase {
	controller.mu.Lock()
	controller.phase = PhaseUnauthenticated
	controller.user = nil
	redirect := !controller.redirected
	controller.redirected = true
	listeners := append([]Listener(nil), controller.listeners...)
	controller.mu.Unlock()

	for _, listener := range listeners {
		listener(PhaseUnauthenticated, nil)
	}

	// The redirect fires at most once, no matter how many probes or logouts
	// settle here.
	if redirect && controller.navigator != nil {
		controller.navigator.RedirectToLogin()
	}
	return PhaseUnauthenticated
}
