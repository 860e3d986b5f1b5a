package models

import "errors"

// Sentinel errors for the dispatch and ride lifecycle domain. Repositories
// and services return these directly (or wrapped with %w) so handlers can
// map them to HTTP statuses with errors.Is.
var (
	// ErrRequestUnavailable means the ride request left Pending before the
	// caller's conditional update landed - the acceptance race was lost or
	// the request was already resolved.
	ErrRequestUnavailable = errors.New("ride request is no longer available")

	// ErrInvalidTransition means a ride state change was attempted from a
	// state that is not the expected predecessor. The stored state is left
	// untouched.
	ErrInvalidTransition = errors.New("invalid ride state transition")

	// ErrPartialCommit means the acceptance CAS succeeded but creating the
	// chat room or ride record failed. The Accepted request is left behind
	// for the reconciliation job to repair.
	ErrPartialCommit = errors.New("acceptance committed but ride creation failed")

	// ErrNotFound is the generic row-absent error for single-row lookups.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRequest means the rider already has a Pending request for
	// the same driver.
	ErrDuplicateRequest = errors.New("a pending request for this driver already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// signin failures are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken means signup hit an existing profile with that email.
	ErrEmailTaken = errors.New("email is already registered")
)
