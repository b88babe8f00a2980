package app

import "errors"

var (
	// ErrUnknownTeam is returned for a team that is not configured.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrForbidden is returned when the actor may not write back.
	ErrForbidden = errors.New("forbidden")
	// ErrKRNotFound is returned when a team tab has no KR with the given id.
	ErrKRNotFound = errors.New("key result not found")
)
