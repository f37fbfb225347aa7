package flow

import "errors"

// ErrNoStart is returned when a definition names no start state.
var ErrNoStart = errors.New("flow definition has no start state")

// ErrUnknownChoice is returned by Choose when the current state offers no
// such input.
var ErrUnknownChoice = errors.New("unknown choice")

// ErrSnapshotNotFound is returned by snapshot stores when a session ID has
// no saved position.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrFlowMismatch is returned when a snapshot is restored into a flow other
// than the one that produced it.
var ErrFlowMismatch = errors.New("snapshot belongs to a different flow")
