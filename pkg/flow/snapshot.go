package flow

import "time"

// Snapshot is the restorable position of a machine run: which flow, which
// state, and which context flags were raised. Transition history is
// deliberately not recorded.
type Snapshot struct {
	Flow      string          `json:"flow"`
	Current   string          `json:"current"`
	Flags     map[string]bool `json:"flags,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}
