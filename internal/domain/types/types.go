// Package types contains read shapes shared by the controller and the status API.
package types

// SessionStatus is the live view of the controller.
type SessionStatus struct {
	State            string  `json:"state"`
	SessionID        string  `json:"session_id,omitempty"`
	Score            int     `json:"score"`
	TotalHits        int     `json:"total_hits"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}
