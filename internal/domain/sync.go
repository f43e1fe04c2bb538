package domain

import "time"

type SyncPhase string

const (
	SyncPhaseIdle    SyncPhase = "idle"
	SyncPhaseSyncing SyncPhase = "syncing"
	SyncPhaseSuccess SyncPhase = "success"
	SyncPhaseError   SyncPhase = "error"
)

// SyncState is the observable outcome of the most recent push to the
// remote service. Message is only set for SyncPhaseError.
type SyncState struct {
	Phase         SyncPhase `json:"phase"`
	Message       string    `json:"message,omitempty"`
	AppointmentID int64     `json:"appointment_id,omitempty"`
	At            time.Time `json:"at"`
}
