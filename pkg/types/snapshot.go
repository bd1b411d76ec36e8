package types

import "time"

// RoomView is the JSON shape of a room for HTTP responses and websocket
// snapshots.
type RoomView struct {
	ID          string            `json:"id"`
	Version     int               `json:"version,omitempty"`
	CreatorID   string            `json:"creator_id"`
	Motion      string            `json:"motion"`
	Private     bool              `json:"private"`
	Phase       string            `json:"phase"`
	Status      string            `json:"status"`
	CurrentSlot int               `json:"current_slot_index"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	EndedAt     *time.Time        `json:"ended_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Roster      []ParticipantView `json:"participants"`
	ActiveOrder []SlotView        `json:"active_order"`
	Speaker     *SpeakerView      `json:"current_speaker,omitempty"`
}

type SlotView struct {
	Index             int    `json:"index"`
	Role              string `json:"role"`
	DisplayName       string `json:"display_name"`
	Team              string `json:"team"`
	TimeBudgetSeconds int    `json:"time_budget_seconds"`
	AnchorRole        string `json:"anchor_role,omitempty"`
	SpeakerUserID     string `json:"speaker_user_id,omitempty"`
}

type ParticipantView struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	IsReady bool   `json:"is_ready"`
}

type SpeakerView struct {
	Slot             SlotView   `json:"slot"`
	ActivePosition   int        `json:"active_position"`
	ActiveCount      int        `json:"active_count"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	RemainingSeconds float64    `json:"remaining_seconds"`
	OvertimeSeconds  float64    `json:"overtime_seconds"`
}
