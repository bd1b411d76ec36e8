package types

// HTTP bodies. Identity travels in the X-User-ID header.

type CreateRoomRequest struct {
	Motion   string `json:"motion,omitempty"`
	Passcode string `json:"passcode,omitempty"`
}

type SetMotionRequest struct {
	Motion string `json:"motion"`
}

type TakeSeatRequest struct {
	Role     string `json:"role"`
	Passcode string `json:"passcode,omitempty"`
}

type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

type StartResponse struct {
	Success bool `json:"success"`
}

type AdvanceResponse struct {
	Completed     bool `json:"completed"`
	NextSlotIndex *int `json:"next_slot_index"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"` // not_found | forbidden | precondition_failed | invalid_state
}

// Websocket protocol
//
// Client -> Server
//   StartDebate: {}
//   AdvanceSpeaker: {}
//   SetReady:
//     ready: boolean
//
// Server -> Client
//   StateSnapshot:
//     version: number
//     state: RoomView
//
//   Error:
//     error: string
//     kind: string
