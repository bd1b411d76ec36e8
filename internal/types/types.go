package types

import (
	"time"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	wire "github.com/DoyleJ11/debate-room-backend/pkg/types"
)

type ClientMessage struct {
	Type  string `json:"type"` // "StartDebate" | "AdvanceSpeaker" | "SetReady"
	Ready bool   `json:"ready,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "StateSnapshot" | "Error"
	Version int            `json:"version,omitempty"`
	State   *wire.RoomView `json:"state,omitempty"`
	Error   string         `json:"error,omitempty"`
	Kind    string         `json:"kind,omitempty"`
}

// NewRoomView renders a room, its roster and the derived speaking order.
func NewRoomView(format []engine.Slot, room engine.Room, roster []engine.Participant, now time.Time) wire.RoomView {
	holders := make(map[engine.Role]string, len(roster))
	v := wire.RoomView{
		ID:          room.ID,
		CreatorID:   room.CreatorID,
		Motion:      room.Motion,
		Private:     room.PasscodeHash != "",
		Phase:       string(room.Phase),
		Status:      string(room.Status),
		CurrentSlot: room.CurrentSlot,
		StartedAt:   room.StartedAt,
		EndedAt:     room.EndedAt,
		CreatedAt:   room.CreatedAt,
		Roster:      make([]wire.ParticipantView, 0, len(roster)),
	}
	for _, p := range roster {
		holders[p.Role] = p.UserID
		v.Roster = append(v.Roster, wire.ParticipantView{UserID: p.UserID, Role: string(p.Role), IsReady: p.IsReady})
	}

	active := engine.ActiveOrder(format, engine.PresentRoles(roster))
	v.ActiveOrder = make([]wire.SlotView, 0, len(active))
	for _, slot := range active {
		v.ActiveOrder = append(v.ActiveOrder, slotView(format, slot, holders))
	}

	if sp, ok := engine.CurrentSpeaker(format, room.TurnState, roster, now); ok {
		v.Speaker = &wire.SpeakerView{
			Slot:             slotView(format, sp.Slot, holders),
			ActivePosition:   sp.ActivePosition,
			ActiveCount:      sp.ActiveCount,
			StartedAt:        sp.StartedAt,
			RemainingSeconds: sp.Remaining.Seconds(),
			OvertimeSeconds:  sp.Overtime.Seconds(),
		}
	}
	return v
}

// FormatView lists the full format.
func FormatView(format []engine.Slot) []wire.SlotView {
	out := make([]wire.SlotView, 0, len(format))
	for _, slot := range format {
		out = append(out, slotView(format, slot, nil))
	}
	return out
}

func slotView(format []engine.Slot, slot engine.Slot, holders map[engine.Role]string) wire.SlotView {
	return wire.SlotView{
		Index:             engine.ToFullIndex(format, slot.Role),
		Role:              string(slot.Role),
		DisplayName:       slot.Role.DisplayName(),
		Team:              string(slot.Team),
		TimeBudgetSeconds: slot.TimeBudgetSeconds,
		AnchorRole:        string(slot.Anchor),
		SpeakerUserID:     holders[slot.Speaker()],
	}
}
