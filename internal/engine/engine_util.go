package engine

import (
	"errors"
	"time"
)

func NewTurnState() TurnState {
	return TurnState{
		Phase:       PhaseSetup,
		Status:      StatusWaiting,
		CurrentSlot: 0,
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Speaker describes who holds the floor right now.
type Speaker struct {
	Slot           Slot
	SlotIndex      int
	ActivePosition int
	ActiveCount    int
	StartedAt      *time.Time
	Remaining      time.Duration
	Overtime       time.Duration
}

// CurrentSpeaker resolves the live speaker for a room. ok is false unless the
// debate is in progress and the current slot is part of the active order.
func CurrentSpeaker(format []Slot, s TurnState, roster []Participant, now time.Time) (Speaker, bool) {
	if s.Status != StatusInProgress {
		return Speaker{}, false
	}
	active := ActiveOrder(format, PresentRoles(roster))
	pos := ToActivePosition(format, active, s.CurrentSlot)
	if pos < 0 {
		return Speaker{}, false
	}

	sp := Speaker{
		Slot:           format[s.CurrentSlot],
		SlotIndex:      s.CurrentSlot,
		ActivePosition: pos,
		ActiveCount:    len(active),
		StartedAt:      s.SpeakerStartedAt,
		Remaining:      format[s.CurrentSlot].TimeBudget(),
	}
	if s.SpeakerStartedAt != nil {
		left := sp.Slot.TimeBudget() - now.Sub(*s.SpeakerStartedAt)
		if left < 0 {
			sp.Overtime = -left
			left = 0
		}
		sp.Remaining = left
	}
	return sp, true
}

// KindOf names the kind err belongs to, or "" for errors outside the taxonomy.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	}
	return ""
}
