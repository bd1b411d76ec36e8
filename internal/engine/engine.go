package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Error kinds. Specific conditions below wrap one of these.
var ErrNotFound = errors.New("not found")
var ErrForbidden = errors.New("forbidden")
var ErrPreconditionFailed = errors.New("precondition failed")
var ErrInvalidState = errors.New("invalid state")

var ErrRoomNotFound = fmt.Errorf("%w: room does not exist", ErrNotFound)
var ErrParticipantNotFound = fmt.Errorf("%w: participant is not seated in this room", ErrNotFound)
var ErrNotCreator = fmt.Errorf("%w: only the room creator can do that", ErrForbidden)
var ErrBadPasscode = fmt.Errorf("%w: wrong room passcode", ErrForbidden)
var ErrNoMotion = fmt.Errorf("%w: no motion set for this room", ErrPreconditionFailed)
var ErrNoParticipants = fmt.Errorf("%w: no participants have joined", ErrPreconditionFailed)
var ErrNotAllReady = fmt.Errorf("%w: not all participants are ready", ErrPreconditionFailed)
var ErrRoleNotJoinable = fmt.Errorf("%w: role cannot be taken by a participant", ErrPreconditionFailed)
var ErrRoleTaken = fmt.Errorf("%w: role already taken", ErrPreconditionFailed)
var ErrAlreadySeated = fmt.Errorf("%w: user already holds a role in this room", ErrPreconditionFailed)
var ErrAlreadyStarted = fmt.Errorf("%w: debate already started", ErrInvalidState)
var ErrDebateNotInProgress = fmt.Errorf("%w: debate is not in progress", ErrInvalidState)
var ErrDebateCompleted = fmt.Errorf("%w: debate already completed", ErrInvalidState)
var ErrRoomClosed = fmt.Errorf("%w: room is completed or cancelled", ErrInvalidState)
var ErrRosterFrozen = fmt.Errorf("%w: roster is frozen once the debate starts", ErrInvalidState)
var ErrNotInFeedback = fmt.Errorf("%w: room is not in the feedback phase", ErrInvalidState)
var ErrUnsupportedCommand = errors.New("unsupported command")

type Team string

const (
	TeamGovernment Team = "government"
	TeamOpposition Team = "opposition"
)

type Role string

const (
	RolePrimeMinister            Role = "prime_minister"
	RoleLeaderOfOpposition       Role = "leader_of_opposition"
	RoleDeputyPrimeMinister      Role = "deputy_prime_minister"
	RoleDeputyLeaderOfOpposition Role = "deputy_leader_of_opposition"
	RoleGovernmentWhip           Role = "government_whip"
	RoleOppositionWhip           Role = "opposition_whip"
	RoleOppositionReply          Role = "opposition_reply"
	RoleGovernmentReply          Role = "government_reply"
)

var titleCaser = cases.Title(language.English)

// DisplayName turns "deputy_prime_minister" into "Deputy Prime Minister".
func (r Role) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(string(r), "_", " "))
}

// Joinable reports whether a participant can hold r. Reply roles can't be
// held directly.
func (r Role) Joinable() bool {
	idx := ToFullIndex(debateFormat, r)
	return idx >= 0 && debateFormat[idx].Anchor == ""
}

type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhaseDebate    Phase = "debate"
	PhaseFeedback  Phase = "feedback"
	PhaseCompleted Phase = "completed"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Slot struct {
	Role              Role
	Team              Team
	TimeBudgetSeconds int
	Anchor            Role // set on reply slots only
}

// Speaker is the role whose holder speaks this slot.
func (s Slot) Speaker() Role {
	if s.Anchor != "" {
		return s.Anchor
	}
	return s.Role
}

func (s Slot) TimeBudget() time.Duration {
	return time.Duration(s.TimeBudgetSeconds) * time.Second
}

type Participant struct {
	UserID  string
	Role    Role
	IsReady bool
}

// TurnState is the persisted part of a room the engine owns.
type TurnState struct {
	Phase            Phase
	Status           Status
	CurrentSlot      int // index into the full format
	StartedAt        *time.Time
	EndedAt          *time.Time
	SpeakerStartedAt *time.Time
}

// Closed reports whether the room can no longer change: cancelled, or
// completed with feedback closed.
func (s TurnState) Closed() bool {
	return s.Status == StatusCancelled || (s.Status == StatusCompleted && s.Phase == PhaseCompleted)
}

type Room struct {
	ID           string
	CreatorID    string
	Motion       string
	PasscodeHash string
	CreatedAt    time.Time
	TurnState
}

type CommandType string

const (
	CmdStartDebate    CommandType = "StartDebate"
	CmdAdvanceSpeaker CommandType = "AdvanceSpeaker"
	CmdCancelDebate   CommandType = "CancelDebate"
	CmdCloseFeedback  CommandType = "CloseFeedback"
)

/*
	CmdStartDebate    -> EvtDebateStarted -> EvtSpeakerChanged
	CmdAdvanceSpeaker -> EvtSpeakerChanged, or EvtDebateCompleted past the last active slot
	CmdCancelDebate   -> EvtDebateCancelled
	CmdCloseFeedback  -> EvtFeedbackClosed
*/

type Command struct {
	Type     CommandType
	CallerID string
	At       time.Time
}

type EventType string

const (
	EvtDebateStarted   EventType = "DebateStarted"
	EvtSpeakerChanged  EventType = "SpeakerChanged"
	EvtDebateCompleted EventType = "DebateCompleted"
	EvtDebateCancelled EventType = "DebateCancelled"
	EvtFeedbackClosed  EventType = "FeedbackClosed"
)

type Event struct {
	Type EventType
	Slot int
	Role Role
	At   time.Time
}

// Outcome is what an advance reports back to its caller.
type Outcome struct {
	Completed bool
	NextSlot  *int
}

// Apply validates cmd against the room and its roster snapshot and returns the
// resulting events together with the updated room. r is never mutated.
func Apply(format []Slot, r Room, roster []Participant, cmd Command) ([]Event, Room, error) {
	switch cmd.Type {
	case CmdStartDebate:
		if cmd.CallerID != r.CreatorID {
			return nil, r, ErrNotCreator
		}
		switch r.Status {
		case StatusWaiting:
		case StatusCompleted, StatusCancelled:
			return nil, r, ErrRoomClosed
		default:
			return nil, r, ErrAlreadyStarted
		}
		if strings.TrimSpace(r.Motion) == "" {
			return nil, r, ErrNoMotion
		}
		if len(roster) == 0 {
			return nil, r, ErrNoParticipants
		}
		for _, p := range roster {
			if !p.IsReady {
				return nil, r, ErrNotAllReady
			}
		}

		active := ActiveOrder(format, PresentRoles(roster))
		if len(active) == 0 {
			// every present role is unknown to the format
			return nil, r, ErrNoParticipants
		}
		first := ToFullIndex(format, active[0].Role)
		events := []Event{
			{Type: EvtDebateStarted, At: cmd.At},
			{Type: EvtSpeakerChanged, Slot: first, Role: active[0].Role, At: cmd.At},
		}
		return events, withEvents(r, events), nil

	case CmdAdvanceSpeaker:
		switch r.Status {
		case StatusInProgress:
		case StatusCompleted:
			return nil, r, ErrDebateCompleted
		default:
			return nil, r, ErrDebateNotInProgress
		}

		active := ActiveOrder(format, PresentRoles(roster))
		next := ToActivePosition(format, active, r.CurrentSlot) + 1
		if next >= len(active) {
			events := []Event{{Type: EvtDebateCompleted, At: cmd.At}}
			return events, withEvents(r, events), nil
		}

		slot := active[next]
		events := []Event{{Type: EvtSpeakerChanged, Slot: ToFullIndex(format, slot.Role), Role: slot.Role, At: cmd.At}}
		return events, withEvents(r, events), nil

	case CmdCancelDebate:
		if cmd.CallerID != r.CreatorID {
			return nil, r, ErrNotCreator
		}
		if r.Status != StatusWaiting && r.Status != StatusInProgress {
			return nil, r, ErrRoomClosed
		}
		events := []Event{{Type: EvtDebateCancelled, At: cmd.At}}
		return events, withEvents(r, events), nil

	case CmdCloseFeedback:
		if cmd.CallerID != r.CreatorID {
			return nil, r, ErrNotCreator
		}
		if r.Status != StatusCompleted || r.Phase != PhaseFeedback {
			return nil, r, ErrNotInFeedback
		}
		events := []Event{{Type: EvtFeedbackClosed, At: cmd.At}}
		return events, withEvents(r, events), nil

	default:
		return nil, r, ErrUnsupportedCommand
	}
}

// Reduce replays events from a fresh waiting room.
func Reduce(events []Event) TurnState {
	return fold(NewTurnState(), events)
}

func withEvents(r Room, events []Event) Room {
	r.TurnState = fold(r.TurnState, events)
	return r
}

func fold(s TurnState, events []Event) TurnState {
	for _, event := range events {
		at := event.At
		switch event.Type {
		case EvtDebateStarted:
			s.Status = StatusInProgress
			s.Phase = PhaseDebate
			s.StartedAt = &at
		case EvtSpeakerChanged:
			s.CurrentSlot = event.Slot
			s.SpeakerStartedAt = &at
		case EvtDebateCompleted:
			s.Status = StatusCompleted
			s.Phase = PhaseFeedback
			s.EndedAt = &at
			s.SpeakerStartedAt = nil
		case EvtDebateCancelled:
			s.Status = StatusCancelled
			s.EndedAt = &at
			s.SpeakerStartedAt = nil
		case EvtFeedbackClosed:
			s.Phase = PhaseCompleted
		}
	}
	return s
}
