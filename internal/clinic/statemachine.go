package clinic

import "fmt"

// Event is a requested appointment transition.
type Event string

const (
	EventCheckIn  Event = "check-in"
	EventCallNext Event = "call-next"
	EventFinalize Event = "finalize"
	EventCancel   Event = "cancel"
	EventNoShow   Event = "no-show"
)

// transitions is the complete legal transition table. Anything not
// listed here is rejected; terminal states have no outgoing edges.
var transitions = map[AppointmentStatus]map[Event]AppointmentStatus{
	StatusScheduled: {
		EventCheckIn: StatusWaiting,
		EventCancel:  StatusCancelled,
	},
	StatusWaiting: {
		EventCallNext: StatusInProgress,
		EventCancel:   StatusCancelled,
		EventNoShow:   StatusNoShow,
	},
	StatusInProgress: {
		EventFinalize: StatusCompleted,
		EventNoShow:   StatusNoShow,
	},
}

// InvalidTransitionError reports a rejected event together with the
// state the appointment was in when it was attempted.
type InvalidTransitionError struct {
	From  AppointmentStatus
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s an appointment in status %s", e.Event, e.From)
}

// NextStatus resolves the target status for an event, or returns an
// InvalidTransitionError. It never mutates anything.
func NextStatus(from AppointmentStatus, ev Event) (AppointmentStatus, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return "", &InvalidTransitionError{From: from, Event: ev}
}

// IsTerminal reports whether no event can leave the given status.
func IsTerminal(s AppointmentStatus) bool {
	return len(transitions[s]) == 0
}
