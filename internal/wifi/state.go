package wifi

import "fmt"

// State is the access point lifecycle state. The supervisor never stores
// it as the source of truth; it is re-read from the controller on every
// iteration and only mirrored for observers.
type State int

const (
	StateNotStarted State = iota
	StateConfiguring
	StateAPStarted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateConfiguring:
		return "configuring"
	case StateAPStarted:
		return "ap_started"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// allowedTransition encodes NotStarted -> Configuring -> APStarted -> NotStarted.
// Configuring may fall back to NotStarted when a start attempt does not stick,
// and a state may always be re-observed.
func allowedTransition(cur, next State) bool {
	if cur == next {
		return true
	}
	switch cur {
	case StateNotStarted:
		return next == StateConfiguring || next == StateAPStarted
	case StateConfiguring:
		return next == StateAPStarted || next == StateNotStarted
	case StateAPStarted:
		return next == StateNotStarted || next == StateConfiguring
	default:
		return false
	}
}

// Event is a controller-reported occurrence the supervisor can wait for.
type Event int

const (
	EventAPStart Event = iota
	EventAPStop
	EventStaConnected
	EventStaDisconnected
)

func (e Event) String() string {
	switch e {
	case EventAPStart:
		return "ap_start"
	case EventAPStop:
		return "ap_stop"
	case EventStaConnected:
		return "sta_connected"
	case EventStaDisconnected:
		return "sta_disconnected"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}
