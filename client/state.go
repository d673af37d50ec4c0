package client

// State represents the lifecycle state of a client session.
type State uint32

const (
	// UnopenedState indicates that no session handle is allocated.
	UnopenedState State = iota
	// ConnectedState indicates that a session handle is allocated and connected.
	ConnectedState
)

// IsUnopened returns if the state is unopened.
func (s State) IsUnopened() bool { return s == UnopenedState }

// IsConnected returns if the state is connected.
func (s State) IsConnected() bool { return s == ConnectedState }

// String returns string representation of the state.
func (s State) String() string {
	switch s {
	case UnopenedState:
		return "unopened"
	case ConnectedState:
		return "connected"
	default:
		return "unknown"
	}
}
