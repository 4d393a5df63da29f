package workflow

// State represents a voucher lifecycle state
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateDelivered State = "delivered"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateApproved:  true,
	StateRejected:  true,
	StateDelivered: true,
}

var terminalStates = map[State]bool{
	StateRejected:  true,
	StateDelivered: true,
}

// IsTerminal returns true if the state accepts no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
