package workflow

// Trigger represents an admin action that moves a voucher between states
type Trigger string

const (
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerDeliver Trigger = "deliver"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Target returns the state a trigger moves to regardless of the source state
func (t Trigger) Target() (State, bool) {
	switch t {
	case TriggerApprove:
		return StateApproved, true
	case TriggerReject:
		return StateRejected, true
	case TriggerDeliver:
		return StateDelivered, true
	default:
		return "", false
	}
}
