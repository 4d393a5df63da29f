package workflow

import "fmt"

// Definition is an immutable transition table
type Definition struct {
	transitions map[State]map[Trigger]State
}

// Builder collects transitions for a Definition
type Builder struct {
	transitions map[State]map[Trigger]State
}

// NewBuilder creates an empty transition table builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger]State)}
}

// Permit allows trigger to move a voucher from one state to another.
// It panics on unknown states, like a malformed table would at startup.
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}

	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger]State)
	}
	b.transitions[from][trigger] = to
	return b
}

// Build returns a Definition holding a copy of the configured transitions
func (b *Builder) Build() *Definition {
	copied := make(map[State]map[Trigger]State, len(b.transitions))
	for from, byTrigger := range b.transitions {
		inner := make(map[Trigger]State, len(byTrigger))
		for trigger, to := range byTrigger {
			inner[trigger] = to
		}
		copied[from] = inner
	}
	return &Definition{transitions: copied}
}

// Next returns the state reached by firing trigger from current
func (d *Definition) Next(current State, trigger Trigger) (State, error) {
	if !current.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidState, current)
	}

	to, ok := d.transitions[current][trigger]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a voucher in state %s", ErrInvalidTransition, trigger, current)
	}
	return to, nil
}

// CanFire returns true if trigger is permitted from current
func (d *Definition) CanFire(current State, trigger Trigger) bool {
	_, ok := d.transitions[current][trigger]
	return ok
}

// VoucherLifecycle is the forward-only voucher state machine:
// pending -> approved | rejected, approved -> delivered.
var VoucherLifecycle = NewBuilder().
	Permit(StatePending, TriggerApprove, StateApproved).
	Permit(StatePending, TriggerReject, StateRejected).
	Permit(StateApproved, TriggerDeliver, StateDelivered).
	Build()
