package workflow

import "fmt"

// Policy decides whether a trigger may fire from the current state
type Policy string

const (
	// PolicyStrict enforces VoucherLifecycle
	PolicyStrict Policy = "strict"

	// PolicyLenient accepts every trigger from every state, last write wins
	PolicyLenient Policy = "lenient"
)

// ParsePolicy converts a configuration value into a Policy.
// The empty string selects PolicyStrict.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Bypasses reports whether the policy lets trigger fire from a state where
// VoucherLifecycle forbids it
func (p Policy) Bypasses(current State, trigger Trigger) bool {
	return p == PolicyLenient && !VoucherLifecycle.CanFire(current, trigger)
}

// Resolve returns the state reached by firing trigger from current
func (p Policy) Resolve(current State, trigger Trigger) (State, error) {
	if p == PolicyLenient {
		to, ok := trigger.Target()
		if !ok {
			return "", fmt.Errorf("%w: unknown trigger %s", ErrInvalidTransition, trigger)
		}
		return to, nil
	}
	return VoucherLifecycle.Next(current, trigger)
}
