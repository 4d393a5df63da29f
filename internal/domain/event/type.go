package event

// Type identifies the type of domain event. Values double as the event names
// pushed to real-time clients.
type Type string

const (
	TypeVoucherCreated   Type = "voucher:created"
	TypeVoucherApproved  Type = "voucher:approved"
	TypeVoucherRejected  Type = "voucher:rejected"
	TypeVoucherDelivered Type = "voucher:delivered"
	TypeVoucherUpdated   Type = "voucher:updated"
)

// AllTypes lists every voucher event type
var AllTypes = []Type{
	TypeVoucherCreated,
	TypeVoucherApproved,
	TypeVoucherRejected,
	TypeVoucherDelivered,
	TypeVoucherUpdated,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeVoucherCreated,
		TypeVoucherApproved,
		TypeVoucherRejected,
		TypeVoucherDelivered,
		TypeVoucherUpdated:
		return true
	default:
		return false
	}
}

// NotifiesOwner reports whether the owning user's room receives this event
func (t Type) NotifiesOwner() bool {
	switch t {
	case TypeVoucherApproved, TypeVoucherRejected, TypeVoucherDelivered:
		return true
	default:
		return false
	}
}
