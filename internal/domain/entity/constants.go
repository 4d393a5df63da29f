package entity

// Voucher statuses
const (
	VoucherStatusPending   VoucherStatus = "pending"
	VoucherStatusApproved  VoucherStatus = "approved"
	VoucherStatusRejected  VoucherStatus = "rejected"
	VoucherStatusDelivered VoucherStatus = "delivered"
)

// Roles supplied by the authentication layer
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Real-time room names
const (
	RoomAdmin      = "admin"
	UserRoomPrefix = "user:"
)

// UserRoom returns the per-user room name for userID
func UserRoom(userID string) string {
	return UserRoomPrefix + userID
}
