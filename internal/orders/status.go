package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPacked     Status = "packed"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type Role string

const (
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Actor is whoever requests a transition. SellerID is only meaningful for RoleSeller.
type Actor struct {
	Role     Role
	SellerID int64
}

// fulfillment order of the seller-driven path
var rank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusPacked:     2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok || s == StatusCancelled
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (r Role) Valid() bool {
	return r == RoleSeller || r == RoleAdmin
}

// CanTransition reports whether role may move a seller order from one status to another.
// Both roles may move forward along the fulfillment path, skipping steps; only admin
// may cancel. Nothing leaves a terminal status.
func CanTransition(role Role, from, to Status) bool {
	if !role.Valid() || !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return role == RoleAdmin
	}
	return rank[to] > rank[from]
}
