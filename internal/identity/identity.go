// Package identity models the caller of an engine operation: who they are and
// which organizational role they hold. Engines receive a Caller explicitly as
// an argument rather than resolving it from ambient state, so tests can pass
// synthetic identities without any middleware in the loop.
package identity

// Role is the organizational role label attached to a caller's credentials.
type Role string

const (
	RoleSupplier     Role = "supplier"
	RoleManufacturer Role = "manufacturer"
	RoleRetailer     Role = "retailer"
)

// Valid reports whether r is one of the known supply-chain roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSupplier, RoleManufacturer, RoleRetailer:
		return true
	}
	return false
}

// Caller is the resolved identity for one inbound call.
type Caller struct {
	// ID is the stable identity label (token subject).
	ID string
	// Role gates which lifecycle operations the caller may perform.
	Role Role
}
