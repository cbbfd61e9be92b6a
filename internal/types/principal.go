// README: Authenticated caller carried through every core operation.
package types

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

func (r Role) Valid() bool {
	return r == RoleRider || r == RoleDriver
}

// Principal is the authenticated actor: exactly one role and the account id for that role.
type Principal struct {
	Role Role
	ID   ID
}

func RiderPrincipal(id ID) Principal {
	return Principal{Role: RoleRider, ID: id}
}

func DriverPrincipal(id ID) Principal {
	return Principal{Role: RoleDriver, ID: id}
}

func (p Principal) IsRider() bool {
	return p.Role == RoleRider && p.ID != ""
}

func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver && p.ID != ""
}
