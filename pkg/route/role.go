package route

import "strings"

// Role is the part a route module binding plays.
type Role string

const (
	RolePage    Role = "Page"
	RoleLoader  Role = "Loader"
	RoleAction  Role = "Action"
	RoleHeaders Role = "Headers"
	RoleMeta    Role = "Meta"
	RoleHandle  Role = "Handle"
)

// Roles lists every role in a stable order.
var Roles = []Role{RolePage, RoleLoader, RoleAction, RoleHeaders, RoleMeta, RoleHandle}

// ServerOnly reports whether bindings of this role are stripped from client
// builds.
func (r Role) ServerOnly() bool {
	switch r {
	case RoleLoader, RoleAction, RoleHeaders:
		return true
	}
	return false
}

// Exports maps each role to the exported identifier bound to it.
type Exports map[Role]string

// Has reports whether the role is bound.
func (e Exports) Has(r Role) bool {
	_, ok := e[r]
	return ok
}

// Roles returns the bound roles in stable order.
func (e Exports) Roles() []Role {
	var out []Role
	for _, r := range Roles {
		if e.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// RoleOf classifies an exported identifier. Both bare (Loader) and
// prefixed (UsersLoader) names are recognized.
func RoleOf(name string) (Role, bool) {
	if name == "" || !isUpper(name[0]) {
		return "", false
	}
	switch {
	case strings.HasSuffix(name, "Loader"):
		return RoleLoader, true
	case strings.HasSuffix(name, "Action"):
		return RoleAction, true
	case strings.HasSuffix(name, "Headers"):
		return RoleHeaders, true
	case strings.HasSuffix(name, "Meta"):
		return RoleMeta, true
	case strings.HasSuffix(name, "Handle"):
		return RoleHandle, true
	case strings.HasSuffix(name, "Page"), strings.HasSuffix(name, "Layout"), name == "Component":
		return RolePage, true
	}
	return "", false
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
