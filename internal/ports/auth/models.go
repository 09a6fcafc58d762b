package auth

// Role define el nivel de acceso de un usuario.
// @Enum veterinary, viewer, admin
type Role string

const (
	RoleVeterinary Role = "veterinary"
	RoleViewer     Role = "viewer"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleVeterinary, RoleViewer, RoleAdmin:
		return true
	default:
		return false
	}
}

// SelfRegistrable: admin solo se crea por CLI.
func (r Role) SelfRegistrable() bool {
	return r == RoleVeterinary || r == RoleViewer
}

// Principal es la identidad autenticada que viaja en la sesión.
// Se construye una vez en el login y no se modifica después.
type Principal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// CanWrite indica acceso de escritura clínica.
func (p Principal) CanWrite() bool {
	return p.HasRole(RoleVeterinary, RoleAdmin)
}
