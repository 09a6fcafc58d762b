package auth

import "context"

// Verifier revalida un principal contra el store (usuario activo, rol vigente).
// Se usa en operaciones sensibles; el resto confía en el principal de la sesión.
type Verifier interface {
	Verify(ctx context.Context, p Principal) (Principal, error)
}
