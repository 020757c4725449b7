package api

import (
	"context"
)

// Principal is the authenticated staff member behind a request.
type Principal struct {
	ID   string
	Name string
}

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) *Principal {
	v := ctx.Value(ctxKeyPrincipal)
	if v == nil {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

// Actor names the principal for audit rows; "system" outside a request.
func Actor(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.ID
	}
	return "system"
}
