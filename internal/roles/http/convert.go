package http

import (
	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/pkg/authsdk"
)

func toRole(r domain.Role) authsdk.Role {
	return authsdk.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		GrantsAll:   r.GrantsAll,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}

func toPermission(p domain.Permission) authsdk.Permission {
	return authsdk.Permission{
		ID:          p.ID,
		Name:        p.Name,
		Resource:    p.Resource,
		Action:      p.Action,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

func toPermissions(ps []domain.Permission) []authsdk.Permission {
	out := make([]authsdk.Permission, len(ps))
	for i, p := range ps {
		out[i] = toPermission(p)
	}
	return out
}
