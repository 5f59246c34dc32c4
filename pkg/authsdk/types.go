package authsdk

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/aussiebroadwan/courtside/pkg/jwtx"
)

// SubjectID accepts both string and numeric ids on the wire.
type SubjectID string

func (s *SubjectID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = SubjectID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return err
	}
	*s = SubjectID(n.String())
	return nil
}

// UserInfo is the identity service's view of the token holder (GET /auth/me).
type UserInfo struct {
	ID       SubjectID `json:"id"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	IsActive bool      `json:"is_active"`
	IsAdmin  bool      `json:"is_admin"`
}

// JWKSResponse is the identity service's published key set.
type JWKSResponse = jwtx.JWKS

// HealthResponse is returned by /health, /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service,omitempty"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ============================================================================
// Roles service
// ============================================================================

type PermissionCheckRequest struct {
	// UserID is optional; only administrators may check someone else.
	UserID   string   `json:"user_id,omitempty"`
	Resource string   `json:"resource"`
	Action   string   `json:"action"`
	Accept   []string `json:"accept,omitempty"`
}

type PermissionCheckResponse struct {
	HasPermission bool   `json:"has_permission"`
	UserID        string `json:"user_id"`
	Resource      string `json:"resource"`
	Action        string `json:"action"`
	RoleName      string `json:"role_name,omitempty"`
	Reason        string `json:"reason"`
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	GrantsAll   bool      `json:"grants_all"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	GrantsAll   bool   `json:"grants_all,omitempty"`
}

type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreatePermissionRequest struct {
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

type AssignRoleRequest struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

type Assignment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	AssignedBy string    `json:"assigned_by"`
	IsActive   bool      `json:"is_active"`
	AssignedAt time.Time `json:"assigned_at"`
}

type GrantRequest struct {
	PermissionID string `json:"permission_id"`
}

type Grant struct {
	RoleID       string    `json:"role_id"`
	PermissionID string    `json:"permission_id"`
	GrantedBy    string    `json:"granted_by"`
	GrantedAt    time.Time `json:"granted_at"`
}

type UserPermissions struct {
	UserID      string       `json:"user_id"`
	Role        *Role        `json:"role"`
	Permissions []Permission `json:"permissions"`
}
