package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// CheckPermission resolves a (resource, action) pair for the token holder,
// or for req.UserID when the caller is an administrator.
func (c *Client) CheckPermission(ctx context.Context, token string, req PermissionCheckRequest) (*PermissionCheckResponse, error) {
	var out PermissionCheckResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/permissions/check", token, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRole(ctx context.Context, token string, req CreateRoleRequest) (*Role, error) {
	var out Role
	if err := c.call(ctx, http.MethodPost, "/api/v1/roles", token, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRoles(ctx context.Context, token string) ([]Role, error) {
	var out []Role
	if err := c.call(ctx, http.MethodGet, "/api/v1/roles", token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePermission(ctx context.Context, token string, req CreatePermissionRequest) (*Permission, error) {
	var out Permission
	if err := c.call(ctx, http.MethodPost, "/api/v1/permissions", token, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPermissions lists permissions, optionally only those on resource.
func (c *Client) ListPermissions(ctx context.Context, token, resource string) ([]Permission, error) {
	path := "/api/v1/permissions"
	if resource != "" {
		path += "?resource=" + url.QueryEscape(resource)
	}
	var out []Permission
	if err := c.call(ctx, http.MethodGet, path, token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignRole makes roleID the user's active role, deactivating the previous one.
func (c *Client) AssignRole(ctx context.Context, token string, req AssignRoleRequest) (*Assignment, error) {
	var out Assignment
	if err := c.call(ctx, http.MethodPost, "/api/v1/roles/assign", token, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GrantPermission attaches a permission to a role. Granting twice yields a 409.
func (c *Client) GrantPermission(ctx context.Context, token, roleID string, req GrantRequest) (*Grant, error) {
	var out Grant
	path := "/api/v1/roles/" + url.PathEscape(roleID) + "/permissions"
	if err := c.call(ctx, http.MethodPost, path, token, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserPermissions(ctx context.Context, token, userID string) (*UserPermissions, error) {
	var out UserPermissions
	path := "/api/v1/users/" + url.PathEscape(userID) + "/permissions"
	if err := c.call(ctx, http.MethodGet, path, token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
