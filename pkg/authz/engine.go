package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// Engine resolves whether an identity may perform an action on a resource.
// Resolution is a pure read and runs in a fixed order: admin fast path,
// active role lookup, role-wide override, grant lookup.
type Engine struct {
	store    Store
	failOpen bool
}

type Option func(*Engine)

// WithFailOpen makes an unreachable store resolve to Allowed instead of
// returning ErrServiceUnavailable. The failure is still logged.
func WithFailOpen() Option {
	return func(e *Engine) { e.failOpen = true }
}

func NewEngine(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("authz: store is required")
	}
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Resolve decides the check for id. Denials come back as a Decision with a nil
// error; the error is reserved for unauthenticated identities, invalid checks
// and an unavailable store.
func (e *Engine) Resolve(ctx context.Context, id Identity, chk Check) (Decision, error) {
	if err := chk.validate(); err != nil {
		return Decision{}, err
	}
	if id.SubjectID == "" || !id.IsActive {
		return Decision{}, ErrUnauthenticated
	}

	d, err := e.resolve(ctx, id, chk)
	if err != nil {
		if !e.failOpen {
			return Decision{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		slogx.FromContext(ctx).Warn("authz store unavailable, failing open",
			"subject", id.SubjectID, "check", chk.String(), "err", err)
		d = allow(ReasonFailOpen)
	}

	slogx.FromContext(ctx).Debug("authz decision",
		"subject", id.SubjectID,
		"check", chk.String(),
		"allowed", d.Allowed,
		"reason", string(d.Reason),
		"role", d.RoleName,
	)
	return d, nil
}

// Enforce is Resolve collapsed into an error: nil when allowed, a denial
// sentinel when denied.
func (e *Engine) Enforce(ctx context.Context, id Identity, chk Check) error {
	d, err := e.Resolve(ctx, id, chk)
	if err != nil {
		return err
	}
	return d.Err()
}

func (e *Engine) resolve(ctx context.Context, id Identity, chk Check) (Decision, error) {
	if id.IsAdmin {
		return e.override(ctx, chk, ReasonAdminIdentity, Role{})
	}

	role, ok, err := e.store.ActiveRole(ctx, id.SubjectID)
	if err != nil {
		return Decision{}, fmt.Errorf("active role: %w", err)
	}
	if !ok {
		return deny(ReasonNoRoleAssigned), nil
	}

	if role.GrantsAll {
		return e.override(ctx, chk, ReasonGrantsAll, role)
	}

	granted, err := e.store.HasGrant(ctx, role.ID, chk.Resource, chk.Actions)
	if err != nil {
		return Decision{}, fmt.Errorf("grant lookup: %w", err)
	}

	d := deny(ReasonInsufficientPermission)
	if granted {
		d = allow(ReasonGranted)
	}
	d.RoleID, d.RoleName = role.ID, role.Name
	return d, nil
}

// override handles the admin identity flag and grants-all roles. Explicit
// checks still require the permission to be configured.
func (e *Engine) override(ctx context.Context, chk Check, reason Reason, role Role) (Decision, error) {
	d := allow(reason)
	if chk.explicit {
		configured, err := e.store.PermissionConfigured(ctx, chk.Resource, chk.Actions)
		if err != nil {
			return Decision{}, fmt.Errorf("permission lookup: %w", err)
		}
		if !configured {
			d = deny(ReasonInsufficientPermission)
		}
	}
	d.RoleID, d.RoleName = role.ID, role.Name
	return d, nil
}

// LogValue keeps decisions readable in structured logs.
func (d Decision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("allowed", d.Allowed),
		slog.String("reason", string(d.Reason)),
		slog.String("role", d.RoleName),
	)
}
