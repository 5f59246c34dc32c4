package service

import (
	"context"

	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/go-playground/validator/v10"
)

type CheckInput struct {
	// UserID selects another subject. Only administrators may set it.
	UserID   string   `json:"user_id" validate:"max=128"`
	Resource string   `json:"resource" validate:"required,max=64"`
	Action   string   `json:"action" validate:"required,max=64"`
	Accept   []string `json:"accept" validate:"max=16,dive,required,max=64"`
}

type CheckResult struct {
	UserID   string
	Resource string
	Action   string
	Decision authz.Decision
}

// CheckService exposes the resolution engine for callers that cannot link
// it directly.
type CheckService struct {
	Engine   *authz.Engine
	validate *validator.Validate
}

func NewCheckService(engine *authz.Engine) *CheckService {
	return &CheckService{Engine: engine, validate: newValidator()}
}

// Check resolves in for caller, or for in.UserID when caller is an admin.
// The target of a delegated check is judged by its role alone; its own admin
// flag is not known here.
func (s *CheckService) Check(ctx context.Context, caller authz.Identity, in CheckInput) (CheckResult, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return CheckResult{}, err
	}

	target := caller
	if in.UserID != "" && in.UserID != caller.SubjectID {
		if !caller.IsAdmin {
			return CheckResult{}, ErrForbidden
		}
		target = authz.Identity{SubjectID: in.UserID, IsActive: true}
	}

	actions := append([]string{in.Action}, in.Accept...)
	d, err := s.Engine.Resolve(ctx, target, authz.Need(in.Resource, actions...))
	if err != nil {
		return CheckResult{}, err
	}

	return CheckResult{
		UserID:   target.SubjectID,
		Resource: in.Resource,
		Action:   in.Action,
		Decision: d,
	}, nil
}
