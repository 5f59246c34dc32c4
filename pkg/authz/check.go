package authz

import (
	"fmt"
	"strings"
)

// Check is one resolution request: a resource and the set of action names
// the caller will accept. A "manage" grant satisfying create/update/delete is
// expressed by listing all of them.
type Check struct {
	Resource string
	Actions  []string

	// Explicit checks only let admins through when a matching permission is
	// configured at all. Admin stays a superset of configured permissions.
	explicit bool
}

// Need builds a Check for resource accepting any of actions.
func Need(resource string, actions ...string) Check {
	return Check{Resource: resource, Actions: actions}
}

// Explicit returns a copy of c that requires a configured permission even
// for admins.
func (c Check) Explicit() Check {
	c.explicit = true
	return c
}

func (c Check) IsExplicit() bool { return c.explicit }

func (c Check) validate() error {
	if strings.TrimSpace(c.Resource) == "" || len(c.Actions) == 0 {
		return ErrInvalidCheck
	}
	for _, a := range c.Actions {
		if strings.TrimSpace(a) == "" {
			return ErrInvalidCheck
		}
	}
	return nil
}

func (c Check) String() string {
	return fmt.Sprintf("%s:%s", c.Resource, strings.Join(c.Actions, "|"))
}
