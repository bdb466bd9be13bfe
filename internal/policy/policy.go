package policy

// Single policy-evaluation point for lifecycle actions. Every
// publish/unpublish/clone path funnels through Allow instead of carrying
// its own role checks.

import "github.com/yungbote/trainstudio-backend/internal/types"

const (
	ActionPublish   = "publish"
	ActionUnpublish = "unpublish"
	ActionClone     = "clone"
	ActionDelete    = "delete"
	ActionEdit      = "edit"
)

// Resource is anything with an owning author.
type Resource interface {
	OwnerID() string
}

type Actor struct {
	ID   string
	Role string
}

// Allow reports whether actor may perform action on resource. Admins may
// do anything; authors only act on resources they own. Clone is open to
// any authenticated actor since it produces a record owned by the cloner.
func Allow(actor Actor, resource Resource, action string) bool {
	if actor.ID == "" {
		return false
	}
	if actor.Role == types.RoleAdmin {
		return true
	}
	if action == ActionClone {
		return true
	}
	return resource != nil && resource.OwnerID() == actor.ID
}
