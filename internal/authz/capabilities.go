package authz

import "github.com/aura-events/backend/internal/models"

type scope uint8

const (
	scopeNone scope = 0
	// scopeAll grants the action on any resource regardless of owner or state.
	scopeAll scope = 1 << iota
	// scopeOwned requires Resource.OwnerID == caller.
	scopeOwned
	// scopeEventOwner requires Resource.EventOwnerID == caller.
	scopeEventOwner
	// scopeVisible requires an approved event in a listed status.
	scopeVisible
)

// baseCapabilities apply to every authenticated role.
var baseCapabilities = map[Action]scope{
	EventRead:          scopeVisible,
	RegistrationCreate: scopeOwned,
	RegistrationRead:   scopeOwned,
	RegistrationCancel: scopeOwned,
	OrganizationCreate: scopeOwned,
	OrganizationManage: scopeOwned,
}

// roleCapabilities extend baseCapabilities per role. admin is filled in by init.
var roleCapabilities = map[models.Role]map[Action]scope{
	models.RoleOrganizer: {
		EventCreate:        scopeAll,
		EventRead:          scopeOwned | scopeVisible,
		EventUpdate:        scopeOwned,
		EventDelete:        scopeOwned,
		EventSetStatus:     scopeOwned,
		EventResubmit:      scopeOwned,
		TicketTypeManage:   scopeEventOwner,
		RegistrationRead:   scopeOwned | scopeEventOwner,
		RegistrationManage: scopeEventOwner,
	},
	models.RoleSuperAdmin: {
		UserManage:         scopeAll,
		OrganizationCreate: scopeAll,
		OrganizationManage: scopeAll,
	},
	models.RoleManagement: {
		UserManage:         scopeAll,
		OrganizationCreate: scopeAll,
		OrganizationManage: scopeAll,
	},
}

func init() {
	admin := make(map[Action]scope, len(allActions))
	for _, a := range allActions {
		admin[a] = scopeAll
	}
	roleCapabilities[models.RoleAdmin] = admin
}

func capabilityOf(r models.Role, a Action) scope {
	if sc, ok := roleCapabilities[r][a]; ok {
		return sc
	}
	return baseCapabilities[a]
}

// Can reports whether role r has any grant for action a, ignoring ownership and state.
// Handlers use it to decide what to render, never to authorize.
func Can(r models.Role, a Action) bool {
	return capabilityOf(r, a) != scopeNone
}
