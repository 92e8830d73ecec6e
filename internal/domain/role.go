package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Role enumerates dashboard operator roles.
type Role string

const (
	RoleSuperAdmin      Role = "SuperAdmin"
	RoleSystemAdmin     Role = "SystemAdmin"
	RoleCustomerSupport Role = "CustomerSupport"
	RoleTechnician      Role = "Technician"
)

// Capability names one gated dashboard action.
type Capability string

const (
	CapViewAllTickets           Capability = "view_all_tickets"
	CapCreateTicket             Capability = "create_ticket"
	CapMoveTicket               Capability = "move_ticket"
	CapAcceptTicket             Capability = "accept_ticket"
	CapOnsiteCheckIn            Capability = "onsite_checkin"
	CapAssignTicket             Capability = "assign_ticket"
	CapEscalateTicket           Capability = "escalate_ticket"
	CapResolveTicket            Capability = "resolve_ticket"
	CapAddNote                  Capability = "add_note"
	CapConfigureEscalationRules Capability = "configure_escalation_rules"
)

var officeCapabilities = []Capability{
	CapViewAllTickets,
	CapCreateTicket,
	CapMoveTicket,
	CapAcceptTicket,
	CapOnsiteCheckIn,
	CapAssignTicket,
	CapEscalateTicket,
	CapResolveTicket,
	CapAddNote,
	CapConfigureEscalationRules,
}

// roleCapabilities is the single role -> permitted actions table. UI gating
// and the HTTP adapter both consult it.
var roleCapabilities = map[Role][]Capability{
	RoleSuperAdmin:      officeCapabilities,
	RoleSystemAdmin:     officeCapabilities,
	RoleCustomerSupport: officeCapabilities,
	RoleTechnician: {
		CapMoveTicket,
		CapAcceptTicket,
		CapOnsiteCheckIn,
		CapResolveTicket,
		CapAddNote,
	},
}

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleSystemAdmin, RoleCustomerSupport, RoleTechnician}
}

// ParseRole matches a role label case-insensitively.
func ParseRole(raw string) (Role, error) {
	for _, r := range Roles() {
		if strings.EqualFold(string(r), strings.TrimSpace(raw)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Can reports whether the role may perform the capability.
func (r Role) Can(c Capability) bool {
	return slices.Contains(roleCapabilities[r], c)
}

// Capabilities lists what the role may do.
func (r Role) Capabilities() []Capability {
	return slices.Clone(roleCapabilities[r])
}

// MoveCapabilities lists what a generic move to status requires. Moves that
// land in Escalated or Completed also need the dedicated action's capability,
// so the move route cannot bypass it.
func MoveCapabilities(status TicketStatus) []Capability {
	switch status {
	case TicketStatusEscalated:
		return []Capability{CapMoveTicket, CapEscalateTicket}
	case TicketStatusCompleted:
		return []Capability{CapMoveTicket, CapResolveTicket}
	default:
		return []Capability{CapMoveTicket}
	}
}

// CanMoveTo reports whether the role may move a ticket to status.
func (r Role) CanMoveTo(status TicketStatus) bool {
	for _, c := range MoveCapabilities(status) {
		if !r.Can(c) {
			return false
		}
	}
	return true
}
