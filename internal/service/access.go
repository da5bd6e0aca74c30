package service

import "github.com/teamsphere/teamsphere-server/internal/store"

// IsMember reports whether userID is the project owner or a listed member.
func IsMember(p *store.Project, userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanManage reports whether userID may change project-level settings and
// membership: the owner, or a member with the admin role.
func CanManage(p *store.Project, userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role == store.RoleOwner || m.Role == store.RoleAdmin
		}
	}
	return false
}
