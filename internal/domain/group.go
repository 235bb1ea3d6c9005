package domain

import "time"

type Group struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	GroupAdminID int64     `json:"groupAdminID"`
	CoAdminIDs   []int64   `json:"coAdminIDs"`
	MemberIDs    []int64   `json:"memberIDs"`
	MaxMembers   int32     `json:"maxMembers"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

// HasMember reports whether userID is in the group's member list.
func (g *Group) HasMember(userID int64) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsGroupAdmin reports whether userID administers the group, either as the
// owning admin or as a co-admin.
func (g *Group) IsGroupAdmin(userID int64) bool {
	if g.GroupAdminID == userID {
		return true
	}
	for _, id := range g.CoAdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
