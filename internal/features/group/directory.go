package group

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minNameLength = 2
	maxNameLength = 50
)

var heroImageIDs = []string{
	"1489599003-24K",
	"1574267432553-4b4628081c31",
	"1446776877081-d282a0f896e2",
	"1478720568477-b2709362040e",
}

// HeroImageURL builds the default hero image for one of the stock photos.
func HeroImageURL(i int) string {
	id := heroImageIDs[i%len(heroImageIDs)]
	return fmt.Sprintf("https://images.unsplash.com/photo-%s?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=60", id)
}

// NormalizeName trims the group name and checks its length.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNameLength {
		return "", apperr.Validationf("group name must be at least %d characters", minNameLength)
	}
	if n > maxNameLength {
		return "", apperr.Validationf("group name cannot exceed %d characters", maxNameLength)
	}
	return name, nil
}

// AddMember appends userID to the group. A user can only be a member once.
func (g *Group) AddMember(userID, name string, avatar *string, role Role, now time.Time) (*Member, error) {
	if g.IsMember(userID) {
		return nil, apperr.ErrDuplicateMember
	}
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return nil, apperr.Validationf("invalid role %q", role)
	}
	g.Members = append(g.Members, Member{
		ID:       primitive.NewObjectID(),
		UserRef:  userID,
		Name:     strings.TrimSpace(name),
		Avatar:   avatar,
		Role:     role,
		JoinedAt: now,
	})
	return &g.Members[len(g.Members)-1], nil
}

// RemoveMember drops the member with the given user reference. Removing an
// absent user is a no-op; the return value reports whether anything changed.
func (g *Group) RemoveMember(userID string) bool {
	return g.filterMembers(func(m Member) bool { return m.UserRef != userID })
}

// RemoveMemberByID drops the member sub-document with the given id.
func (g *Group) RemoveMemberByID(memberID primitive.ObjectID) bool {
	return g.filterMembers(func(m Member) bool { return m.ID != memberID })
}

func (g *Group) filterMembers(keep func(Member) bool) bool {
	kept := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	changed := len(kept) != len(g.Members)
	g.Members = kept
	return changed
}

func (g *Group) UpdateMemberRole(userID string, role Role) error {
	if !role.Valid() {
		return apperr.Validationf("invalid role %q", role)
	}
	m := g.GetMember(userID)
	if m == nil {
		return apperr.ErrMemberNotFound
	}
	m.Role = role
	return nil
}

// GetMember returns a pointer into g.Members, or nil.
func (g *Group) GetMember(userID string) *Member {
	for i := range g.Members {
		if g.Members[i].UserRef == userID {
			return &g.Members[i]
		}
	}
	return nil
}

func (g *Group) GetMemberByID(memberID primitive.ObjectID) *Member {
	for i := range g.Members {
		if g.Members[i].ID == memberID {
			return &g.Members[i]
		}
	}
	return nil
}

func (g *Group) IsMember(userID string) bool {
	return g.GetMember(userID) != nil
}

// IsAdmin is true for the creator and for members holding the admin role.
func (g *Group) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	if g.CreatedBy == userID {
		return true
	}
	m := g.GetMember(userID)
	return m != nil && m.Role == RoleAdmin
}

func (g *Group) MemberUserIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserRef)
	}
	return ids
}
