// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// DefaultClanRank is assumed for members whose clan rank is missing.
const DefaultClanRank = 50

// lastSeenLayout is the timestamp layout used by the upstream game API.
const lastSeenLayout = "20060102T150405.000Z"

// Role is a member's position inside the clan.
type Role string

// Known clan roles, as spelled by the upstream API.
const (
	RoleLeader   Role = "leader"
	RoleCoLeader Role = "coLeader"
	RoleElder    Role = "elder"
	RoleMember   Role = "member"
)

// IsLeadership reports whether the role is leader or co-leader.
func (r Role) IsLeadership() bool {
	return r == RoleLeader || r == RoleCoLeader
}

// Label returns the display name of the role. Unknown roles read as "Member".
func (r Role) Label() string {
	switch r {
	case RoleLeader:
		return "Leader"
	case RoleCoLeader:
		return "Co-Leader"
	case RoleElder:
		return "Elder"
	default:
		return "Member"
	}
}

// Arena is the arena a member currently plays in.
type Arena struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// MemberRecord is one clan member as returned by the roster source.
// Missing numeric fields decode to zero; a zero ClanRank means "unknown".
type MemberRecord struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Role              Role   `json:"role"`
	Trophies          int    `json:"trophies"`
	Donations         int    `json:"donations"`
	DonationsReceived int    `json:"donationsReceived"`
	ExpLevel          int    `json:"expLevel"`
	ClanRank          int    `json:"clanRank"`
	LastSeen          string `json:"lastSeen,omitempty"`
	Arena             *Arena `json:"arena,omitempty"`
}

// EffectiveRank returns ClanRank, or DefaultClanRank when the rank is missing.
func (m MemberRecord) EffectiveRank() int {
	if m.ClanRank <= 0 {
		return DefaultClanRank
	}
	return m.ClanRank
}

// Support is donations given plus donations received.
func (m MemberRecord) Support() int {
	return nonNegative(m.Donations) + nonNegative(m.DonationsReceived)
}

// LastSeenAt parses LastSeen. ok is false when the field is empty or malformed.
func (m MemberRecord) LastSeenAt() (t time.Time, ok bool) {
	s := strings.TrimSpace(m.LastSeen)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(lastSeenLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MemberList mirrors the upstream members envelope.
type MemberList struct {
	Items []MemberRecord `json:"items"`
}

// ArenaName maps a trophy count to the arena tier shown on the dashboard.
func ArenaName(trophies int) string {
	switch {
	case trophies >= 7500:
		return "Champion"
	case trophies >= 6000:
		return "Master"
	case trophies >= 5000:
		return "Challenger"
	case trophies >= 4000:
		return "Legendary"
	case trophies >= 3000:
		return "Gold"
	case trophies >= 2000:
		return "Silver"
	case trophies >= 1000:
		return "Bronze"
	default:
		return "Training"
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
