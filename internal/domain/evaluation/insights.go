package evaluation

import (
	"math"
	"sort"
	"time"

	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
)

// Relationship index scales and the activity window.
const (
	contributionScaleMax = 400
	supportScaleMax      = 500
	loyaltyScaleMax      = 400
	activeWindow         = 24 * time.Hour
)

// RoleCounts counts members per role.
type RoleCounts struct {
	All      int `json:"all"`
	Leader   int `json:"leader"`
	CoLeader int `json:"coLeader"`
	Elder    int `json:"elder"`
	Member   int `json:"member"`
}

// RelationshipIndex rates clan cohesion; strengths are in [0,100].
type RelationshipIndex struct {
	ContributionStrength float64 `json:"contributionStrength"`
	SupportStrength      float64 `json:"supportStrength"`
	LoyaltyStrength      float64 `json:"loyaltyStrength"`
	Overall              int     `json:"overallIndex"`
}

// Summary holds the dashboard tiles computed over the full roster.
type Summary struct {
	MemberCount       int               `json:"memberCount"`
	TotalTrophies     int               `json:"totalTrophies"`
	TotalDonations    int               `json:"totalDonations"`
	TotalSupport      int               `json:"totalSupport"`
	AvgTrophies       int               `json:"avgTrophies"`
	AvgContribution   int               `json:"avgContribution"`
	ActiveMembers     int               `json:"activeMembers"`
	RoleCounts        RoleCounts        `json:"roleCounts"`
	RelationshipIndex RelationshipIndex `json:"relationshipIndex"`
}

// Summarize computes the summary tiles. now anchors the activity window.
func Summarize(members []ScoredMember, now time.Time) Summary {
	n := len(members)
	if n == 0 {
		return Summary{}
	}
	var s Summary
	var contribution, loyalty int
	s.MemberCount = n
	s.RoleCounts.All = n
	for _, m := range members {
		s.TotalTrophies += nonNegative(m.Trophies)
		s.TotalDonations += nonNegative(m.Donations)
		s.TotalSupport += m.SupportScore
		contribution += m.ContributionScore
		loyalty += m.LoyaltyScore

		switch m.Role {
		case model.RoleLeader:
			s.RoleCounts.Leader++
		case model.RoleCoLeader:
			s.RoleCounts.CoLeader++
		case model.RoleElder:
			s.RoleCounts.Elder++
		default:
			s.RoleCounts.Member++
		}

		if ts, ok := m.LastSeenAt(); ok && now.Sub(ts) <= activeWindow {
			s.ActiveMembers++
		}
	}

	count := float64(n)
	avgContribution := float64(contribution) / count
	s.AvgTrophies = roundHalfUp(float64(s.TotalTrophies) / count)
	s.AvgContribution = roundHalfUp(avgContribution)

	ri := RelationshipIndex{
		ContributionStrength: normalize(avgContribution, 0, contributionScaleMax),
		SupportStrength:      normalize(float64(s.TotalSupport)/count, 0, supportScaleMax),
		LoyaltyStrength:      normalize(float64(loyalty)/count, 0, loyaltyScaleMax),
	}
	ri.Overall = roundHalfUp((ri.ContributionStrength + ri.SupportStrength + ri.LoyaltyStrength) / 3)
	s.RelationshipIndex = ri
	return s
}

// Leaderboards are the top members by a few headline metrics.
type Leaderboards struct {
	TotalScore []ScoredMember `json:"totalScore"`
	Donations  []ScoredMember `json:"donations"`
	Trophies   []ScoredMember `json:"trophies"`
}

// BuildLeaderboards returns the top n members per metric. Ties keep roster order.
func BuildLeaderboards(members []ScoredMember, n int) Leaderboards {
	return Leaderboards{
		TotalScore: topBy(members, n, func(m ScoredMember) int { return m.TotalScore }),
		Donations:  topBy(members, n, func(m ScoredMember) int { return nonNegative(m.Donations) }),
		Trophies:   topBy(members, n, func(m ScoredMember) int { return nonNegative(m.Trophies) }),
	}
}

func topBy(members []ScoredMember, n int, key func(ScoredMember) int) []ScoredMember {
	out := append(make([]ScoredMember, 0, len(members)), members...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	if n < 0 {
		n = 0
	}
	return truncate(out, n)
}

// normalize maps v from [lo,hi] onto [0,100], clamped.
func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	p := (v - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, p))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
