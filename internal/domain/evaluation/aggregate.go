package evaluation

import "github.com/sharveshsanjay/clash-royale/internal/domain/model"

// ClanAggregate holds clan averages over the eligible members.
// Averages are unrounded; an empty subset yields zero everywhere.
type ClanAggregate struct {
	EligibleCount   int     `json:"eligibleCount"`
	AvgTrophies     float64 `json:"avgTrophies"`
	AvgDonations    float64 `json:"avgDonations"`
	AvgSupport      float64 `json:"avgSupport"`
	AvgContribution float64 `json:"avgContribution"`
}

// Eligible returns the roster members subject to review, in roster order.
// Leaders and co-leaders are excluded.
func Eligible(roster []model.MemberRecord) []model.MemberRecord {
	out := make([]model.MemberRecord, 0, len(roster))
	for _, m := range roster {
		if !m.Role.IsLeadership() {
			out = append(out, m)
		}
	}
	return out
}

// Aggregate computes the averages of the given eligible members.
func Aggregate(eligible []model.MemberRecord) ClanAggregate {
	n := len(eligible)
	if n == 0 {
		return ClanAggregate{}
	}
	var trophies, donations, support, contribution int
	for _, m := range eligible {
		s := Score(m)
		trophies += nonNegative(m.Trophies)
		donations += nonNegative(m.Donations)
		support += s.Support
		contribution += s.Contribution
	}
	count := float64(n)
	return ClanAggregate{
		EligibleCount:   n,
		AvgTrophies:     float64(trophies) / count,
		AvgDonations:    float64(donations) / count,
		AvgSupport:      float64(support) / count,
		AvgContribution: float64(contribution) / count,
	}
}
