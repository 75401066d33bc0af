package evaluation

// Reason is a human-readable violation label.
type Reason string

// Violation reasons.
const (
	ReasonNoDonations          Reason = "No Donations"
	ReasonLowDonations         Reason = "Low Donations"
	ReasonNoDonationsReceived  Reason = "No Donations Received"
	ReasonVeryLowTrophies      Reason = "Very Low Trophies"
	ReasonBelowAverageTrophies Reason = "Below Average Trophies"
	ReasonLowContribution      Reason = "Low Contribution"
	ReasonLowSupportActivity   Reason = "Low Support Activity"
)

// Violation is the accumulated violation score of a member and its reasons
// in rule order.
type Violation struct {
	Score   int      `json:"violationScore"`
	Reasons []Reason `json:"violationReasons"`
}

// stats are the per-member numbers the rules look at.
type stats struct {
	donations    float64
	received     float64
	trophies     float64
	contribution float64
	support      float64
}

type rule struct {
	reason Reason
	points int
	match  func(s stats, agg ClanAggregate) bool
}

// ruleGroups are evaluated in order. Within a group only the first matching
// rule applies; groups are independent of each other.
var ruleGroups = [][]rule{
	{
		{ReasonNoDonations, 3, func(s stats, _ ClanAggregate) bool { return s.donations == 0 }},
		{ReasonLowDonations, 1, func(s stats, a ClanAggregate) bool { return s.donations < a.AvgDonations/2 }},
	},
	{
		{ReasonNoDonationsReceived, 1, func(s stats, _ ClanAggregate) bool { return s.received == 0 }},
	},
	{
		{ReasonVeryLowTrophies, 2, func(s stats, a ClanAggregate) bool { return s.trophies < a.AvgTrophies*0.7 }},
		{ReasonBelowAverageTrophies, 1, func(s stats, a ClanAggregate) bool { return s.trophies < a.AvgTrophies }},
	},
	{
		{ReasonLowContribution, 2, func(s stats, a ClanAggregate) bool { return s.contribution < a.AvgContribution*0.6 }},
	},
	{
		{ReasonLowSupportActivity, 1, func(s stats, a ClanAggregate) bool { return s.support < a.AvgSupport/2 }},
	},
}

// Classify applies the violation rules to one member. donations, received and
// trophies are the member's raw numbers; sc are its scores.
func Classify(donations, received, trophies int, sc Scores, agg ClanAggregate) Violation {
	s := stats{
		donations:    float64(nonNegative(donations)),
		received:     float64(nonNegative(received)),
		trophies:     float64(nonNegative(trophies)),
		contribution: float64(sc.Contribution),
		support:      float64(sc.Support),
	}
	v := Violation{Reasons: []Reason{}}
	for _, group := range ruleGroups {
		for _, r := range group {
			if r.match(s, agg) {
				v.Score += r.points
				v.Reasons = append(v.Reasons, r.reason)
				break
			}
		}
	}
	return v
}
