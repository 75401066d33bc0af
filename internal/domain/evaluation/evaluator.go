// Package evaluation scores clan members, detects under-performers and
// derives the promotion, nomination and kick lists.
package evaluation

import (
	"sort"

	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
)

// Default evaluation configuration constants.
const (
	DefaultNominationThreshold = 2
	DefaultKickListSize        = 5
	DefaultPromotionListSize   = 5
	DefaultLeaderboardSize     = 5
)

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithNominationThreshold sets the violation score a member must exceed to be
// nominated for removal. Negative values are ignored.
func WithNominationThreshold(threshold int) Option {
	return func(e *Evaluator) {
		if threshold >= 0 {
			e.nominationThreshold = threshold
		}
	}
}

// WithKickListSize caps the kick list.
func WithKickListSize(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.kickListSize = n
		}
	}
}

// WithPromotionListSize caps the promotion list.
func WithPromotionListSize(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.promotionListSize = n
		}
	}
}

// WithLeaderboardSize sets the number of entries per leaderboard.
func WithLeaderboardSize(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.leaderboardSize = n
		}
	}
}

// Evaluator turns a roster snapshot into a Report. It holds no mutable state
// and is safe for concurrent use.
type Evaluator struct {
	nominationThreshold int
	kickListSize        int
	promotionListSize   int
	leaderboardSize     int
}

// New creates an Evaluator with default settings adjusted by opts.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		nominationThreshold: DefaultNominationThreshold,
		kickListSize:        DefaultKickListSize,
		promotionListSize:   DefaultPromotionListSize,
		leaderboardSize:     DefaultLeaderboardSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LeaderboardSize returns the configured leaderboard length.
func (e *Evaluator) LeaderboardSize() int { return e.leaderboardSize }

// ScoredMember is a member with its scores. Violation fields are only
// populated for eligible members.
type ScoredMember struct {
	model.MemberRecord
	Eligible          bool     `json:"eligible"`
	ContributionScore int      `json:"contributionScore"`
	SupportScore      int      `json:"supportScore"`
	LoyaltyScore      int      `json:"loyaltyScore"`
	TotalScore        int      `json:"totalScore"`
	Badge             Badge    `json:"badge"`
	ViolationScore    int      `json:"violationScore"`
	ViolationReasons  []Reason `json:"violationReasons"`
}

// Report is the outcome of evaluating one roster snapshot.
type Report struct {
	Members    []ScoredMember `json:"members"`
	Aggregate  ClanAggregate  `json:"aggregate"`
	Nomination []ScoredMember `json:"nomination"`
	Kick       []ScoredMember `json:"kick"`
	Promotion  []ScoredMember `json:"promotion"`
}

// Evaluate scores every member of roster and derives the lists from the
// eligible subset. Leaders and co-leaders appear in Members with zero
// violations and never in a list. Members keep roster order.
func (e *Evaluator) Evaluate(roster []model.MemberRecord) Report {
	agg := Aggregate(Eligible(roster))

	members := make([]ScoredMember, 0, len(roster))
	eligible := make([]ScoredMember, 0, len(roster))
	for _, m := range roster {
		if m.Role.IsLeadership() {
			members = append(members, withScores(m, Score(m)))
			continue
		}
		sm := scoreMember(m, agg)
		members = append(members, sm)
		eligible = append(eligible, sm)
	}

	return Report{
		Members:    members,
		Aggregate:  agg,
		Nomination: e.nominate(eligible),
		Kick:       e.kick(eligible),
		Promotion:  e.promote(eligible),
	}
}

// ScoreAll scores every member of roster, leadership included, without
// violation analysis. It feeds roster-wide views such as insights.
func ScoreAll(roster []model.MemberRecord) []ScoredMember {
	out := make([]ScoredMember, 0, len(roster))
	for _, m := range roster {
		out = append(out, withScores(m, Score(m)))
	}
	return out
}

func scoreMember(m model.MemberRecord, agg ClanAggregate) ScoredMember {
	sc := Score(m)
	v := Classify(m.Donations, m.DonationsReceived, m.Trophies, sc, agg)
	sm := withScores(m, sc)
	sm.Eligible = true
	sm.ViolationScore = v.Score
	sm.ViolationReasons = v.Reasons
	return sm
}

func withScores(m model.MemberRecord, sc Scores) ScoredMember {
	return ScoredMember{
		MemberRecord:      m,
		ContributionScore: sc.Contribution,
		SupportScore:      sc.Support,
		LoyaltyScore:      sc.Loyalty,
		TotalScore:        sc.Total,
		Badge:             sc.Badge,
		ViolationReasons:  []Reason{},
	}
}

// byViolation orders by violation score, then by worse (larger) rank.
func byViolation(list []ScoredMember) func(i, j int) bool {
	return func(i, j int) bool {
		if list[i].ViolationScore != list[j].ViolationScore {
			return list[i].ViolationScore > list[j].ViolationScore
		}
		return list[i].EffectiveRank() > list[j].EffectiveRank()
	}
}

func (e *Evaluator) nominate(members []ScoredMember) []ScoredMember {
	out := make([]ScoredMember, 0)
	for _, m := range members {
		if m.ViolationScore > e.nominationThreshold {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, byViolation(out))
	return out
}

func (e *Evaluator) kick(members []ScoredMember) []ScoredMember {
	out := append(make([]ScoredMember, 0, len(members)), members...)
	sort.SliceStable(out, byViolation(out))
	return truncate(out, e.kickListSize)
}

func (e *Evaluator) promote(members []ScoredMember) []ScoredMember {
	out := make([]ScoredMember, 0)
	for _, m := range members {
		if m.ViolationScore == 0 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return nonNegative(out[i].Donations) > nonNegative(out[j].Donations)
	})
	return truncate(out, e.promotionListSize)
}

func truncate(list []ScoredMember, n int) []ScoredMember {
	if len(list) > n {
		return list[:n]
	}
	return list
}
