package evaluation

import "github.com/sharveshsanjay/clash-royale/internal/domain/model"

// Loyalty and badge constants.
const (
	loyaltyRankCeiling = 51
	loyaltyRankWeight  = 3
	trophiesPerPoint   = 100

	supporterMinSupport   = 1000
	supporterTrophyRatio  = 10
	trophyPusherThreshold = 6500
	coreMemberThreshold   = 400
	helpingHandMinSupport = 200
)

// Badge is the single classification label given to every scored member.
type Badge string

// Badge labels, listed in the order they are tested.
const (
	BadgeSupporter    Badge = "Supporter"
	BadgeTrophyPusher Badge = "Trophy Pusher"
	BadgeCoreMember   Badge = "Core Member"
	BadgeHelpingHand  Badge = "Helping Hand"
	BadgeClanMember   Badge = "Clan Member"
)

// Valid reports whether b is one of the known badges.
func (b Badge) Valid() bool {
	switch b {
	case BadgeSupporter, BadgeTrophyPusher, BadgeCoreMember, BadgeHelpingHand, BadgeClanMember:
		return true
	}
	return false
}

// Scores are the roster-independent scores of one member.
type Scores struct {
	Contribution int   `json:"contributionScore"`
	Support      int   `json:"supportScore"`
	Loyalty      int   `json:"loyaltyScore"`
	Total        int   `json:"totalScore"`
	Badge        Badge `json:"badge"`
}

// Score computes the scores of a single member.
func Score(m model.MemberRecord) Scores {
	donations := nonNegative(m.Donations)
	received := nonNegative(m.DonationsReceived)
	trophies := nonNegative(m.Trophies)
	level := nonNegative(m.ExpLevel)

	contribution := contributionOf(donations, received, trophies, level)
	support := donations + received
	// Ranks past the ceiling never occur in game data; clamp to keep scores non-negative.
	loyalty := nonNegative((loyaltyRankCeiling-m.EffectiveRank())*loyaltyRankWeight + level)
	total := contribution + loyalty + support

	return Scores{
		Contribution: contribution,
		Support:      support,
		Loyalty:      loyalty,
		Total:        total,
		Badge:        AssignBadge(donations, received, trophies, total),
	}
}

// badgeRule is one entry of the badge table.
type badgeRule struct {
	badge Badge
	match func(support, trophies, total int) bool
}

// badgeRules is evaluated top to bottom; the first match wins.
var badgeRules = []badgeRule{
	{BadgeSupporter, func(support, trophies, _ int) bool {
		// support >= trophies/10, kept in integers
		return support > supporterMinSupport && support*supporterTrophyRatio >= trophies
	}},
	{BadgeTrophyPusher, func(_, trophies, _ int) bool { return trophies >= trophyPusherThreshold }},
	{BadgeCoreMember, func(_, _, total int) bool { return total >= coreMemberThreshold }},
	{BadgeHelpingHand, func(support, _, _ int) bool { return support > helpingHandMinSupport }},
}

// AssignBadge picks the badge for the given member statistics.
func AssignBadge(donations, received, trophies, total int) Badge {
	support := donations + received
	for _, r := range badgeRules {
		if r.match(support, trophies, total) {
			return r.badge
		}
	}
	return BadgeClanMember
}

func contributionOf(donations, received, trophies, level int) int {
	return donations*2 + received + roundDiv(trophies, trophiesPerPoint) + level
}

// roundDiv divides a non-negative n by d, rounding half up.
func roundDiv(n, d int) int {
	return (n + d/2) / d
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
