package evaluation_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sharveshsanjay/clash-royale/internal/domain/evaluation"
	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func member(tag string, role model.Role, donations, received, trophies, level, rank int) model.MemberRecord {
	return model.MemberRecord{
		Tag:               tag,
		Name:              "name-" + tag,
		Role:              role,
		Donations:         donations,
		DonationsReceived: received,
		Trophies:          trophies,
		ExpLevel:          level,
		ClanRank:          rank,
	}
}

func tags(list []evaluation.ScoredMember) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.Tag)
	}
	return out
}

func TestScore(t *testing.T) {
	Convey("Given a member with known stats", t, func() {
		m := member("#B", model.RoleMember, 500, 500, 5000, 13, 1)

		Convey("When scoring it", func() {
			s := evaluation.Score(m)

			Convey("Then every score follows the formulas", func() {
				So(s.Contribution, ShouldEqual, 1563)
				So(s.Support, ShouldEqual, 1000)
				So(s.Loyalty, ShouldEqual, 163)
				So(s.Total, ShouldEqual, 2726)
				So(s.Badge, ShouldEqual, evaluation.BadgeCoreMember)
			})
		})
	})

	Convey("Given trophy counts around a rounding boundary", t, func() {
		Convey("Then trophies/100 rounds half up", func() {
			So(evaluation.Score(model.MemberRecord{Trophies: 150}).Contribution, ShouldEqual, 2)
			So(evaluation.Score(model.MemberRecord{Trophies: 149}).Contribution, ShouldEqual, 1)
			So(evaluation.Score(model.MemberRecord{Trophies: 50}).Contribution, ShouldEqual, 1)
			So(evaluation.Score(model.MemberRecord{Trophies: 49}).Contribution, ShouldEqual, 0)
		})
	})

	Convey("Given a member without a clan rank", t, func() {
		s := evaluation.Score(model.MemberRecord{ExpLevel: 9})

		Convey("Then loyalty uses rank 50", func() {
			So(s.Loyalty, ShouldEqual, 3+9)
		})
	})

	Convey("Given a rank beyond the clan size", t, func() {
		s := evaluation.Score(model.MemberRecord{ClanRank: 80, ExpLevel: 1})

		Convey("Then loyalty never goes negative", func() {
			So(s.Loyalty, ShouldEqual, 0)
		})
	})

	Convey("Given random members", t, func() {
		Convey("Then total is always the sum of the parts", func() {
			for i := 0; i < 50; i++ {
				m := member(fmt.Sprint(i), model.RoleMember, i*37%900, i*53%700, i*311%9000, i%14+1, i%50+1)
				s := evaluation.Score(m)
				So(s.Total, ShouldEqual, s.Contribution+s.Loyalty+s.Support)
				So(s.Badge.Valid(), ShouldBeTrue)
			}
		})
	})
}

func TestAssignBadge(t *testing.T) {
	Convey("Given the ordered badge rules", t, func() {
		Convey("When support exceeds 1000 and a tenth of trophies", func() {
			So(evaluation.AssignBadge(800, 300, 11000, 5000), ShouldEqual, evaluation.BadgeSupporter)
		})

		Convey("When support is high but below a tenth of trophies", func() {
			So(evaluation.AssignBadge(800, 300, 11001, 5000), ShouldEqual, evaluation.BadgeTrophyPusher)
		})

		Convey("When support is exactly 1000", func() {
			So(evaluation.AssignBadge(500, 500, 100, 300), ShouldEqual, evaluation.BadgeHelpingHand)
		})

		Convey("When trophies reach 6500", func() {
			So(evaluation.AssignBadge(0, 0, 6500, 0), ShouldEqual, evaluation.BadgeTrophyPusher)
			So(evaluation.AssignBadge(0, 0, 6499, 0), ShouldEqual, evaluation.BadgeClanMember)
		})

		Convey("When total reaches 400", func() {
			So(evaluation.AssignBadge(0, 0, 0, 400), ShouldEqual, evaluation.BadgeCoreMember)
		})

		Convey("When support is just above 200", func() {
			So(evaluation.AssignBadge(101, 100, 0, 300), ShouldEqual, evaluation.BadgeHelpingHand)
			So(evaluation.AssignBadge(100, 100, 0, 300), ShouldEqual, evaluation.BadgeClanMember)
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given a roster with leadership", t, func() {
		roster := []model.MemberRecord{
			member("#L", model.RoleLeader, 9000, 9000, 9000, 14, 1),
			member("#C", model.RoleCoLeader, 9000, 9000, 9000, 14, 2),
			member("#A", model.RoleMember, 0, 0, 1000, 10, 5),
			member("#B", model.RoleElder, 500, 500, 5000, 13, 3),
		}

		Convey("When aggregating the eligible subset", func() {
			agg := evaluation.Aggregate(evaluation.Eligible(roster))

			Convey("Then leaders do not influence the averages", func() {
				So(agg.EligibleCount, ShouldEqual, 2)
				So(agg.AvgTrophies, ShouldEqual, 3000.0)
				So(agg.AvgDonations, ShouldEqual, 250.0)
				So(agg.AvgSupport, ShouldEqual, 500.0)
			})
		})
	})

	Convey("Given no eligible members", t, func() {
		agg := evaluation.Aggregate(nil)

		Convey("Then every average is zero", func() {
			So(agg, ShouldResemble, evaluation.ClanAggregate{})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given clan averages", t, func() {
		agg := evaluation.ClanAggregate{
			AvgTrophies:     3000,
			AvgDonations:    250,
			AvgSupport:      500,
			AvgContribution: 791.5,
		}

		Convey("When a member breaks every rule", func() {
			m := member("#A", model.RoleMember, 0, 0, 1000, 10, 5)
			v := evaluation.Classify(m.Donations, m.DonationsReceived, m.Trophies, evaluation.Score(m), agg)

			Convey("Then the score is 9 and reasons keep rule order", func() {
				So(v.Score, ShouldEqual, 9)
				So(v.Reasons, ShouldResemble, []evaluation.Reason{
					evaluation.ReasonNoDonations,
					evaluation.ReasonNoDonationsReceived,
					evaluation.ReasonVeryLowTrophies,
					evaluation.ReasonLowContribution,
					evaluation.ReasonLowSupportActivity,
				})
			})
		})

		Convey("When a member is only mildly behind", func() {
			m := member("#M", model.RoleMember, 100, 300, 2500, 12, 10)
			v := evaluation.Classify(m.Donations, m.DonationsReceived, m.Trophies, evaluation.Score(m), agg)

			Convey("Then the milder alternative of each group applies", func() {
				So(v.Reasons, ShouldResemble, []evaluation.Reason{
					evaluation.ReasonLowDonations,
					evaluation.ReasonBelowAverageTrophies,
				})
				So(v.Score, ShouldEqual, 2)
			})
		})

		Convey("When a member has no violations", func() {
			m := member("#B", model.RoleMember, 500, 500, 5000, 13, 1)
			v := evaluation.Classify(m.Donations, m.DonationsReceived, m.Trophies, evaluation.Score(m), agg)

			Convey("Then reasons are empty but not nil", func() {
				So(v.Score, ShouldEqual, 0)
				So(v.Reasons, ShouldNotBeNil)
				So(v.Reasons, ShouldBeEmpty)
			})
		})
	})

	Convey("Given zero averages", t, func() {
		Convey("Then only the zero-value rules can fire", func() {
			v := evaluation.Classify(10, 10, 10, evaluation.Scores{Contribution: 5, Support: 20}, evaluation.ClanAggregate{})
			So(v.Score, ShouldEqual, 0)
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given the two-member roster", t, func() {
		roster := []model.MemberRecord{
			member("#A", model.RoleMember, 0, 0, 1000, 10, 5),
			member("#B", model.RoleMember, 500, 500, 5000, 13, 1),
		}

		Convey("When evaluating it", func() {
			r := evaluation.New().Evaluate(roster)

			Convey("Then the aggregate matches", func() {
				So(r.Aggregate.AvgContribution, ShouldEqual, 791.5)
			})

			Convey("Then A is flagged and B is clean", func() {
				So(r.Members[0].ViolationScore, ShouldEqual, 9)
				So(r.Members[0].ViolationReasons, ShouldHaveLength, 5)
				So(r.Members[1].ViolationScore, ShouldEqual, 0)
			})

			Convey("Then the lists are derived", func() {
				So(tags(r.Kick), ShouldResemble, []string{"#A", "#B"})
				So(tags(r.Nomination), ShouldResemble, []string{"#A"})
				So(tags(r.Promotion), ShouldResemble, []string{"#B"})
			})
		})
	})

	Convey("Given an empty roster", t, func() {
		r := evaluation.New().Evaluate(nil)

		Convey("Then aggregates are zero and lists are empty", func() {
			So(r.Aggregate, ShouldResemble, evaluation.ClanAggregate{})
			So(r.Nomination, ShouldNotBeNil)
			So(r.Nomination, ShouldBeEmpty)
			So(r.Kick, ShouldBeEmpty)
			So(r.Promotion, ShouldBeEmpty)
		})

		Convey("Then the report serialises lists as arrays", func() {
			b, err := json.Marshal(r)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"kick":[]`)
			So(string(b), ShouldContainSubstring, `"members":[]`)
		})
	})

	Convey("Given leaders with terrible stats", t, func() {
		roster := []model.MemberRecord{
			member("#L", model.RoleLeader, 0, 0, 0, 1, 40),
			member("#C", model.RoleCoLeader, 0, 0, 0, 1, 41),
			member("#M", model.RoleMember, 10, 10, 4000, 10, 3),
		}
		r := evaluation.New().Evaluate(roster)

		Convey("Then they are scored but never listed", func() {
			So(r.Members, ShouldHaveLength, 3)
			So(r.Members[0].Eligible, ShouldBeFalse)
			So(r.Members[0].ViolationScore, ShouldEqual, 0)
			So(r.Members[2].Eligible, ShouldBeTrue)
			for _, list := range [][]evaluation.ScoredMember{r.Kick, r.Nomination, r.Promotion} {
				So(tags(list), ShouldNotContain, "#L")
				So(tags(list), ShouldNotContain, "#C")
			}
			So(r.Aggregate.EligibleCount, ShouldEqual, 1)
		})
	})

	Convey("Given equal violation scores", t, func() {
		roster := []model.MemberRecord{
			member("#R3", model.RoleMember, 0, 0, 0, 1, 3),
			member("#R10", model.RoleMember, 0, 0, 0, 1, 10),
			member("#NA", model.RoleMember, 0, 0, 0, 1, 0),
			member("#NB", model.RoleMember, 0, 0, 0, 1, 0),
		}
		r := evaluation.New().Evaluate(roster)

		Convey("Then worse rank comes first and full ties keep roster order", func() {
			So(tags(r.Kick), ShouldResemble, []string{"#NA", "#NB", "#R10", "#R3"})
		})
	})

	Convey("Given more eligible members than the list sizes", t, func() {
		var roster []model.MemberRecord
		for i := 1; i <= 8; i++ {
			roster = append(roster, member(fmt.Sprintf("#M%d", i), model.RoleMember, 100, 100, 4000, 10, i))
		}

		Convey("When using defaults", func() {
			r := evaluation.New().Evaluate(roster)

			Convey("Then kick and promotion are capped at five", func() {
				So(r.Kick, ShouldHaveLength, 5)
				So(r.Promotion, ShouldHaveLength, 5)
				So(r.Nomination, ShouldBeEmpty)
			})

			Convey("Then promotion ties keep roster order", func() {
				So(tags(r.Promotion), ShouldResemble, []string{"#M1", "#M2", "#M3", "#M4", "#M5"})
			})
		})

		Convey("When using custom sizes", func() {
			r := evaluation.New(
				evaluation.WithKickListSize(3),
				evaluation.WithPromotionListSize(2),
				evaluation.WithNominationThreshold(-1),
			).Evaluate(roster)

			Convey("Then the sizes apply and invalid options are ignored", func() {
				So(r.Kick, ShouldHaveLength, 3)
				So(r.Promotion, ShouldHaveLength, 2)
				So(r.Nomination, ShouldBeEmpty)
			})
		})

		Convey("When a member falls behind", func() {
			roster[7] = member("#M8", model.RoleMember, 0, 0, 4000, 10, 8)
			r := evaluation.New().Evaluate(roster)

			Convey("Then kick still has five entries led by the violator", func() {
				So(r.Kick, ShouldHaveLength, 5)
				So(r.Kick[0].Tag, ShouldEqual, "#M8")
				for _, m := range r.Kick {
					So(m.ViolationScore, ShouldBeBetweenOrEqual, 0, 9)
				}
			})
		})
	})

	Convey("Given promotion candidates with different donations", t, func() {
		roster := []model.MemberRecord{
			member("#LOW", model.RoleMember, 300, 300, 4000, 10, 1),
			member("#HIGH", model.RoleMember, 400, 300, 4000, 10, 2),
		}
		r := evaluation.New().Evaluate(roster)

		Convey("Then higher donors come first", func() {
			So(tags(r.Promotion), ShouldResemble, []string{"#HIGH", "#LOW"})
		})
	})

	Convey("Given the same roster evaluated twice", t, func() {
		roster := []model.MemberRecord{
			member("#A", model.RoleMember, 0, 0, 1000, 10, 5),
			member("#B", model.RoleMember, 500, 500, 5000, 13, 1),
		}
		e := evaluation.New()

		Convey("Then the results are identical", func() {
			So(e.Evaluate(roster), ShouldResemble, e.Evaluate(roster))
		})
	})
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 2, 6, 12, 0, 0, 0, time.UTC)

	Convey("Given a mixed roster", t, func() {
		roster := []model.MemberRecord{
			member("#L", model.RoleLeader, 200, 100, 6000, 14, 1),
			member("#E", model.RoleElder, 100, 100, 4000, 12, 2),
			member("#M", model.RoleMember, 0, 0, 2001, 8, 0),
		}
		roster[0].LastSeen = "20250206T104422.000Z"
		roster[1].LastSeen = "20250201T104422.000Z"
		members := evaluation.ScoreAll(roster)

		Convey("When summarising", func() {
			s := evaluation.Summarize(members, now)

			Convey("Then totals and counts cover the full roster", func() {
				So(s.MemberCount, ShouldEqual, 3)
				So(s.TotalTrophies, ShouldEqual, 12001)
				So(s.TotalDonations, ShouldEqual, 300)
				So(s.TotalSupport, ShouldEqual, 500)
				So(s.AvgTrophies, ShouldEqual, 4000)
				So(s.ActiveMembers, ShouldEqual, 1)
				So(s.RoleCounts, ShouldResemble, evaluation.RoleCounts{All: 3, Leader: 1, Elder: 1, Member: 1})
			})

			Convey("Then the relationship index stays within bounds", func() {
				ri := s.RelationshipIndex
				So(ri.ContributionStrength, ShouldBeBetweenOrEqual, 0.0, 100.0)
				So(ri.SupportStrength, ShouldBeBetweenOrEqual, 0.0, 100.0)
				So(ri.LoyaltyStrength, ShouldBeBetweenOrEqual, 0.0, 100.0)
				So(ri.Overall, ShouldBeBetweenOrEqual, 0.0, 100.0)
			})
		})
	})

	Convey("Given a very strong clan", t, func() {
		members := evaluation.ScoreAll([]model.MemberRecord{
			member("#X", model.RoleMember, 2000, 2000, 8000, 14, 1),
		})
		s := evaluation.Summarize(members, now)

		Convey("Then strengths are clamped at 100", func() {
			So(s.RelationshipIndex.ContributionStrength, ShouldEqual, 100.0)
			So(s.RelationshipIndex.SupportStrength, ShouldEqual, 100.0)
			So(s.RelationshipIndex.Overall, ShouldBeLessThanOrEqualTo, 100)
		})
	})

	Convey("Given an empty roster", t, func() {
		So(evaluation.Summarize(nil, now), ShouldResemble, evaluation.Summary{})
	})
}

func TestBuildLeaderboards(t *testing.T) {
	Convey("Given scored members", t, func() {
		members := evaluation.ScoreAll([]model.MemberRecord{
			member("#A", model.RoleMember, 10, 0, 7000, 10, 3),
			member("#B", model.RoleMember, 300, 200, 3000, 10, 2),
			member("#C", model.RoleMember, 300, 0, 5000, 10, 1),
		})

		Convey("When building top-2 leaderboards", func() {
			lb := evaluation.BuildLeaderboards(members, 2)

			Convey("Then each board is ordered by its metric", func() {
				So(tags(lb.Trophies), ShouldResemble, []string{"#A", "#C"})
				So(tags(lb.Donations), ShouldResemble, []string{"#B", "#C"})
				So(lb.TotalScore, ShouldHaveLength, 2)
				So(lb.TotalScore[0].TotalScore, ShouldBeGreaterThanOrEqualTo, lb.TotalScore[1].TotalScore)
			})
		})

		Convey("When n exceeds the roster", func() {
			lb := evaluation.BuildLeaderboards(members, 10)
			So(lb.Trophies, ShouldHaveLength, 3)
		})
	})
}
