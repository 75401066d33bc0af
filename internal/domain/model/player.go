package model

import "encoding/json"

// noFavouriteCard is reported when the player has no favourite card set.
const noFavouriteCard = "None"

// PlayerDetails holds the profile fields merged into member cards.
type PlayerDetails struct {
	Tag              string `json:"tag"`
	Name             string `json:"name"`
	BestTrophies     int    `json:"bestTrophies"`
	ChallengeMaxWins int    `json:"challengeMaxWins"`
	CardsFound       int    `json:"cardsFound"`
	StarPoints       int    `json:"starPoints"`
	FavouriteCard    string `json:"favouriteCard"`
	Wins             int    `json:"wins"`
	ThreeCrownWins   int    `json:"threeCrownWins"`
}

// playerPayload is the subset of the upstream player document we read.
type playerPayload struct {
	Tag                  string            `json:"tag"`
	Name                 string            `json:"name"`
	BestTrophies         int               `json:"bestTrophies"`
	ChallengeMaxWins     int               `json:"challengeMaxWins"`
	Cards                []json.RawMessage `json:"cards"`
	StarPoints           int               `json:"starPoints"`
	Wins                 int               `json:"wins"`
	ThreeCrownWins       int               `json:"threeCrownWins"`
	CurrentFavouriteCard *struct {
		Name string `json:"name"`
	} `json:"currentFavouriteCard"`
}

// ParsePlayerDetails extracts PlayerDetails from an upstream player document.
func ParsePlayerDetails(raw []byte) (PlayerDetails, error) {
	var p playerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return PlayerDetails{}, err
	}
	fav := noFavouriteCard
	if p.CurrentFavouriteCard != nil && p.CurrentFavouriteCard.Name != "" {
		fav = p.CurrentFavouriteCard.Name
	}
	return PlayerDetails{
		Tag:              p.Tag,
		Name:             p.Name,
		BestTrophies:     p.BestTrophies,
		ChallengeMaxWins: p.ChallengeMaxWins,
		CardsFound:       len(p.Cards),
		StarPoints:       p.StarPoints,
		FavouriteCard:    fav,
		Wins:             p.Wins,
		ThreeCrownWins:   p.ThreeCrownWins,
	}, nil
}

// MemberProfile is a roster entry with optional player details.
// Details is nil when the player lookup failed.
type MemberProfile struct {
	MemberRecord
	ArenaName string         `json:"arenaName"`
	RoleLabel string         `json:"roleLabel"`
	Details   *PlayerDetails `json:"details,omitempty"`
}

// NewMemberProfile builds a profile for m without player details.
func NewMemberProfile(m MemberRecord) MemberProfile {
	return MemberProfile{
		MemberRecord: m,
		ArenaName:    ArenaName(m.Trophies),
		RoleLabel:    m.Role.Label(),
	}
}
