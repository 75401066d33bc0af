package model

import "encoding/json"

// unrankedLeague is reported when the clan has no capital league.
var unrankedLeague = json.RawMessage(`{"name":"Unranked"}`)

// Capital is the reshaped clan capital view.
type Capital struct {
	CapitalHallLevel    int             `json:"capitalHallLevel"`
	Districts           json.RawMessage `json:"districts"`
	ClanCapitalTrophies int             `json:"clanCapitalTrophies"`
	ClanCapitalLeague   json.RawMessage `json:"clanCapitalLeague"`
}

type clanCapitalPayload struct {
	ClanCapital *struct {
		CapitalHallLevel int             `json:"capitalHallLevel"`
		Districts        json.RawMessage `json:"districts"`
	} `json:"clanCapital"`
	ClanCapitalPoints int             `json:"clanCapitalPoints"`
	ClanCapitalLeague json.RawMessage `json:"clanCapitalLeague"`
}

// ParseCapital reshapes an upstream clan document into Capital, filling
// defaults for every missing field.
func ParseCapital(raw []byte) (Capital, error) {
	var p clanCapitalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Capital{}, err
	}
	c := Capital{
		Districts:           json.RawMessage(`[]`),
		ClanCapitalTrophies: p.ClanCapitalPoints,
		ClanCapitalLeague:   unrankedLeague,
	}
	if p.ClanCapital != nil {
		c.CapitalHallLevel = p.ClanCapital.CapitalHallLevel
		if isPresent(p.ClanCapital.Districts) {
			c.Districts = p.ClanCapital.Districts
		}
	}
	if isPresent(p.ClanCapitalLeague) {
		c.ClanCapitalLeague = p.ClanCapitalLeague
	}
	return c, nil
}

// ClanSummary is the small clan identity block used by the probe endpoint.
type ClanSummary struct {
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	Members int    `json:"members"`
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
