package stats

// Profile is the structured record extracted from one recognized profile
// card. String fields are "" when unreadable; pointer fields are nil.
// NetWorth, Prestige and Invested keep their thousands separators because
// they feed display and export verbatim.
type Profile struct {
	Name            string   `json:"name,omitempty"`
	Tag             string   `json:"tag,omitempty"`
	GuildName       string   `json:"guild_name,omitempty"`
	Level           *int     `json:"level,omitempty"`
	NetWorth        string   `json:"net_worth,omitempty"`
	Prestige        string   `json:"prestige,omitempty"`
	Invested        string   `json:"invested,omitempty"`
	Mastered        *int     `json:"mastered,omitempty"`
	Helped          *int     `json:"helped,omitempty"`
	Ascensions      *int     `json:"ascensions,omitempty"`
	BountyTrophies  *int     `json:"bounty_trophies,omitempty"`
	CollectionScore *int     `json:"collection_score,omitempty"`
	Confidence      float64  `json:"confidence"`
}

// ID returns the canonical name#tag identity, or "" when no tag was read.
func (p Profile) ID() string {
	if p.Name == "" || p.Tag == "" {
		return ""
	}
	return p.Name + "#" + p.Tag
}
