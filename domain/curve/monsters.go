package curve

// Monster is a named reference curve with a large verified invariant.
type Monster struct {
	Label   string `json:"label"`
	Sha     int    `json:"sha"`
	SqrtSha int    `json:"sqrt_sha"`
	Name    string `json:"name"`
}

// Monsters is the reference table of named large-|Ш| curves.
var Monsters = []Monster{
	{Label: "165066.v1", Sha: 5625, SqrtSha: 75, Name: "Leviathan"},
	{Label: "287175.n1", Sha: 2500, SqrtSha: 50, Name: "Titan"},
	{Label: "146850.cb1", Sha: 2209, SqrtSha: 47, Name: "Behemoth"},
	{Label: "95438.c2", Sha: 676, SqrtSha: 26, Name: "Original Monster"},
}

// MonsterByLabel looks up a named monster by its curve label.
func MonsterByLabel(label string) (Monster, bool) {
	for _, m := range Monsters {
		if m.Label == label {
			return m, true
		}
	}
	return Monster{}, false
}
