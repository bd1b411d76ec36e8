package engine

// debateFormat is the fixed speaking sequence. Reply slots are spoken by the
// holder of their anchor role.
var debateFormat = []Slot{
	{Role: RolePrimeMinister, Team: TeamGovernment, TimeBudgetSeconds: 420},
	{Role: RoleLeaderOfOpposition, Team: TeamOpposition, TimeBudgetSeconds: 420},
	{Role: RoleDeputyPrimeMinister, Team: TeamGovernment, TimeBudgetSeconds: 420},
	{Role: RoleDeputyLeaderOfOpposition, Team: TeamOpposition, TimeBudgetSeconds: 420},
	{Role: RoleGovernmentWhip, Team: TeamGovernment, TimeBudgetSeconds: 420},
	{Role: RoleOppositionWhip, Team: TeamOpposition, TimeBudgetSeconds: 420},
	{Role: RoleOppositionReply, Team: TeamOpposition, TimeBudgetSeconds: 240, Anchor: RoleLeaderOfOpposition},
	{Role: RoleGovernmentReply, Team: TeamGovernment, TimeBudgetSeconds: 240, Anchor: RolePrimeMinister},
}

// DebateFormat returns a copy of the canonical format so callers can't reorder it.
func DebateFormat() []Slot {
	out := make([]Slot, len(debateFormat))
	copy(out, debateFormat)
	return out
}
