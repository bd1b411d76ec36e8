package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var primaryRoles = []Role{
	RolePrimeMinister,
	RoleLeaderOfOpposition,
	RoleDeputyPrimeMinister,
	RoleDeputyLeaderOfOpposition,
	RoleGovernmentWhip,
	RoleOppositionWhip,
}

func roles(slots []Slot) []Role {
	out := make([]Role, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Role)
	}
	return out
}

func TestActiveOrder_EverySubsetOfPrimaryRoles(t *testing.T) {
	format := DebateFormat()

	for mask := 1; mask < 1<<len(primaryRoles); mask++ {
		present := map[Role]bool{}
		for i, r := range primaryRoles {
			if mask&(1<<i) != 0 {
				present[r] = true
			}
		}

		var want []Role
		for _, slot := range format {
			switch slot.Role {
			case RoleGovernmentReply:
				if present[RolePrimeMinister] {
					want = append(want, slot.Role)
				}
			case RoleOppositionReply:
				if present[RoleLeaderOfOpposition] {
					want = append(want, slot.Role)
				}
			default:
				if present[slot.Role] {
					want = append(want, slot.Role)
				}
			}
		}

		got := ActiveOrder(format, present)
		require.Equal(t, want, roles(got), "mask %06b", mask)

		// relative order follows the format
		last := -1
		for _, slot := range got {
			idx := ToFullIndex(format, slot.Role)
			require.Greater(t, idx, last, "mask %06b", mask)
			last = idx
		}

		// deterministic across calls
		require.Equal(t, got, ActiveOrder(format, present))
	}
}

func TestActiveOrder_PrimeMinisterAndLeader(t *testing.T) {
	present := PresentRoles(readyRoster(RoleLeaderOfOpposition, RolePrimeMinister))
	got := ActiveOrder(DebateFormat(), present)
	assert.Equal(t, []Role{RolePrimeMinister, RoleLeaderOfOpposition, RoleOppositionReply, RoleGovernmentReply}, roles(got))
}

func TestActiveOrder_EmptyRoster(t *testing.T) {
	assert.Empty(t, ActiveOrder(DebateFormat(), PresentRoles(nil)))
}

func TestToFullIndex(t *testing.T) {
	format := DebateFormat()
	cases := []struct {
		role Role
		want int
	}{
		{RolePrimeMinister, 0},
		{RoleLeaderOfOpposition, 1},
		{RoleDeputyPrimeMinister, 2},
		{RoleOppositionWhip, 5},
		{RoleOppositionReply, 6},
		{RoleGovernmentReply, 7},
		{Role("chair"), -1},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, ToFullIndex(format, tc.role))
		})
	}
}

func TestToActivePosition(t *testing.T) {
	format := DebateFormat()
	active := ActiveOrder(format, PresentRoles(readyRoster(RolePrimeMinister, RoleLeaderOfOpposition)))

	cases := []struct {
		name      string
		fullIndex int
		want      int
	}{
		{"prime minister", 0, 0},
		{"leader of opposition", 1, 1},
		{"deputy prime minister absent", 2, -1},
		{"opposition reply", 6, 2},
		{"government reply", 7, 3},
		{"negative", -1, -1},
		{"past the end", 8, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToActivePosition(format, active, tc.fullIndex))
		})
	}
}

func TestIndexRoundTrip(t *testing.T) {
	format := DebateFormat()
	active := ActiveOrder(format, PresentRoles(readyRoster(RoleDeputyPrimeMinister, RoleLeaderOfOpposition, RoleOppositionWhip)))
	for pos, slot := range active {
		full := ToFullIndex(format, slot.Role)
		assert.Equal(t, pos, ToActivePosition(format, active, full))
	}
}

func TestDebateFormat_ReturnsCopy(t *testing.T) {
	f := DebateFormat()
	f[0], f[1] = f[1], f[0]
	assert.Equal(t, RolePrimeMinister, DebateFormat()[0].Role)
	assert.Len(t, DebateFormat(), 8)
}
