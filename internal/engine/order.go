package engine

// ActiveOrder filters the format down to the slots someone present can speak.
// Relative order is kept.
func ActiveOrder(format []Slot, present map[Role]bool) []Slot {
	active := make([]Slot, 0, len(format))
	for _, slot := range format {
		if present[slot.Speaker()] {
			active = append(active, slot)
		}
	}
	return active
}

func PresentRoles(roster []Participant) map[Role]bool {
	present := make(map[Role]bool, len(roster))
	for _, p := range roster {
		present[p.Role] = true
	}
	return present
}

// ToFullIndex returns the index of role in format, or -1.
func ToFullIndex(format []Slot, role Role) int {
	for i, slot := range format {
		if slot.Role == role {
			return i
		}
	}
	return -1
}

// ToActivePosition maps a full-format index to its position in active.
// Out of range indexes and slots missing from active give -1.
func ToActivePosition(format, active []Slot, fullIndex int) int {
	if fullIndex < 0 || fullIndex >= len(format) {
		return -1
	}
	role := format[fullIndex].Role
	for pos, slot := range active {
		if slot.Role == role {
			return pos
		}
	}
	return -1
}
