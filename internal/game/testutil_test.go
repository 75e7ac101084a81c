package game

import "testing"

// c parses a card in short notation ("10h", "As") and fails the test on error.
func c(t *testing.T, s string) Card {
	t.Helper()
	card, err := ParseShort(s)
	if err != nil {
		t.Fatalf("bad test card %q: %v", s, err)
	}
	return card
}

// slotsOf builds slots from short names, one string per slot.
// "" is an empty slot and "Ks/As" is an attack covered by a defense.
func slotsOf(t *testing.T, layout ...string) Slots {
	t.Helper()
	var sl Slots
	for i, desc := range layout {
		if desc == "" {
			continue
		}
		var cards []Card
		start := 0
		for j := 0; j <= len(desc); j++ {
			if j == len(desc) || desc[j] == '/' {
				cards = append(cards, c(t, desc[start:j]))
				start = j + 1
			}
		}
		sl[i] = Slot{Cards: cards}
	}
	return sl
}

func players(counts ...int) []Player {
	ids := []string{"alice", "bob", "carol", "dave"}
	var out []Player
	for i, n := range counts {
		out = append(out, Player{ID: ids[i], Name: ids[i], CardsCount: n})
	}
	return out
}
