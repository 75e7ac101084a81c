package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/store"
)

// Render draws the table view as a text box.
func Render(w io.Writer, tv net.TableView) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════════╗")

	for _, p := range tv.Players {
		marker := "  "
		switch p.ID {
		case tv.AttackerID:
			marker = "⚔ "
		case tv.DefenderID:
			marker = "🛡"
		}
		name := p.Name
		if name == "" {
			name = p.ID
		}
		if p.You {
			name += " (you)"
		}
		extra := ""
		if p.Passed {
			extra = "  passed"
		}
		fmt.Fprintf(w, "║ %s %-20s cards: %d%s\n", marker, name, p.CardsCount, extra)
	}

	fmt.Fprintln(w, "║──────────────────────────────────────────────────────")
	fmt.Fprintf(w, "║  Table: ")
	for _, s := range tv.Slots {
		fmt.Fprintf(w, "%s ", formatSlot(s))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════════╝")

	info := fmt.Sprintf("Round %d | %s | Trump %s | Deck %d | You are %s",
		tv.Round, tv.Status, shortName(tv.Trump), tv.DeckCount, tv.Role)
	if tv.Pending > 0 {
		info += fmt.Sprintf(" | %d pending", tv.Pending)
	}
	if tv.Deadline != nil {
		if left := time.Until(*tv.Deadline).Round(time.Second); left > 0 {
			info += fmt.Sprintf(" | %s left", left)
		}
	}
	fmt.Fprintln(w, info)

	if len(tv.Hand) > 0 {
		fmt.Fprintf(w, "\nHand: ")
		for i, id := range tv.Hand {
			fmt.Fprintf(w, "[%d] %s  ", i+1, shortName(id))
		}
		fmt.Fprintln(w)
	}
}

func formatSlot(s net.SlotView) string {
	switch {
	case s.Attack == "":
		return "[ ]"
	case s.Defense == "":
		return fmt.Sprintf("[%s]", shortName(s.Attack))
	default:
		return fmt.Sprintf("[%s/%s]", shortName(s.Attack), shortName(s.Defense))
	}
}

func shortName(id string) string {
	if id == "" {
		return "-"
	}
	c, err := game.ParseCard(id)
	if err != nil {
		return strings.TrimSpace(id)
	}
	return c.String()
}

// PrintNotices writes store notices and round animations to w as they happen.
func PrintNotices(st *store.Store, w io.Writer) (cancel func()) {
	return st.Subscribe(func(c store.Change) {
		switch c.Kind {
		case store.ChangeNotice:
			fmt.Fprintf(w, "\n* %s\n", c.Notice)
		case store.ChangeIntent:
			switch c.Intent.Kind {
			case store.IntentSweepTable:
				fmt.Fprintln(w, "\n* Round beaten, table discarded")
			case store.IntentMoveToDefender:
				fmt.Fprintf(w, "\n* %s takes the table\n", c.Intent.Recipient)
			case store.IntentReturnToHand:
				for _, card := range c.Intent.Cards {
					fmt.Fprintf(w, "\n* %s returned to your hand\n", card)
				}
			}
		}
	})
}
