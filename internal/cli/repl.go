package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/net"
)

// Player is what the REPL drives; *session.Session implements it.
type Player interface {
	Attack(ctx context.Context, card game.Card) error
	Defend(ctx context.Context, card game.Card, slot int) error
	Pass(ctx context.Context) error
	View() net.TableView
}

// REPL reads commands from in and writes the table to out.
type REPL struct {
	player Player
	in     *bufio.Reader
	out    io.Writer
}

func New(p Player, in io.Reader, out io.Writer) *REPL {
	return &REPL{player: p, in: bufio.NewReader(in), out: out}
}

// Run processes commands until quit, EOF or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.printHelp()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(r.out, "> ")
		line, err := r.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
		quit, cmdErr := r.Exec(ctx, line)
		if cmdErr != nil {
			fmt.Fprintf(r.out, "  %v\n", cmdErr)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line.
func (r *REPL) Exec(ctx context.Context, line string) (quit bool, err error) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false, nil
	}
	switch strings.ToLower(parts[0]) {
	case "a", "attack":
		if len(parts) != 2 {
			return false, errors.New("usage: a <card>")
		}
		card, err := r.handCard(parts[1])
		if err != nil {
			return false, err
		}
		if err := r.player.Attack(ctx, card); err != nil {
			return false, err
		}
	case "d", "defend":
		if len(parts) != 3 {
			return false, errors.New("usage: d <card> <slot>")
		}
		card, err := r.handCard(parts[1])
		if err != nil {
			return false, err
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 || n > game.MaxSlots {
			return false, fmt.Errorf("slot must be between 1 and %d", game.MaxSlots)
		}
		if err := r.player.Defend(ctx, card, n-1); err != nil {
			return false, err
		}
	case "p", "pass", "take":
		if err := r.player.Pass(ctx); err != nil {
			return false, err
		}
	case "s", "show":
	case "h", "help", "?":
		r.printHelp()
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, type h for help", parts[0])
	}
	Render(r.out, r.player.View())
	return false, nil
}

// handCard accepts a card id, a short name like "10h", or a 1-based hand index.
func (r *REPL) handCard(arg string) (game.Card, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		hand := r.player.View().Hand
		if n < 1 || n > len(hand) {
			return game.Card{}, fmt.Errorf("hand index must be between 1 and %d", len(hand))
		}
		return game.ParseCard(hand[n-1])
	}
	return game.ParseAny(arg)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  a <card>         attack or throw in (card id, short name or hand index)")
	fmt.Fprintln(r.out, "  d <card> <slot>  cover the attack in slot 1-6")
	fmt.Fprintln(r.out, "  p                pass, or take the table as defender")
	fmt.Fprintln(r.out, "  s                show the table")
	fmt.Fprintln(r.out, "  q                quit")
}
