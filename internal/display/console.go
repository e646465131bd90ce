package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	countdownColor = color.New(color.FgCyan)
	warningColor   = color.New(color.FgRed, color.Bold)
	scoreColor     = color.New(color.FgGreen)
	freezeColor    = color.New(color.FgYellow)
	winnerColor    = color.New(color.FgGreen, color.Bold)
	boardColor     = color.New(color.Faint)
)

// Console renders a game as coloured lines on a terminal. The countdown is
// printed once per whole second (and whenever warning mode flips); board
// mutations are only printed in verbose mode.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool

	lastSecond int64
	lastWarn   bool
	frozen     map[int]bool
}

// NewConsole writes to w. Colour follows fatih/color's NO_COLOR handling.
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{
		w:          w,
		verbose:    verbose,
		lastSecond: -1,
		frozen:     make(map[int]bool),
	}
}

func (c *Console) boardf(format string, a ...any) {
	if !c.verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	boardColor.Fprintf(c.w, format+"\n", a...)
}

func (c *Console) CardPlaced(slot, card int) {
	c.boardf("  slot %2d ← card %d", slot, card)
}

func (c *Console) CardRemoved(slot int) {
	c.boardf("  slot %2d cleared", slot)
}

func (c *Console) TokenPlaced(agentID, slot int) {
	c.boardf("  player %d marks slot %d", agentID, slot)
}

func (c *Console) TokenRemoved(agentID, slot int) {
	c.boardf("  player %d unmarks slot %d", agentID, slot)
}

func (c *Console) SetCountdown(remaining time.Duration, warn bool) {
	// Round up so a fresh countdown prints its full length.
	second := int64((remaining + time.Second - 1) / time.Second)
	if remaining <= 0 {
		second = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if second == c.lastSecond && warn == c.lastWarn {
		return
	}
	c.lastSecond, c.lastWarn = second, warn

	if warn {
		warningColor.Fprintf(c.w, "⏱  %ds left!\n", second)
		return
	}
	countdownColor.Fprintf(c.w, "⏱  %ds\n", second)
}

func (c *Console) SetScore(agentID, score int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	scoreColor.Fprintf(c.w, "✓ Player %d scores (total %d)\n", agentID, score)
}

func (c *Console) SetFreeze(agentID int, remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case remaining > 0 && !c.frozen[agentID]:
		c.frozen[agentID] = true
		freezeColor.Fprintf(c.w, "❄ Player %d frozen for %s\n", agentID, remaining.Round(time.Millisecond))
	case remaining <= 0 && c.frozen[agentID]:
		delete(c.frozen, agentID)
		freezeColor.Fprintf(c.w, "→ Player %d back in play\n", agentID)
	}
}

func (c *Console) AnnounceWinners(winners []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	winnerColor.Fprintln(c.w, FormatWinners(winners))
}

// FormatWinners renders a winner list for humans.
func FormatWinners(winners []int) string {
	switch len(winners) {
	case 0:
		return "No winner"
	case 1:
		return fmt.Sprintf("🏆 Player %d wins!", winners[0])
	default:
		ids := make([]string, len(winners))
		for i, id := range winners {
			ids[i] = fmt.Sprintf("%d", id)
		}
		return fmt.Sprintf("🏆 Draw between players %s", strings.Join(ids, ", "))
	}
}
