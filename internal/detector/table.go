package detector

import (
	"fmt"
	"io"
	"strings"

	"github.com/wsuduce/ghost-rank/domain/ghost"
)

// WriteTopTable prints the top-n detections by invariant magnitude as a
// fixed-width console table. Perfect-square invariants get a ✓ beside
// their integer root.
func WriteTopTable(w io.Writer, ghosts []ghost.Ghost, n int) {
	if n > len(ghosts) {
		n = len(ghosts)
	}

	rule := strings.Repeat("-", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "TOP %d GHOSTS (by |Ш|)\n", n)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-20s %-12s %-10s %-8s %-12s\n", "Label", "Conductor", "|Ш|", "√|Ш|", "S")
	fmt.Fprintln(w, rule)

	for _, g := range ghosts[:n] {
		root, perfect := g.SqrtSha()
		rootCell := fmt.Sprintf("%d", root)
		if perfect {
			rootCell += "✓"
		}
		fmt.Fprintf(w, "%-20s %-12d %-10.0f %-8s %-12.6f\n",
			g.Label, g.Conductor, g.Sha, rootCell, g.Stability)
	}
}
