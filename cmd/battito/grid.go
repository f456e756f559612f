package main

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/battito/pkg/pattern"
)

const (
	// Measures whose minimal grid is finer than this are not drawn.
	maxGridCells = 96
	// Measures beyond this are not expanded for :grid.
	maxGridMeasures = 64

	gridRest = "."
)

// renderGrid draws each measure of text on its minimal grid, one row per
// measure. Events with a probability below 100 are suffixed with "?".
func renderGrid(seq *pattern.ParsedSequence) (string, error) {
	measures, err := pattern.Expand(seq, maxGridMeasures)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, m := range measures {
		grid := pattern.MinimalGrid(m)
		if grid > maxGridCells {
			return "", fmt.Errorf("measure %d needs %d cells, limit is %d", i+1, grid, maxGridCells)
		}

		cells := make([]string, grid)
		for j := range cells {
			cells[j] = gridRest
		}
		for _, te := range pattern.TimedEvents(m, 1, pattern.Identity, grid) {
			cell := te.Event.Value
			if te.Event.Probability < 100 {
				cell += "?"
			}
			cells[te.Index-1] = cell
		}
		fmt.Fprintf(&b, "%3d | %s |\n", i+1, strings.Join(cells, " "))
	}
	return b.String(), nil
}
