package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/phil-mansfield/table"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// writeTable writes h as whitespace-separated columns: tick, then one column
// per channel. The header line is a comment.
func writeTable(fname string, h *sim.History) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# tick %s\n", strings.Join(h.Channels(), " "))
	for _, s := range h.Recent() {
		fmt.Fprintf(bw, "%d", s.Tick)
		for _, v := range s.Values {
			fmt.Fprintf(bw, " %.17g", v)
		}
		fmt.Fprintln(bw)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// writeCSV exports h with a tick,channel... header row.
func writeCSV(fname string, h *sim.History) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(append([]string{"tick"}, h.Channels()...)); err != nil {
		return err
	}
	for _, s := range h.Recent() {
		row := make([]string, 0, len(s.Values)+1)
		row = append(row, strconv.Itoa(s.Tick))
		for _, v := range s.Values {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// deviation summarises how a replayed history differs from a dumped one.
type deviation struct {
	rows     int // rows compared
	missing  int // rows present in only one of the two
	tickSkew int // rows whose tick columns disagree
	maxAbs   float64
	channel  string // channel holding maxAbs
}

func (d deviation) identical() bool {
	return d.missing == 0 && d.tickSkew == 0 && d.maxAbs == 0
}

func (d deviation) String() string {
	return fmt.Sprintf("rows=%d missing=%d tick_skew=%d max_abs=%.3g channel=%s",
		d.rows, d.missing, d.tickSkew, d.maxAbs, d.channel)
}

// compareTable reads a table written by writeTable and compares it with h
// row by row.
func compareTable(fname string, h *sim.History) (deviation, error) {
	channels := h.Channels()
	idxs := make([]int, len(channels)+1)
	for i := range idxs {
		idxs[i] = i
	}
	cols, err := table.ReadTable(fname, idxs, nil)
	if err != nil {
		return deviation{}, fmt.Errorf("read %s: %w", fname, err)
	}

	recent := h.Recent()
	n := len(cols[0])
	d := deviation{rows: min(n, len(recent)), missing: absInt(n - len(recent))}
	for r := 0; r < d.rows; r++ {
		s := recent[r]
		if int(cols[0][r]) != s.Tick {
			d.tickSkew++
		}
		for c, ch := range channels {
			diff := math.Abs(cols[c+1][r] - s.Values[c])
			if diff > d.maxAbs {
				d.maxAbs = diff
				d.channel = ch
			}
		}
	}
	return d, nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
