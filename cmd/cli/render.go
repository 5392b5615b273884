package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/eflab/nwbtrials/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printTable(w io.Writer, t *table.Table) {
	fmt.Fprintln(w, t.Render())
}

func renderFileHeader(w io.Writer, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(path), mutedStyle.Render("("+humanize.Bytes(uint64(info.Size()))+")"))
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func renderIndex(w io.Writer, rows []models.IndexRow) {
	t := newTable("Trial", "Series", "Shape")
	for _, r := range rows {
		dims := make([]string, len(r.Shape))
		for i, d := range r.Shape {
			dims[i] = strconv.Itoa(d)
		}
		t.Row(strconv.Itoa(r.Trial), r.Identifier, strings.Join(dims, " x "))
	}
	printTable(w, t)
	fmt.Fprintf(w, "%s series\n", humanize.Comma(int64(len(rows))))
}

func renderRates(w io.Writer, rates []models.RateStats) {
	t := newTable("Trial", "Duration (s)", "Start (s)", "End (s)", "Mean (Hz)", "Median (Hz)",
		"Mean dt (ms)", "Median dt (ms)", "dt std (ms)", "Samples")
	for _, r := range rates {
		r = r.Rounded()
		t.Row(
			strconv.Itoa(r.Trial),
			formatFloat(r.Duration, 3),
			formatFloat(r.StartOffset, 3),
			formatFloat(r.EndOffset, 3),
			formatFloat(r.MeanRate, 2),
			formatFloat(r.MedianRate, 2),
			formatFloat(r.MeanDtMs, 3),
			formatFloat(r.MedianDtMs, 3),
			formatFloat(r.DtStdMs, 4),
			humanize.Comma(int64(r.NumSamples)),
		)
	}
	printTable(w, t)
}

func renderIntervals(w io.Writer, tbl *models.IntervalTable, limit int) {
	headers := append([]string{"Trial", "Start (s)", "Stop (s)"}, tbl.Columns...)
	t := newTable(headers...)
	for i, row := range tbl.Rows {
		if limit > 0 && i >= limit {
			break
		}
		cells := []string{strconv.Itoa(row.Trial), formatFloat(row.Start, 3), formatFloat(row.Stop, 3)}
		for _, col := range tbl.Columns {
			if v, ok := row.Features[col]; ok {
				cells = append(cells, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				cells = append(cells, row.Labels[col])
			}
		}
		t.Row(cells...)
	}
	fmt.Fprintln(w, titleStyle.Render(tbl.Name))
	printTable(w, t)
	if limit > 0 && len(tbl.Rows) > limit {
		fmt.Fprintf(w, "... and %s more rows\n", humanize.Comma(int64(len(tbl.Rows)-limit)))
	}
}

// coverage is the fraction of samples carrying a stimulus value.
func coverage(stim map[string][]float64) string {
	if len(stim) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(stim))
	for k := range stim {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	v := stim[keys[0]]
	if len(v) == 0 {
		return "-"
	}
	n := 0
	for _, x := range v {
		if !math.IsNaN(x) {
			n++
		}
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(len(v)))
}

func renderExtraction(w io.Writer, ex *models.Extraction) {
	t := newTable("Trial", "Samples", "Start (s)", "End (s)", "Channels", "Stimulus")
	for _, n := range ex.TrialNumbers() {
		tr := ex.Trials[n]
		start, end := math.NaN(), math.NaN()
		if len(tr.Time) > 0 {
			start, end = tr.Time[0], tr.Time[len(tr.Time)-1]
		}
		chans := make([]string, 0, len(tr.Channels))
		for _, id := range tr.ChannelIDs() {
			r, c := tr.Channels[id].Dims()
			chans = append(chans, fmt.Sprintf("%s %dx%d", id, r, c))
		}
		t.Row(strconv.Itoa(n), humanize.Comma(int64(tr.NumSamples())),
			formatFloat(start, 3), formatFloat(end, 3), strings.Join(chans, ", "), coverage(tr.Stim))
	}
	fmt.Fprintf(w, "Anchored on trial %d at %s s\n", ex.ReferenceTrial, formatFloat(ex.Anchor, 6))
	printTable(w, t)
}

func renderMasks(w io.Writer, m *models.ROIMasks) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(m.Plane), mutedStyle.Render(m.Kind.String()))
	t := newTable("ROI", "Nonzero", "Total weight")
	for i, id := range m.ROIIDs {
		var nonzero int
		var total float64
		if m.Kind == models.MaskPixel {
			if i < len(m.Pixels) {
				for _, p := range m.Pixels[i] {
					nonzero++
					total += float64(p.Weight)
				}
			}
		} else {
			for _, v := range m.ROI(i) {
				if v != 0 {
					nonzero++
					total += v
				}
			}
		}
		t.Row(strconv.FormatInt(id, 10), humanize.Comma(int64(nonzero)), formatFloat(total, 3))
	}
	printTable(w, t)
}

func renderPlanes(w io.Writer, planes []models.PlaneSummary) {
	t := newTable("Plane", "ROIs", "Mask")
	for _, p := range planes {
		t.Row(p.Name, humanize.Comma(int64(p.NumROIs)), p.Kind.String())
	}
	printTable(w, t)
}
