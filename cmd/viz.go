package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zalepa/stipboard/stip"
)

type dataPoint struct {
	label string
	value float64
}

var validCharts = []string{
	"overview", "cost-by-year", "district-trend", "work-types", "districts",
	"counties", "programs", "mpos", "funding", "revenue",
}

// vizCmd holds the flags for the 'viz' subcommand.
type vizCmd struct {
	filterFlags
	chart string
}

func (*vizCmd) Name() string     { return "viz" }
func (*vizCmd) Synopsis() string { return "draw dashboard charts in the terminal" }
func (*vizCmd) Usage() string {
	return fmt.Sprintf(`stipboard viz [filter flags] [-chart name]

  Draws one dashboard chart as terminal bars, sparklines or a line chart.

Charts: %s

Examples:
  stipboard viz -chart cost-by-year -district 6
  stipboard viz -chart district-trend
  stipboard viz -chart funding -funding-year 2026
`, strings.Join(validCharts, ", "))
}

func (c *vizCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.register(f)
	f.StringVar(&c.chart, "chart", "overview", "chart to draw")
}

func (c *vizCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !contains(validCharts, c.chart) {
		fmt.Fprintf(os.Stderr, "invalid -chart %q; valid options: %s\n", c.chart, strings.Join(validCharts, ", "))
		return subcommands.ExitUsageError
	}

	_, _, data, err := setup(ctx)
	if err != nil {
		return fail("%v", err)
	}
	d := stip.NewDashboard(data)
	m := d.ApplyFilter(c.FilterState)
	renderViz(os.Stdout, c.chart, m, d.Filtered())
	return subcommands.ExitSuccess
}

// renderViz draws chart for the render model m. filtered holds every
// project matching m.Filter, not just the table rows.
func renderViz(w io.Writer, chart string, m stip.RenderModel, filtered []stip.ProjectRecord) {
	p := m.Projects
	switch chart {
	case "overview":
		fmt.Fprintf(w, "Projects: %s | Total cost: %s | Length: %s | Average: %s\n\n",
			formatInt(int64(p.KPIs.Count)), stip.FormatDollars(p.KPIs.TotalCost),
			stip.FormatMiles(p.KPIs.TotalMiles), stip.FormatMoney(p.KPIs.AvgCost))
		renderBars(w, "Top work types (projects)", p.WorkTypes, groupCount, formatNum)
		fmt.Fprintln(w)
		series, labels := districtSeries(filtered)
		renderTable(w, "Cost by district and FFY ($M)", series, labels, true)
		fmt.Fprintln(w)
		renderTable(w, "Funding "+stip.WindowLabel(m.Funding.Window, m.Filter.FundingYear)+" ($M)",
			fundingSeries(m.Funding), yearLabels(m.Funding.Window), false)
	case "cost-by-year":
		renderChart(w, "Cost by FFY ($M)", groupPoints(p.CostByYear))
	case "district-trend":
		series, labels := districtSeries(filtered)
		renderTable(w, "Cost by district and FFY ($M)", series, labels, true)
	case "work-types":
		renderBars(w, "Top work types (projects)", p.WorkTypes, groupCount, formatNum)
	case "districts":
		renderBars(w, "Cost by district ($M)", p.Districts, groupTotal, formatMillions)
	case "counties":
		renderBars(w, "Cost by county ($M)", p.Counties, groupTotal, formatMillions)
	case "programs":
		renderBars(w, "Top funding programs ($M)", p.Programs, groupTotal, formatMillions)
	case "mpos":
		renderBars(w, "Projects by MPO area", p.MPOs, groupCount, formatNum)
	case "funding":
		f := m.Funding
		fmt.Fprintf(w, "Available %s | Scheduled %s | Utilization %s | Federal %s\n\n",
			stip.FormatBillions(f.TotalAvailable, 1), stip.FormatBillions(f.TotalScheduled, 1),
			stip.FormatPercent(f.Utilization, 1), stip.FormatPercent(f.FederalShare, 0))
		pts := make([]dataPoint, len(f.PerYear))
		for i, y := range f.PerYear {
			pts[i] = dataPoint{label: strconv.Itoa(y.Year), value: y.Available}
		}
		renderChart(w, "Available funding by year ($M)", pts)
		fmt.Fprintln(w)
		renderTable(w, "Funding by year ($M)", fundingSeries(f), yearLabels(f.Window), false)
	case "revenue":
		r := m.Revenue
		fmt.Fprintf(w, "Total %s | Average annual %s\n\n",
			stip.FormatBillions(r.TotalRevenue, 2), stip.FormatMillions(r.AvgAnnualRevenue, 1))
		pts := make([]dataPoint, len(r.PerYear))
		for i, y := range r.PerYear {
			pts[i] = dataPoint{label: strconv.Itoa(y.Year), value: y.Total}
		}
		renderChart(w, "Revenue by year ($M)", pts)
		fmt.Fprintln(w)
		renderBars(w, "Revenue by source ($M)", r.SourceBreakdown, groupTotal, formatMillions)
	}
}

func groupTotal(g stip.Group) float64 { return g.Total }
func groupCount(g stip.Group) float64 { return float64(g.Count) }

func formatMillions(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func groupPoints(groups []stip.Group) []dataPoint {
	pts := make([]dataPoint, len(groups))
	for i, g := range groups {
		pts[i] = dataPoint{label: g.Key, value: g.Total}
	}
	return pts
}

func yearLabels(years []int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// districtSeries sums cost in millions per district and FFY. Labels are the
// FFYs present, numeric years first.
func districtSeries(records []stip.ProjectRecord) (map[string][]dataPoint, []string) {
	sums := make(map[string]map[string]float64)
	years := make(map[string]bool)
	for _, p := range records {
		if p.FFY == "" {
			continue
		}
		if sums[p.District] == nil {
			sums[p.District] = make(map[string]float64)
		}
		sums[p.District][p.FFY] += p.Cost / 1e6
		years[p.FFY] = true
	}

	labels := sortLabels(years)
	series := make(map[string][]dataPoint, len(sums))
	for district, byYear := range sums {
		name := district
		if name == "" {
			name = "(blank)"
		}
		for _, y := range labels {
			if v, ok := byYear[y]; ok {
				series[name] = append(series[name], dataPoint{label: y, value: v})
			}
		}
	}
	return series, labels
}

func fundingSeries(f stip.FundingSummary) map[string][]dataPoint {
	series := make(map[string][]dataPoint, 4)
	for _, y := range f.PerYear {
		label := strconv.Itoa(y.Year)
		series["Available"] = append(series["Available"], dataPoint{label, y.Available})
		series["Scheduled"] = append(series["Scheduled"], dataPoint{label, y.Scheduled})
		series[stip.Federal] = append(series[stip.Federal], dataPoint{label, y.Federal})
		series[stip.NonFederal] = append(series[stip.NonFederal], dataPoint{label, y.NonFederal})
	}
	return series
}

// sortLabels orders fiscal year labels the way the year charts do.
func sortLabels(set map[string]bool) []string {
	groups := make([]stip.Group, 0, len(set))
	for k := range set {
		groups = append(groups, stip.Group{Key: k})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	stip.SortByYearAsc(groups)
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
	}
	return labels
}

const barWidth = 40

// renderBars draws one horizontal bar per group, scaled to the largest
// value.
func renderBars(w io.Writer, title string, groups []stip.Group, value func(stip.Group) float64, format func(float64) string) {
	fmt.Fprintln(w, title)
	if len(groups) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}

	maxName, maxVal := 10, 0.0
	for _, g := range groups {
		if n := len(displayKey(g.Key)); n > maxName {
			maxName = n
		}
		if v := value(g); v > maxVal {
			maxVal = v
		}
	}

	rowFmt := fmt.Sprintf("%%-%ds  %%-%ds %%s\n", maxName, barWidth)
	for _, g := range groups {
		v := value(g)
		n := 0
		if maxVal > 0 && v > 0 {
			n = int(math.Round(v / maxVal * barWidth))
			if n == 0 {
				n = 1
			}
		}
		fmt.Fprintf(w, rowFmt, displayKey(g.Key), strings.Repeat("█", n), format(v))
	}
}

func displayKey(k string) string {
	if k == "" {
		return "(blank)"
	}
	return k
}

func renderTable(w io.Writer, title string, series map[string][]dataPoint, labels []string, includeTotal bool) {
	// Sort entity names.
	names := make([]string, 0, len(series))
	for k := range series {
		names = append(names, k)
	}
	sort.Strings(names)

	// Compute the total row, shown last.
	var totalPoints []dataPoint
	if includeTotal && len(names) > 1 {
		agg := make(map[string]float64)
		for _, pts := range series {
			for _, p := range pts {
				agg[p.label] += p.value
			}
		}
		for _, l := range labels {
			if v, ok := agg[l]; ok {
				totalPoints = append(totalPoints, dataPoint{label: l, value: v})
			}
		}
	}

	maxName := 10
	for _, n := range names {
		if len(n) > maxName {
			maxName = len(n)
		}
	}

	nPeriods := len(labels)
	span := "no periods"
	if nPeriods > 0 {
		span = fmt.Sprintf("%s to %s (%d periods)", labels[0], labels[nPeriods-1], nPeriods)
	}

	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "Trend: %s\n\n", span)

	rowFmt := fmt.Sprintf("%%-%ds  %%10s   %%s\n", maxName)
	fmt.Fprintf(w, rowFmt, "Name", "Latest", "Trend")
	fmt.Fprintln(w, strings.Repeat("─", maxName+2+10+3+nPeriods))

	for _, name := range names {
		vals := alignValues(series[name], labels)
		fmt.Fprintf(w, rowFmt, name, formatNum(lastNonNaN(vals)), sparkline(vals))
	}

	if len(totalPoints) > 0 {
		fmt.Fprintln(w, strings.Repeat("─", maxName+2+10+3+nPeriods))
		vals := alignValues(totalPoints, labels)
		fmt.Fprintf(w, rowFmt, "TOTAL", formatNum(lastNonNaN(vals)), sparkline(vals))
	}
}

// alignValues maps dataPoints to a slice aligned with labels, filling gaps with NaN.
func alignValues(pts []dataPoint, labels []string) []float64 {
	lookup := make(map[string]float64, len(pts))
	for _, p := range pts {
		lookup[p.label] = p.value
	}
	vals := make([]float64, len(labels))
	for i, l := range labels {
		if v, ok := lookup[l]; ok {
			vals[i] = v
		} else {
			vals[i] = math.NaN()
		}
	}
	return vals
}

func lastNonNaN(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

func sparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(blocks)

	// Find min/max ignoring NaN.
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) {
		return strings.Repeat(" ", len(values))
	}

	spread := max - min
	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := 0
		if spread > 0 {
			idx = int((v - min) / spread * float64(n-1))
			if idx >= n {
				idx = n - 1
			}
		} else {
			idx = n / 2
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

// renderChart draws points, already in label order, as a line chart.
func renderChart(w io.Writer, title string, points []dataPoint) {
	var filtered []dataPoint
	for _, p := range points {
		if !math.IsNaN(p.value) {
			filtered = append(filtered, p)
		}
	}
	fmt.Fprintln(w, title)
	if len(filtered) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}
	points = filtered
	fmt.Fprintln(w)

	height := 15
	nPoints := len(points)

	// Fit the data area in about 100 columns.
	labelWidth := 10
	available := 100 - labelWidth
	colWidth := available / nPoints
	if colWidth > 8 {
		colWidth = 8
	}
	if colWidth < 3 {
		colWidth = 3
	}

	minVal, maxVal := points[0].value, points[0].value
	for _, p := range points {
		if p.value < minVal {
			minVal = p.value
		}
		if p.value > maxVal {
			maxVal = p.value
		}
	}
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = 1
		minVal -= 0.5
		maxVal += 0.5
	}

	// Map each point to a row (0 = bottom, height-1 = top).
	pointRows := make([]int, nPoints)
	for i, p := range points {
		row := int(math.Round((p.value - minVal) / valRange * float64(height-1)))
		if row < 0 {
			row = 0
		}
		if row >= height {
			row = height - 1
		}
		pointRows[i] = row
	}

	totalWidth := nPoints * colWidth
	grid := make([][]rune, height)
	for r := 0; r < height; r++ {
		grid[r] = make([]rune, totalWidth)
		for c := range grid[r] {
			grid[r][c] = ' '
		}
	}

	for i := 0; i < nPoints; i++ {
		col := i*colWidth + colWidth/2
		grid[pointRows[i]][col] = '●'

		// Connect to the next point with · by linear interpolation.
		if i < nPoints-1 {
			startCol := col
			endCol := (i+1)*colWidth + colWidth/2
			startRow := pointRows[i]
			endRow := pointRows[i+1]
			colSpan := endCol - startCol
			for c := startCol + 1; c < endCol; c++ {
				t := float64(c-startCol) / float64(colSpan)
				r := int(math.Round(float64(startRow) + t*float64(endRow-startRow)))
				if r < 0 {
					r = 0
				}
				if r >= height {
					r = height - 1
				}
				if grid[r][c] == ' ' {
					grid[r][c] = '·'
				}
			}
		}
	}

	// Y-axis labels: 5 evenly spaced.
	yLabels := make(map[int]string)
	for i := 0; i < 5; i++ {
		row := int(math.Round(float64(i) / 4.0 * float64(height-1)))
		val := minVal + float64(row)/float64(height-1)*valRange
		yLabels[row] = formatCompact(val)
	}

	for r := height - 1; r >= 0; r-- {
		fmt.Fprintf(w, "%8s │%s\n", yLabels[r], string(grid[r]))
	}
	fmt.Fprintf(w, "%8s └%s\n", "", strings.Repeat("─", totalWidth))

	labelEvery := 1
	if colWidth < 8 {
		labelEvery = (8 + colWidth - 1) / colWidth
	}
	xLine := make([]byte, totalWidth)
	for i := range xLine {
		xLine[i] = ' '
	}
	for i := 0; i < nPoints; i += labelEvery {
		label := points[i].label
		pos := i*colWidth + colWidth/2 - len(label)/2
		if pos < 0 {
			pos = 0
		}
		for j := 0; j < len(label) && pos+j < totalWidth; j++ {
			xLine[pos+j] = label[j]
		}
	}
	fmt.Fprintf(w, "%8s  %s\n", "", string(xLine))
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	if v == float64(int64(v)) && math.Abs(v) < 1e15 {
		return formatInt(int64(v))
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// numbers groups digits the way the reports print counts, e.g. "1,234,567".
var numbers = message.NewPrinter(language.English)

func formatInt(v int64) string {
	return numbers.Sprintf("%d", v)
}

func formatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 0, 64) + "k"
	case abs >= 10 || v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
