package cmd

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/stipboard/stip"
)

const (
	pageWidth  = 8.5 * vg.Inch
	pageHeight = 11 * vg.Inch
	pdfMargin  = 0.75 * vg.Inch
)

var chartBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	filterFlags
	out string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "write the dashboard charts to a PDF" }
func (*reportCmd) Usage() string {
	return `stipboard report [filter flags] [-o stip-report.pdf]

  Writes a summary page with per-district trends followed by one page per
  chart. The page count is checked by reading the file back.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.register(f)
	f.StringVar(&c.out, "o", "stip-report.pdf", "output PDF file path")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, log, data, err := setup(ctx)
	if err != nil {
		return fail("%v", err)
	}
	d := stip.NewDashboard(data)
	m := d.ApplyFilter(c.FilterState)

	pages, err := writeReport(c.out, m, d.Filtered())
	if err != nil {
		return fail("writing PDF: %v", err)
	}
	if err := verifyPageCount(c.out, pages); err != nil {
		return fail("%s: %v", c.out, err)
	}
	log.Info("report written", "path", c.out, "pages", pages)
	fmt.Printf("wrote %s (%d pages)\n", c.out, pages)
	return subcommands.ExitSuccess
}

// pdfReport tracks the pages drawn on a vgpdf canvas.
type pdfReport struct {
	c     *vgpdf.Canvas
	pages int
}

func (r *pdfReport) newPage() {
	if r.pages > 0 {
		r.c.NextPage()
	}
	r.pages++
}

// writeReport draws the report for m and returns the number of pages.
func writeReport(path string, m stip.RenderModel, filtered []stip.ProjectRecord) (int, error) {
	r := &pdfReport{c: vgpdf.New(pageWidth, pageHeight)}

	series, labels := districtSeries(filtered)
	r.drawSummaryPages(m, series, labels)

	p := m.Projects
	r.newPage()
	drawChartPage(r.c, "Cost by FFY ($M)", groupPoints(p.CostByYear))
	r.newPage()
	drawBarPage(r.c, "Top work types (projects)", p.WorkTypes, groupCount)
	r.newPage()
	drawBarPage(r.c, "Cost by district ($M)", p.Districts, groupTotal)
	if len(p.Programs) > 0 {
		r.newPage()
		drawBarPage(r.c, "Top funding programs ($M)", p.Programs, groupTotal)
	}

	funding := make([]dataPoint, len(m.Funding.PerYear))
	for i, y := range m.Funding.PerYear {
		funding[i] = dataPoint{label: strconv.Itoa(y.Year), value: y.Available}
	}
	r.newPage()
	drawChartPage(r.c, "Available funding by year ($M)", funding)

	revenue := make([]dataPoint, len(m.Revenue.PerYear))
	for i, y := range m.Revenue.PerYear {
		revenue[i] = dataPoint{label: strconv.Itoa(y.Year), value: y.Total}
	}
	r.newPage()
	drawChartPage(r.c, "Revenue by year ($M)", revenue)
	r.newPage()
	drawBarPage(r.c, "Revenue by source ($M)", m.Revenue.SourceBreakdown, groupTotal)

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if _, err := r.c.WriteTo(f); err != nil {
		f.Close()
		return 0, err
	}
	return r.pages, f.Close()
}

// verifyPageCount reads the written PDF back and checks its page count.
func verifyPageCount(path string, want int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := pdfcpu.Read(f, model.NewDefaultConfiguration())
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("page count: %w", err)
	}
	if ctx.PageCount != want {
		return fmt.Errorf("pdf has %d pages, want %d", ctx.PageCount, want)
	}
	return nil
}

// pdfText folds text to what the embedded Liberation fonts can draw.
func pdfText(s string) string {
	return stip.CleanText(s)
}

const (
	summaryRowHeight = 0.30 * vg.Inch
	nameColWidth     = 2.2 * vg.Inch
	valueColWidth    = 0.9 * vg.Inch
)

// drawSummaryPages writes the headline figures and one sparkline row per
// district, continuing onto further pages as needed.
func (r *pdfReport) drawSummaryPages(m stip.RenderModel, series map[string][]dataPoint, labels []string) {
	usableW := pageWidth - 2*pdfMargin
	sparkColWidth := usableW - nameColWidth - valueColWidth

	span := "no fiscal years"
	if len(labels) > 0 {
		span = fmt.Sprintf("FFY %s to %s (%d years)", labels[0], labels[len(labels)-1], len(labels))
	}

	k := m.Projects.KPIs
	f := m.Funding
	rev := m.Revenue
	headline := []string{
		fmt.Sprintf("Projects: %s   Total cost: %s   Length: %s   Average: %s",
			formatInt(int64(k.Count)), stip.FormatMoney(k.TotalCost), stip.FormatMiles(k.TotalMiles), stip.FormatMoney(k.AvgCost)),
		fmt.Sprintf("Funding %s: available %s, scheduled %s, utilization %s, federal %s",
			stip.WindowLabel(f.Window, m.Filter.FundingYear), stip.FormatBillions(f.TotalAvailable, 1),
			stip.FormatBillions(f.TotalScheduled, 1), stip.FormatPercent(f.Utilization, 1), stip.FormatPercent(f.FederalShare, 0)),
		fmt.Sprintf("Revenue %s: total %s, average annual %s",
			stip.WindowLabel(rev.Window, m.Filter.RevenueYear), stip.FormatBillions(rev.TotalRevenue, 2),
			stip.FormatMillions(rev.AvgAnnualRevenue, 1)),
	}
	filters := "Filters: none"
	if active := activeFilters(m.Filter); len(active) > 0 {
		filters = "Filters: "
		for i, a := range active {
			if i > 0 {
				filters += ", "
			}
			filters += a
		}
	}

	names := sortedEntityNames(series)
	type row struct {
		name   string
		points []dataPoint
		isSep  bool
	}
	var rows []row
	for _, n := range names {
		rows = append(rows, row{name: n, points: series[n]})
	}
	if len(names) > 1 {
		agg := make(map[string]float64)
		for _, pts := range series {
			for _, p := range pts {
				agg[p.label] += p.value
			}
		}
		var total []dataPoint
		for _, l := range labels {
			if v, ok := agg[l]; ok {
				total = append(total, dataPoint{label: l, value: v})
			}
		}
		rows = append(rows, row{isSep: true}, row{name: "TOTAL", points: total})
	}

	rowIdx := 0
	first := true
	for first || rowIdx < len(rows) {
		r.newPage()
		dc := draw.New(r.c)
		area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

		var yTop vg.Length
		if first {
			yTop = area.Max.Y
			fillText(area, "STIP Dashboard", vg.Points(16), area.Min.X, yTop-vg.Points(16), color.Black)
			fillText(area, pdfText(filters), vg.Points(9), area.Min.X, yTop-0.4*vg.Inch, color.Gray{Y: 100})
			y := yTop - 0.7*vg.Inch
			for _, line := range headline {
				fillText(area, pdfText(line), vg.Points(10), area.Min.X, y, color.Black)
				y -= 0.25 * vg.Inch
			}

			y -= 0.2 * vg.Inch
			fillText(area, "Cost by district ($M), "+span, vg.Points(11), area.Min.X, y, color.Black)
			headerY := y - 0.3*vg.Inch
			fillText(area, "District", vg.Points(10), area.Min.X, headerY, color.Gray{Y: 80})
			fillText(area, "Latest", vg.Points(10), area.Min.X+nameColWidth, headerY, color.Gray{Y: 80})
			fillText(area, "Trend", vg.Points(10), area.Min.X+nameColWidth+valueColWidth, headerY, color.Gray{Y: 80})

			sepY := headerY - vg.Points(6)
			strokeHLine(area, area.Min.X, area.Min.X+usableW, sepY, color.Gray{Y: 180})
			yTop = sepY - vg.Points(4)
			first = false
		} else {
			yTop = area.Max.Y - vg.Points(8)
			fillText(area, "Cost by district (continued)", vg.Points(10), area.Min.X, yTop, color.Gray{Y: 100})
			yTop -= 0.25 * vg.Inch
		}

		rowsThisPage := int((yTop - area.Min.Y) / summaryRowHeight)
		drawn := 0
		for rowIdx < len(rows) && drawn < rowsThisPage {
			rw := rows[rowIdx]
			rowIdx++
			if rw.isSep {
				y := yTop - vg.Length(drawn)*summaryRowHeight - vg.Points(4)
				strokeHLine(area, area.Min.X, area.Min.X+usableW, y, color.Gray{Y: 180})
				continue
			}
			y := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight*0.65
			fillText(area, pdfText(rw.name), vg.Points(9), area.Min.X, y, color.Black)

			vals := alignValues(rw.points, labels)
			fillText(area, formatNum(lastNonNaN(vals)), vg.Points(9), area.Min.X+nameColWidth, y, color.Black)

			sparkX := area.Min.X + nameColWidth + valueColWidth
			sparkY := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight + vg.Points(2)
			sparkArea := draw.Canvas{
				Canvas: area.Canvas,
				Rectangle: vg.Rectangle{
					Min: vg.Point{X: sparkX, Y: sparkY},
					Max: vg.Point{X: sparkX + sparkColWidth, Y: sparkY + summaryRowHeight - vg.Points(3)},
				},
			}
			drawSparkline(sparkArea, vals)
			drawn++
		}
	}
}

func sortedEntityNames(series map[string][]dataPoint) []string {
	set := make(map[string]bool, len(series))
	for k := range series {
		set[k] = true
	}
	return sortLabels(set)
}

func drawSparkline(c draw.Canvas, vals []float64) {
	var pts plotter.XYs
	for i, v := range vals {
		if !math.IsNaN(v) {
			pts = append(pts, plotter.XY{X: float64(i), Y: v})
		}
	}
	if len(pts) < 2 {
		return
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	p.X.Min = 0
	p.X.Max = float64(len(vals) - 1)
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts {
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	pad := (maxY - minY) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	p.Draw(c)
}

// drawChartPage draws points, in label order, as a line chart filling the
// page. Pages with no data are left blank apart from the title.
func drawChartPage(c *vgpdf.Canvas, title string, points []dataPoint) {
	p := plot.New()
	p.Title.Text = pdfText(title)
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White

	var pts plotter.XYs
	labels := make([]string, len(points))
	for i, dp := range points {
		labels[i] = dp.label
		if !math.IsNaN(dp.value) {
			pts = append(pts, plotter.XY{X: float64(i), Y: dp.value})
		}
	}

	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return
		}
		line.Color = chartBlue
		line.Width = vg.Points(2)

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return
		}
		scatter.Color = chartBlue
		scatter.Radius = vg.Points(3)
		scatter.Shape = draw.CircleGlyph{}

		p.Add(line, scatter, plotter.NewGrid())
	}

	p.X.Tick.Marker = labelTicks(labels)
	p.X.Min = -0.5
	p.X.Max = math.Max(float64(len(labels))-0.5, 0.5)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	p.Y.Tick.Marker = numTicks{}

	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	p.Draw(area)
}

// drawBarPage draws one vertical bar per group.
func drawBarPage(c *vgpdf.Canvas, title string, groups []stip.Group, value func(stip.Group) float64) {
	p := plot.New()
	p.Title.Text = pdfText(title)
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White

	if len(groups) > 0 {
		vals := make(plotter.Values, len(groups))
		names := make([]string, len(groups))
		for i, g := range groups {
			vals[i] = value(g)
			names[i] = pdfText(displayKey(g.Key))
		}
		width := (pageWidth - 3*pdfMargin) / vg.Length(2*len(groups))
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return
		}
		bars.Color = chartBlue
		bars.LineStyle.Width = 0
		p.Add(bars, plotter.NewGrid())
		p.NominalX(names...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
		p.Y.Min = 0
		p.Y.Tick.Marker = numTicks{}
	}

	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	p.Draw(area)
}

type labelTicks []string

func (lt labelTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	n := len(lt)
	if n == 0 {
		return ticks
	}

	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}

	for i := 0; i < n; i++ {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 {
			t.Label = lt[i]
		}
		ticks = append(ticks, t)
	}
	return ticks
}

type numTicks struct{}

func (numTicks) Ticks(min, max float64) []plot.Tick {
	t := plot.DefaultTicks{}
	ticks := t.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatCompact(ticks[i].Value)
		}
	}
	return ticks
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
