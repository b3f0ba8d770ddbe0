package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/subcommands"

	"github.com/zalepa/stipboard/stip"
)

//go:embed templates/*.md
var templates embed.FS

// summaryView is the data handed to the summary templates.
type summaryView struct {
	stip.RenderModel
	Active        []string
	Rows          []stip.ProjectRecord
	FundingWindow string
	RevenueWindow string
}

var templateFuncs = template.FuncMap{
	"money":    stip.FormatMoney,
	"dollars":  stip.FormatDollars,
	"millions": func(v float64) string { return stip.FormatMillions(v, 1) },
	"billions": stip.FormatBillions,
	"percent":  stip.FormatPercent,
	"miles":    stip.FormatMiles,
	"count":    func(n int) string { return formatInt(int64(n)) },
	"fixed":    func(v float64, d int) string { return strconv.FormatFloat(v, 'f', d, 64) },
	"cell":     markdownCell,
	"join":     strings.Join,
}

// markdownCell keeps a value inside one table cell.
func markdownCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// activeFilters lists the non-default criteria as name=value pairs.
func activeFilters(f stip.FilterState) []string {
	var out []string
	add := func(name, v string) {
		if v != "" && v != stip.Wildcard {
			out = append(out, name+"="+v)
		}
	}
	add("district", f.District)
	add("ffy", f.FFY)
	add("work-type", f.WorkType)
	add("county", f.County)
	add("funding-year", f.FundingYear)
	add("revenue-year", f.RevenueYear)
	add("job", f.Job)
	add("search", f.Search)
	return out
}

// renderSummary renders the markdown report for m, listing at most rows
// projects.
func renderSummary(m stip.RenderModel, years []int, rows int) (string, error) {
	tmpl, err := template.New("summary.md").Funcs(templateFuncs).ParseFS(templates, "templates/*.md")
	if err != nil {
		return "", fmt.Errorf("parse templates: %w", err)
	}

	v := summaryView{
		RenderModel:   m,
		Active:        activeFilters(m.Filter),
		Rows:          m.Projects.Rows,
		FundingWindow: stip.WindowLabel(years, m.Filter.FundingYear),
		RevenueWindow: stip.WindowLabel(years, m.Filter.RevenueYear),
	}
	if rows >= 0 && len(v.Rows) > rows {
		v.Rows = v.Rows[:rows]
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, "summary.md", v); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return b.String(), nil
}

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	filterFlags
	raw    bool
	asJSON bool
	rows   int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the dashboard KPIs and breakdowns" }
func (*summaryCmd) Usage() string {
	return `stipboard summary [filter flags] [-rows n] [-raw | -json]

  Loads the projects, funding and revenue tables and prints the dashboard
  for the selected filters as a markdown report.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.register(f)
	f.BoolVar(&c.raw, "raw", false, "print the markdown source instead of rendering it")
	f.BoolVar(&c.asJSON, "json", false, "print the full render model as JSON")
	f.IntVar(&c.rows, "rows", 20, "number of project rows to list (-1 for all)")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, _, data, err := setup(ctx)
	if err != nil {
		return fail("%v", err)
	}

	m := stip.NewDashboard(data).ApplyFilter(c.FilterState)

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fail("encode summary: %v", err)
		}
		return subcommands.ExitSuccess
	}

	md, err := renderSummary(m, data.Years, c.rows)
	if err != nil {
		return fail("%v", err)
	}
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
