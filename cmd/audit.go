package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/subcommands"

	"github.com/zalepa/stipboard/stip"
)

// auditCmd holds the flags for the 'audit' subcommand.
type auditCmd struct {
	raw bool
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "report header and spelling problems in the source tables" }
func (*auditCmd) Usage() string {
	return `stipboard audit [-raw]

  Reads the three source tables and reports columns that no field reads,
  projects without a job number or fiscal year, and counties or work types
  spelled more than one way.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print the markdown source instead of rendering it")
}

// tableAudit is what the audit found in one source table.
type tableAudit struct {
	source    string
	location  string
	rows      int
	unmatched []string
	err       error
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, log, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	client := httpClient(cfg)
	opts := cfg.ParseOptions()
	src := cfg.StipSources()

	var tables []tableAudit
	var projects []stip.ProjectRecord
	for _, s := range []struct {
		name, loc string
		known     []string
	}{
		{"projects", src.Projects, stip.ProjectHeaders(opts)},
		{"funding", src.Funding, stip.FundingHeaders(opts.Years)},
		{"revenue", src.Revenue, stip.RevenueHeaders(opts.Years)},
	} {
		ta := tableAudit{source: s.name, location: s.loc}
		data, err := stip.Fetch(ctx, client, s.loc)
		if err == nil {
			var rows []stip.Row
			rows, err = stip.ReadTable(stip.SourceName(s.loc), data)
			ta.rows = len(rows)
			ta.unmatched = stip.UnmatchedHeaders(rows, s.known)
			if s.name == "projects" {
				projects = stip.ParseProjects(rows, opts)
			}
		}
		if err != nil {
			log.Warn("source unreadable", "source", s.name, "location", s.loc, "error", err)
			ta.err = err
		}
		tables = append(tables, ta)
	}

	md := auditReport(tables, projects)
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}

// normalizeLabel folds a label to its comparison form: upper case, letters
// and digits only, single spaces.
func normalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(stip.CleanText(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '/' || r == '&':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// countySuffixes are tried longest first so "COUNTY" wins over "CO".
var countySuffixes = []string{"COUNTY", "CO"}

// countyKey strips a trailing county designation from a normalized name.
func countyKey(name string) string {
	n := normalizeLabel(name)
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(n, " "+suffix) {
			return n[:len(n)-len(suffix)-1]
		}
	}
	return n
}

type spellingVariant struct {
	field    string
	keeper   string   // most used spelling
	others   []string // in descending use
	counts   map[string]int
	lastFFYs map[string]string
}

// findVariants groups the values of one field by key and reports every group
// spelled more than one way. The keeper is the most used spelling, then the
// one seen in the latest fiscal year.
func findVariants(records []stip.ProjectRecord, field string, value func(stip.ProjectRecord) string, key func(string) string) []spellingVariant {
	type info struct {
		count   int
		lastFFY string
	}
	// key -> spelling -> info
	groups := make(map[string]map[string]*info)
	for _, p := range records {
		v := value(p)
		k := key(v)
		if k == "" {
			continue
		}
		if groups[k] == nil {
			groups[k] = make(map[string]*info)
		}
		in := groups[k][v]
		if in == nil {
			in = &info{}
			groups[k][v] = in
		}
		in.count++
		if p.FFY > in.lastFFY {
			in.lastFFY = p.FFY
		}
	}

	var variants []spellingVariant
	for _, spellings := range groups {
		if len(spellings) < 2 {
			continue
		}
		names := make([]string, 0, len(spellings))
		for n := range spellings {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			a, b := spellings[names[i]], spellings[names[j]]
			if a.count != b.count {
				return a.count > b.count
			}
			if a.lastFFY != b.lastFFY {
				return a.lastFFY > b.lastFFY
			}
			return names[i] < names[j]
		})

		v := spellingVariant{
			field:    field,
			keeper:   names[0],
			others:   names[1:],
			counts:   make(map[string]int, len(names)),
			lastFFYs: make(map[string]string, len(names)),
		}
		for _, n := range names {
			v.counts[n] = spellings[n].count
			v.lastFFYs[n] = spellings[n].lastFFY
		}
		variants = append(variants, v)
	}

	sort.Slice(variants, func(i, j int) bool { return variants[i].keeper < variants[j].keeper })
	return variants
}

func formatUse(count int, lastFFY string) string {
	if count == 1 {
		return fmt.Sprintf("1 project, FFY %s", orDash(lastFFY))
	}
	return fmt.Sprintf("%d projects, latest FFY %s", count, orDash(lastFFY))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// auditReport renders the findings as markdown.
func auditReport(tables []tableAudit, projects []stip.ProjectRecord) string {
	var b strings.Builder
	b.WriteString("# Source audit\n\n")

	b.WriteString("| Source | Location | Rows | Unread columns |\n|---|---|---:|---|\n")
	for _, t := range tables {
		cols := "-"
		switch {
		case t.err != nil:
			cols = "error: " + t.err.Error()
		case len(t.unmatched) > 0:
			cols = strings.Join(t.unmatched, ", ")
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", t.source, markdownCell(t.location), t.rows, markdownCell(cols))
	}

	var noJob, noFFY int
	for _, p := range projects {
		if p.Job == "" {
			noJob++
		}
		if p.FFY == "" {
			noFFY++
		}
	}
	fmt.Fprintf(&b, "\n## Projects\n\n- %d without a job number\n- %d without a fiscal year\n", noJob, noFFY)

	variants := append(
		findVariants(projects, "County", func(p stip.ProjectRecord) string { return p.County }, countyKey),
		findVariants(projects, "Type of work", func(p stip.ProjectRecord) string { return p.WorkType }, normalizeLabel)...,
	)
	if len(variants) == 0 {
		b.WriteString("\nNo spelling variants found.\n")
		return b.String()
	}

	b.WriteString("\n## Spelling variants\n\n| Field | Keep | Use | Variant | Use |\n|---|---|---|---|---|\n")
	for _, v := range variants {
		for _, o := range v.others {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				v.field,
				markdownCell(v.keeper), formatUse(v.counts[v.keeper], v.lastFFYs[v.keeper]),
				markdownCell(o), formatUse(v.counts[o], v.lastFFYs[o]))
		}
	}
	return b.String()
}
