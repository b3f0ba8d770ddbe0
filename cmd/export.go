package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/zalepa/stipboard/stip"
)

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	filterFlags
	out    string
	format string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the filtered projects to CSV or XLSX" }
func (*exportCmd) Usage() string {
	return `stipboard export [filter flags] [-o filtered_stip.csv] [-format csv|xlsx]

  Writes every project matching the filters, one row per project, with one
  column per funding program and MPO area. Use -o - for standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.register(f)
	f.StringVar(&c.out, "o", "filtered_stip.csv", "output file path, or - for stdout")
	f.StringVar(&c.format, "format", "", "csv or xlsx (default: from the output extension)")
}

// exportFormat picks the output format from the flag or the file extension.
func exportFormat(format, out string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(out), ".xlsx") {
			return "xlsx", nil
		}
		return "csv", nil
	}
	switch f := strings.ToLower(format); f {
	case "csv", "xlsx":
		return f, nil
	default:
		return "", fmt.Errorf("invalid -format %q; valid options: csv, xlsx", format)
	}
}

func writeExport(w io.Writer, format string, records []stip.ProjectRecord) error {
	if format == "xlsx" {
		return stip.ExportXLSX(w, records)
	}
	return stip.WriteCSV(w, records)
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := exportFormat(c.format, c.out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	_, log, data, err := setup(ctx)
	if err != nil {
		return fail("%v", err)
	}
	records := stip.FilterProjects(data.Projects, c.FilterState)

	if c.out == "-" {
		if err := writeExport(os.Stdout, format, records); err != nil {
			return fail("write export: %v", err)
		}
		return subcommands.ExitSuccess
	}

	f, err := os.Create(c.out)
	if err != nil {
		return fail("%v", err)
	}
	if err := writeExport(f, format, records); err != nil {
		f.Close()
		return fail("write %s: %v", c.out, err)
	}
	if err := f.Close(); err != nil {
		return fail("%v", err)
	}

	log.Info("export written", "path", c.out, "format", format, "projects", len(records))
	fmt.Fprintf(os.Stderr, "%d projects → %s\n", len(records), c.out)
	return subcommands.ExitSuccess
}
