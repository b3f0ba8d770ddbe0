// Package cmd implements the stipboard command-line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/zalepa/stipboard/config"
	"github.com/zalepa/stipboard/logging"
	"github.com/zalepa/stipboard/stip"
)

// Register adds every stipboard command to c.
func Register(c *subcommands.Commander) {
	c.Register(&summaryCmd{}, "reports")
	c.Register(&vizCmd{}, "reports")
	c.Register(&reportCmd{}, "reports")
	c.Register(&exportCmd{}, "data")
	c.Register(&fetchCmd{}, "data")
	c.Register(&auditCmd{}, "data")
	c.Register(&webCmd{}, "server")
}

// As a CLI application it has a very short lifecycle, so global flags are fine.
var (
	configPath   = flag.String("config", "", "YAML config file (default: ./"+config.DefaultFile+" when present)")
	projectsFlag = flag.String("projects", "", "projects table, path or URL (overrides config)")
	fundingFlag  = flag.String("funding", "", "funding table, path or URL (overrides config)")
	revenueFlag  = flag.String("revenue", "", "revenue table, path or URL (overrides config)")
)

// loadConfig reads the configuration, applies the source overrides given on
// the command line and builds the logger. Logs go to stderr so reports can
// be piped.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, err
	}
	if *projectsFlag != "" {
		cfg.Sources.Projects = *projectsFlag
	}
	if *fundingFlag != "" {
		cfg.Sources.Funding = *fundingFlag
	}
	if *revenueFlag != "" {
		cfg.Sources.Revenue = *revenueFlag
	}
	return cfg, logging.New(cfg.Logging, os.Stderr), nil
}

func httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.FetchTimeout}
}

// loadDataset loads the three configured sources.
func loadDataset(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stip.Dataset, error) {
	return stip.LoadDatasets(ctx, cfg.StipSources(), stip.LoadOptions{
		Parse:  cfg.ParseOptions(),
		Client: httpClient(cfg),
		Logger: log,
	})
}

// setup is the common prologue of the commands that work on a dataset.
func setup(ctx context.Context) (*config.Config, *slog.Logger, *stip.Dataset, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := loadDataset(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, data, nil
}

// filterFlags binds the dashboard filter to command-line flags.
type filterFlags struct {
	stip.FilterState
}

func (ff *filterFlags) register(f *flag.FlagSet) {
	f.StringVar(&ff.District, "district", stip.Wildcard, "district to include, or ALL")
	f.StringVar(&ff.FFY, "ffy", stip.Wildcard, "federal fiscal year to include, or ALL")
	f.StringVar(&ff.WorkType, "work-type", stip.Wildcard, "type of work to include, or ALL")
	f.StringVar(&ff.County, "county", stip.Wildcard, "county to include, or ALL")
	f.StringVar(&ff.FundingYear, "funding-year", stip.Wildcard, "funding year window, or ALL")
	f.StringVar(&ff.RevenueYear, "revenue-year", stip.Wildcard, "revenue year window, or ALL")
	f.StringVar(&ff.Job, "job", "", "job number substring")
	f.StringVar(&ff.Search, "search", "", "substring of job, termini or route")
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// printMarkdown renders md for the terminal, falling back to the raw text
// when no renderer can be built.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
