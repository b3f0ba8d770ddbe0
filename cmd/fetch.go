package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/zalepa/stipboard/stip"
)

// fetchCmd holds the flags for the 'fetch' subcommand.
type fetchCmd struct {
	dir   string
	force bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download the configured source tables" }
func (*fetchCmd) Usage() string {
	return `stipboard fetch [-dir data] [-force]

  Copies the projects, funding and revenue tables into a local directory so
  later runs can read them from disk. Existing files are kept unless -force
  is given. Each table is parsed before it is written.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "data", "output directory")
	f.BoolVar(&c.force, "force", false, "overwrite existing files")
}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, log, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fail("creating output directory: %v", err)
	}

	client := httpClient(cfg)
	src := cfg.StipSources()
	var downloaded, skipped, failed int
	for _, s := range []struct{ name, loc string }{
		{"projects", src.Projects},
		{"funding", src.Funding},
		{"revenue", src.Revenue},
	} {
		dest := filepath.Join(c.dir, stip.SourceName(s.loc))
		rows, err := fetchSource(ctx, client, s.loc, dest, c.force)
		switch {
		case errors.Is(err, errExists):
			fmt.Fprintf(os.Stderr, "skip %s (already exists)\n", dest)
			skipped++
		case err != nil:
			fmt.Fprintf(os.Stderr, "error fetching %s from %s: %v\n", s.name, s.loc, err)
			failed++
		default:
			log.Info("source fetched", "source", s.name, "from", s.loc, "to", dest, "rows", rows)
			downloaded++
		}
	}

	fmt.Fprintf(os.Stderr, "Done: %d downloaded, %d skipped, %d failed\n", downloaded, skipped, failed)
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

var errExists = errors.New("destination exists")

// fetchSource copies loc to dest and returns the number of data rows. The
// table must parse before anything is written.
func fetchSource(ctx context.Context, client *http.Client, loc, dest string, force bool) (int, error) {
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return 0, errExists
		}
	}
	data, err := stip.Fetch(ctx, client, loc)
	if err != nil {
		return 0, err
	}
	rows, err := stip.ReadTable(dest, data)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return 0, err
	}
	return len(rows), nil
}
