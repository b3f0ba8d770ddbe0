package stip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrLoad matches any dataset load failure with errors.Is.
var ErrLoad = errors.New("load datasets")

// LoadError reports the source that made a load fail. The dataset is never
// partially returned.
type LoadError struct {
	Source   string // "projects", "funding" or "revenue"
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load datasets: %s (%s): %v", e.Source, e.Location, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Sources locates the three input tables. Each is a local path or an
// http(s) URL.
type Sources struct {
	Projects string `json:"projects"`
	Funding  string `json:"funding"`
	Revenue  string `json:"revenue"`
}

// LoadOptions configures LoadDatasets. Zero values fall back to
// DefaultParseOptions field by field, http.DefaultClient and slog.Default().
type LoadOptions struct {
	Parse  ParseOptions
	Client *http.Client
	Logger *slog.Logger
}

// LoadDatasets fetches the three sources concurrently and, once all three
// have arrived, parses them into a Dataset. If any fetch or table parse
// fails the whole load fails with a *LoadError.
func LoadDatasets(ctx context.Context, src Sources, opts LoadOptions) (*Dataset, error) {
	defaults := DefaultParseOptions()
	if opts.Parse.Years == nil {
		opts.Parse.Years = defaults.Years
	}
	if opts.Parse.Programs == nil {
		opts.Parse.Programs = defaults.Programs
	}
	if opts.Parse.MPOs == nil {
		opts.Parse.MPOs = defaults.MPOs
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	start := time.Now()
	var projectRows, fundingRows, revenueRows []Row
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range []struct {
		name string
		loc  string
		dst  *[]Row
	}{
		{"projects", src.Projects, &projectRows},
		{"funding", src.Funding, &fundingRows},
		{"revenue", src.Revenue, &revenueRows},
	} {
		g.Go(func() error {
			rows, err := fetchTable(gctx, opts.Client, t.loc)
			if err != nil {
				return &LoadError{Source: t.name, Location: t.loc, Err: err}
			}
			*t.dst = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		opts.Logger.Error("dataset load failed", slog.Any("error", err))
		return nil, err
	}

	d := &Dataset{
		Projects: ParseProjects(projectRows, opts.Parse),
		Funding:  ParseFunding(fundingRows, opts.Parse.Years),
		Revenue:  ParseRevenue(revenueRows, opts.Parse.Years),
		Years:    append([]int(nil), opts.Parse.Years...),
		Programs: append([]string(nil), opts.Parse.Programs...),
		MPOs:     append([]string(nil), opts.Parse.MPOs...),
	}
	opts.Logger.Info("datasets loaded",
		slog.Int("projects", len(d.Projects)),
		slog.Int("funding", len(d.Funding)),
		slog.Int("revenue", len(d.Revenue)),
		slog.Duration("elapsed", time.Since(start)))
	return d, nil
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

func fetchTable(ctx context.Context, client *http.Client, loc string) ([]Row, error) {
	if loc == "" {
		return nil, errors.New("no source configured")
	}
	data, err := Fetch(ctx, client, loc)
	if err != nil {
		return nil, err
	}
	return ReadTable(SourceName(loc), data)
}

// SourceName is the file name of a source location, without any URL query.
func SourceName(loc string) string {
	if isURL(loc) {
		return path.Base(strings.SplitN(loc, "?", 2)[0])
	}
	return filepath.Base(loc)
}

// Fetch reads a source in full, from disk or over HTTP.
func Fetch(ctx context.Context, client *http.Client, loc string) ([]byte, error) {
	if !isURL(loc) {
		return os.ReadFile(loc)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
