package cmd

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/subcommands"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"

	"github.com/zalepa/stipboard/stip"
)

//go:embed web.html
var htmlContent embed.FS

const (
	exportFile      = "filtered_stip.csv"
	shutdownTimeout = 5 * time.Second
	webTableRows    = 100
)

// webCmd holds the flags for the 'web' subcommand.
type webCmd struct {
	port int
}

func (*webCmd) Name() string     { return "web" }
func (*webCmd) Synopsis() string { return "serve the dashboard over HTTP" }
func (*webCmd) Usage() string {
	return `stipboard web [-port 8080]

  Serves the dashboard page and its JSON API:

    GET /                  HTML dashboard
    GET /api/options       filter choices
    GET /api/dashboard     render model for the query's filters
    GET /api/export.csv    filtered projects as CSV
    GET /api/export.xlsx   filtered projects as XLSX

  Filters are taken from the query string using the flag names of the
  other commands (district, ffy, work-type, county, funding-year,
  revenue-year, job, search).
`
}

func (c *webCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "HTTP port (default from config)")
}

func (c *webCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, log, data, err := setup(ctx)
	if err != nil {
		return fail("%v", err)
	}
	port := cfg.Server.Port
	if c.port != 0 {
		port = c.port
	}

	h, err := newRouter(data, log)
	if err != nil {
		return fail("%v", err)
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving", "url", fmt.Sprintf("http://localhost:%d", port), "projects", len(data.Projects))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}

type webServer struct {
	data *stip.Dataset
	log  *slog.Logger
	page *template.Template
	md   goldmark.Markdown
}

// newRouter wires the dashboard handlers. Each request builds its own
// dashboard, so handlers share nothing but the read-only dataset.
func newRouter(data *stip.Dataset, log *slog.Logger) (http.Handler, error) {
	page, err := template.ParseFS(htmlContent, "web.html")
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	s := &webServer{
		data: data,
		log:  log,
		page: page,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
	})
	return r, nil
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// filterFromQuery reads a filter from query parameters named like the
// command-line filter flags. Missing parameters keep their defaults.
func filterFromQuery(q url.Values) stip.FilterState {
	f := stip.DefaultFilter()
	set := func(dst *string, name string) {
		if v, ok := q[name]; ok && len(v) > 0 {
			*dst = v[0]
		}
	}
	set(&f.District, "district")
	set(&f.FFY, "ffy")
	set(&f.WorkType, "work-type")
	set(&f.County, "county")
	set(&f.FundingYear, "funding-year")
	set(&f.RevenueYear, "revenue-year")
	set(&f.Job, "job")
	set(&f.Search, "search")
	return f
}

func (s *webServer) dashboard(r *http.Request) (*stip.Dashboard, stip.RenderModel) {
	d := stip.NewDashboard(s.data)
	return d, d.ApplyFilter(filterFromQuery(r.URL.Query()))
}

func (s *webServer) handleOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, stip.NewDashboard(s.data).Options())
}

func (s *webServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	_, m := s.dashboard(r)
	render.JSON(w, r, m)
}

func (s *webServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	d, _ := s.dashboard(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFile))
	if err := stip.WriteCSV(w, d.Filtered()); err != nil {
		s.log.Error("export csv", "error", err)
	}
}

func (s *webServer) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	d, _ := s.dashboard(r)
	var buf bytes.Buffer
	if err := stip.ExportXLSX(&buf, d.Filtered()); err != nil {
		s.serverError(w, r, fmt.Errorf("export xlsx: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "filtered_stip.xlsx"))
	w.Write(buf.Bytes())
}

type selectField struct {
	Name, Label string
	Options     []string
	Value       string
}

type pageView struct {
	Selects []selectField
	Filter  stip.FilterState
	Query   template.URL
	Summary template.HTML
}

func (s *webServer) handlePage(w http.ResponseWriter, r *http.Request) {
	d, m := s.dashboard(r)
	src, err := renderSummary(m, s.data.Years, webTableRows)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	var html bytes.Buffer
	if err := s.md.Convert([]byte(src), &html); err != nil {
		s.serverError(w, r, fmt.Errorf("convert markdown: %w", err))
		return
	}

	opts := d.Options()
	years := make([]string, len(opts.Years))
	for i, y := range opts.Years {
		years[i] = strconv.Itoa(y)
	}
	f := m.Filter
	v := pageView{
		Selects: []selectField{
			{"district", "District", opts.Districts, f.District},
			{"ffy", "FFY", opts.FFYs, f.FFY},
			{"work-type", "Type of work", opts.WorkTypes, f.WorkType},
			{"county", "County", opts.Counties, f.County},
			{"funding-year", "Funding year", years, f.FundingYear},
			{"revenue-year", "Revenue year", years, f.RevenueYear},
		},
		Filter: f,
		Query:  template.URL(r.URL.RawQuery),
	}
	// goldmark drops raw HTML from its input by default.
	v.Summary = template.HTML(html.String())

	var out bytes.Buffer
	if err := s.page.Execute(&out, v); err != nil {
		s.serverError(w, r, fmt.Errorf("render page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out.Bytes())
}

func (s *webServer) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed", "path", r.URL.Path, "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
