package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/fedgraph/internal/eventbus"
	"github.com/hanpama/fedgraph/internal/introspection"
	"github.com/hanpama/fedgraph/internal/ir"
	"github.com/hanpama/fedgraph/internal/language"
	"github.com/hanpama/fedgraph/internal/operation"
	"github.com/hanpama/fedgraph/internal/otel"
	"github.com/hanpama/fedgraph/internal/planner"
	"github.com/hanpama/fedgraph/internal/schema"
	"github.com/hanpama/fedgraph/internal/server"
	"github.com/hanpama/fedgraph/internal/solver"
)

const rootUsage = `fedgraph — federated GraphQL query planner

USAGE:
  fedgraph <command> [flags]

COMMANDS:
  serve            Run the HTTP endpoint that answers operations with their plans
  plan             Plan operation files and print the plans as JSON
  print-schema     Compose the subgraphs and print the supergraph SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -manifest <file>                    Subgraph manifest (default: supergraph.yaml)
  -graphql.introspection <bool>       Plan introspection fields (default: true)
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes N            Request body limit in bytes (default: 1048576)
  -server.cors-origin <origin>        Allowed CORS origin. Repeatable
  -planner.cache-size N               Cached plans (default: 1024)
  -planner.max-fields N               Reject operations selecting more fields. 0 disables (default: 0)
  -log.level <level>                  debug, info, warn or error (default: info)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: fedgraph)
`

const planUsage = `plan FLAGS: [flags] <operation file>...
  -manifest <file>           Subgraph manifest (default: supergraph.yaml)
  -operation-name <name>     Operation to plan when a file holds several
  -variables <json>          Variable values as a JSON object
  -pretty                    Indent the JSON output
  -log.level <level>         debug, info, warn or error (default: warn)
  (A single file prints its plan; several print [{"file", "plan"}] in argument order)
`

const printSchemaUsage = `print-schema FLAGS:
  -manifest <file>   Subgraph manifest (default: supergraph.yaml)
  -out <file>        Write the SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "fedgraph:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("fedgraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "plan":
		return cmdPlan(cmdArgs, stdout, stderr)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "plan":
		fmt.Fprint(stdout, planUsage)
	case "print-schema":
		fmt.Fprint(stdout, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// newLogger builds a zap logger behind the abstractlogger interface.
func newLogger(level string, stderr io.Writer) (abstractlogger.Logger, error) {
	zl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("-log.level: %w", err)
	}
	var al abstractlogger.Level
	switch {
	case zl <= zapcore.DebugLevel:
		al = abstractlogger.DebugLevel
	case zl == zapcore.InfoLevel:
		al = abstractlogger.InfoLevel
	case zl == zapcore.WarnLevel:
		al = abstractlogger.WarnLevel
	default:
		al = abstractlogger.ErrorLevel
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(stderr), zap.NewAtomicLevelAt(zl))
	return abstractlogger.NewZapLogger(zap.New(core), al), nil
}

// loadSchema composes the subgraphs listed in the manifest.
func loadSchema(ctx context.Context, manifest string, withIntrospection bool) (*schema.Schema, error) {
	disc, err := ir.NewManifestDiscovery(manifest)
	if err != nil {
		return nil, err
	}
	proj, err := ir.Build(ctx, disc)
	if err != nil {
		return nil, fmt.Errorf("compose subgraphs: %w", err)
	}
	sch, err := schema.BuildFromIR(proj)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	if withIntrospection {
		sch = introspection.Extend(sch)
	}
	return sch, nil
}

type serveConfig struct {
	manifest      string
	introspection bool
	addr          string
	pretty        bool
	timeout       time.Duration
	maxBodyBytes  int64
	corsOrigins   stringListFlag
	cacheSize     int
	maxFields     int
	logLevel      string
	otelEndpoint  string
	otelService   string
}

func parseServeFlags(args []string) (*serveConfig, error) {
	cfg := &serveConfig{
		manifest:      "supergraph.yaml",
		introspection: true,
		addr:          ":8080",
		timeout:       10 * time.Second,
		maxBodyBytes:  1 << 20,
		cacheSize:     1024,
		logLevel:      "info",
		otelService:   "fedgraph",
	}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&cfg.manifest, "manifest", cfg.manifest, "Subgraph manifest")
	fs.BoolVar(&cfg.introspection, "graphql.introspection", cfg.introspection, "Plan introspection fields")
	fs.StringVar(&cfg.addr, "server.addr", cfg.addr, "HTTP listen address")
	fs.BoolVar(&cfg.pretty, "server.pretty", cfg.pretty, "Pretty-print JSON responses")
	fs.DurationVar(&cfg.timeout, "server.timeout", cfg.timeout, "Per-request timeout")
	fs.Int64Var(&cfg.maxBodyBytes, "server.max-body-bytes", cfg.maxBodyBytes, "Request body limit")
	fs.Var(&cfg.corsOrigins, "server.cors-origin", "Allowed CORS origin")
	fs.IntVar(&cfg.cacheSize, "planner.cache-size", cfg.cacheSize, "Cached plans")
	fs.IntVar(&cfg.maxFields, "planner.max-fields", cfg.maxFields, "Field limit per operation")
	fs.StringVar(&cfg.logLevel, "log.level", cfg.logLevel, "Log level")
	fs.StringVar(&cfg.otelEndpoint, "otel.endpoint", cfg.otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&cfg.otelService, "otel.service", cfg.otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %q", fs.Args())
	}
	return cfg, nil
}

// newMux wires the plan endpoint and a health check.
func newMux(ctx context.Context, cfg *serveConfig, log abstractlogger.Logger) (*http.ServeMux, *planner.Planner, error) {
	sch, err := loadSchema(ctx, cfg.manifest, cfg.introspection)
	if err != nil {
		return nil, nil, err
	}
	p, err := planner.New(sch,
		planner.WithCacheSize(cfg.cacheSize),
		planner.WithMaxFields(cfg.maxFields),
		planner.WithLogger(log),
	)
	if err != nil {
		return nil, nil, err
	}

	sopts := []server.Option{server.WithLogger(log), server.WithMaxBodyBytes(cfg.maxBodyBytes)}
	if cfg.pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if cfg.timeout > 0 {
		sopts = append(sopts, server.WithTimeout(cfg.timeout))
	}
	if len(cfg.corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.corsOrigins...))
	}
	h, err := server.New(p, sopts...)
	if err != nil {
		return nil, nil, fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"schemaVersion": sch.Version,
			"planner":       p.Stats(),
		})
	})
	return mux, p, nil
}

func cmdServe(args []string, stderr io.Writer) error {
	cfg, err := parseServeFlags(args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	log, err := newLogger(cfg.logLevel, stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventbus.Use(eventbus.New())
	shutdownTracing, err := otel.Setup(cfg.otelEndpoint, cfg.otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	mux, _, err := newMux(ctx, cfg, log)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: cfg.addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("fedgraph listening", abstractlogger.String("addr", cfg.addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type planOutput struct {
	File string                  `json:"file"`
	Plan *solver.SolvedOperation `json:"plan"`
}

func cmdPlan(args []string, stdout, stderr io.Writer) error {
	manifest := "supergraph.yaml"
	operationName := ""
	variablesJSON := ""
	pretty := false
	logLevel := "warn"
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifest, "manifest", manifest, "Subgraph manifest")
	fs.StringVar(&operationName, "operation-name", operationName, "Operation to plan")
	fs.StringVar(&variablesJSON, "variables", variablesJSON, "Variable values as JSON")
	fs.BoolVar(&pretty, "pretty", pretty, "Indent the JSON output")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, planUsage)
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprint(stderr, planUsage)
		return fmt.Errorf("no operation files given")
	}
	var variables map[string]any
	if variablesJSON != "" {
		if err := json.Unmarshal([]byte(variablesJSON), &variables); err != nil {
			return fmt.Errorf("-variables: %w", err)
		}
	}
	log, err := newLogger(logLevel, stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sch, err := loadSchema(ctx, manifest, true)
	if err != nil {
		return err
	}
	p, err := planner.New(sch, planner.WithLogger(log))
	if err != nil {
		return err
	}

	out := make([]planOutput, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			src, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			doc, err := language.ParseQuery(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			op, err := operation.Bind(sch, doc, operationName, variables)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			plan, err := p.Plan(ctx, op)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			out[i] = planOutput{File: file, Plan: plan}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if len(out) == 1 {
		return enc.Encode(out[0].Plan)
	}
	return enc.Encode(out)
}

func cmdPrintSchema(args []string, stdout, stderr io.Writer) error {
	manifest := "supergraph.yaml"
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifest, "manifest", manifest, "Subgraph manifest")
	fs.StringVar(&outFile, "out", outFile, "Write the SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printSchemaUsage)
		return err
	}

	sch, err := loadSchema(context.Background(), manifest, false)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
