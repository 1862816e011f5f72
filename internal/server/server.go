package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jensneuse/abstractlogger"

	eventbus "github.com/hanpama/fedgraph/internal/eventbus"
	events "github.com/hanpama/fedgraph/internal/events"
	language "github.com/hanpama/fedgraph/internal/language"
	operation "github.com/hanpama/fedgraph/internal/operation"
	planner "github.com/hanpama/fedgraph/internal/planner"
	reqid "github.com/hanpama/fedgraph/internal/reqid"
	solver "github.com/hanpama/fedgraph/internal/solver"
)

// Handler is an http.Handler that plans GraphQL operations. It accepts
// GraphQL-over-HTTP requests and answers with the solved plan instead of
// executing it.
type Handler struct {
	planner *planner.Planner
	opt     Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	Logger abstractlogger.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l abstractlogger.Logger) Option { return func(o *Options) { o.Logger = l } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// Error classes reported in the "class" error extension.
const (
	ClassRequest    = "REQUEST"
	ClassParse      = "PARSE"
	ClassValidation = "VALIDATION"
	ClassPlanning   = "PLANNING"
	ClassInternal   = "INTERNAL"
	ClassTimeout    = "TIMEOUT"
)

// New creates a plan handler backed by p.
func New(p *planner.Planner, opts ...Option) (*Handler, error) {
	if p == nil {
		return nil, errors.New("server: planner is required")
	}
	op := Options{Timeout: 10 * time.Second, Logger: abstractlogger.NoopLogger}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{planner: p, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx, reqid.FromRequest(r))
	w.Header().Set(reqid.Header, rid)
	status := http.StatusOK
	planned := 0
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Operations: planned, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(ClassRequest, "method not allowed"), h.opt.Pretty)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(ClassRequest, berr.Message), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		out := make([]specResult, len(batch))
		for i := range batch {
			out[i] = h.planOne(ctx, batch[i])
		}
		planned = len(batch)
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	planned = 1
	writeJSON(w, status, h.planOne(ctx, req), h.opt.Pretty)
}

func (h *Handler) planOne(ctx context.Context, req Request) specResult {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return graphQLErrors(ClassParse, err)
	}
	op, err := operation.Bind(h.planner.Schema(), doc, req.OperationName, req.Variables)
	if err != nil {
		return graphQLErrors(ClassValidation, err)
	}
	plan, err := h.planner.Plan(ctx, op)
	if err != nil {
		rid, _ := reqid.FromContext(ctx)
		h.opt.Logger.Debug("server.planOne",
			abstractlogger.String("requestId", rid),
			abstractlogger.String("operation", op.Name),
			abstractlogger.Error(err),
		)
		return planErrors(err)
	}
	return specResult{Data: map[string]any{"plan": plan}}
}

// ------------------ Request parsing ------------------

type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (Request, []Request, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return Request{}, nil, language.Errorf("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return Request{}, nil, language.Errorf("invalid 'variables' JSON")
			}
		}
		op := r.URL.Query().Get("operationName")
		return Request{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return Request{}, nil, language.Errorf("unsupported Content-Type")
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Request{}, nil, language.Errorf("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return Request{}, nil, language.Errorf(errBodyTooLargeMessage)
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var arr []Request
		if err := json.Unmarshal(body, &arr); err != nil {
			return Request{}, nil, language.Errorf("invalid JSON")
		}
		if len(arr) == 0 {
			return Request{}, nil, language.Errorf("empty batch")
		}
		return Request{}, arr, nil
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, nil, language.Errorf("invalid JSON")
	}
	if req.Query == "" {
		return Request{}, nil, language.Errorf("missing 'query'")
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type specResult struct {
	Data   any         `json:"data,omitempty"`
	Errors []specError `json:"errors,omitempty"`
}

func errorResponse(class, message string) specResult {
	return specResult{Errors: []specError{{Message: message, Extensions: map[string]any{"class": class}}}}
}

// graphQLErrors reports parse and bind failures with their source locations.
func graphQLErrors(class string, err error) specResult {
	var list language.ErrorList
	var single *language.Error
	switch {
	case errors.As(err, &list):
	case errors.As(err, &single):
		list = language.ErrorList{single}
	default:
		return errorResponse(class, err.Error())
	}
	out := specResult{Errors: make([]specError, len(list))}
	for i, e := range list {
		se := specError{Message: e.Message, Extensions: map[string]any{"class": class}}
		for _, loc := range e.Locations {
			se.Locations = append(se.Locations, specLocation{Line: loc.Line, Column: loc.Column})
		}
		out.Errors[i] = se
	}
	return out
}

func planErrors(err error) specResult {
	var solveErr *solver.SolveError
	switch {
	case errors.As(err, &solveErr):
		class := ClassPlanning
		if solver.IsInternal(err) {
			class = ClassInternal
		}
		se := specError{
			Message:    solveErr.Message,
			Extensions: map[string]any{"class": class, "kind": string(solveErr.Kind)},
		}
		for _, p := range solveErr.Path {
			se.Path = append(se.Path, p)
		}
		if len(solveErr.Cycle) > 0 {
			se.Extensions["cycle"] = solveErr.Cycle
		}
		return specResult{Errors: []specError{se}}
	case errors.Is(err, planner.ErrTooManyFields):
		return errorResponse(ClassValidation, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errorResponse(ClassTimeout, err.Error())
	default:
		return errorResponse(ClassInternal, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
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
