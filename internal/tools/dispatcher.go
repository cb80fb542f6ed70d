package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/formatter"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/metrics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

const (
	// DefaultTimeout bounds every storage call made by a tool
	DefaultTimeout = 10 * time.Second
	// defaultAuditTimeout bounds one background audit write
	defaultAuditTimeout = 5 * time.Second
)

// Narrator writes a short prose summary of a query result
type Narrator interface {
	Narrate(ctx context.Context, result *model.QueryResult) (string, error)
}

// Options tunes a Dispatcher. Zero values select defaults.
type Options struct {
	Timeout      time.Duration
	AuditTimeout time.Duration
	Narrator     Narrator
	Now          func() time.Time
}

// Tool describes one registered operation
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`

	resolved *jsonschema.Resolved
	run      func(ctx context.Context, raw json.RawMessage) (*outcome, error)
}

// outcome is what a tool handler hands back to Execute
type outcome struct {
	result   envelopeCarrier
	degraded bool
	audit    audit.Entry
}

// Dispatcher owns the fixed tool registry and executes calls against it
type Dispatcher struct {
	engine    search.Engine
	builder   *query.Builder
	formatter *formatter.Formatter
	recorder  audit.Recorder
	narrator  Narrator
	logger    *zap.Logger

	timeout      time.Duration
	auditTimeout time.Duration
	now          func() time.Time

	tools map[string]*Tool
	audit sync.WaitGroup
}

// NewDispatcher builds the registry of health tools
func NewDispatcher(
	engine search.Engine,
	builder *query.Builder,
	fmtr *formatter.Formatter,
	recorder audit.Recorder,
	logger *zap.Logger,
	opts Options,
) (*Dispatcher, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if builder == nil {
		builder = query.NewBuilder("")
	}
	if fmtr == nil {
		fmtr = formatter.New(formatter.DefaultPolicy())
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.AuditTimeout <= 0 {
		opts.AuditTimeout = defaultAuditTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &Dispatcher{
		engine:       engine,
		builder:      builder,
		formatter:    fmtr,
		recorder:     recorder,
		narrator:     opts.Narrator,
		logger:       logger,
		timeout:      opts.Timeout,
		auditTimeout: opts.AuditTimeout,
		now:          opts.Now,
		tools:        make(map[string]*Tool),
	}

	if err := d.registerTools(); err != nil {
		return nil, err
	}
	return d, nil
}

// Tools lists the registered tools sorted by name
func (d *Dispatcher) Tools() []*Tool {
	out := make([]*Tool, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tool returns a registered tool by name
func (d *Dispatcher) Tool(name string) (*Tool, bool) {
	t, ok := d.tools[name]
	return t, ok
}

// Execute validates rawArgs against the named tool's schema and runs it.
// Unknown tools fail before any storage access or audit write.
func (d *Dispatcher) Execute(ctx context.Context, name string, rawArgs json.RawMessage) (any, error) {
	tool, ok := d.tools[name]
	if !ok {
		d.logger.Warn("unknown tool requested", zap.String("tool", name))
		return nil, &apperr.UnknownToolError{Name: name}
	}

	start := time.Now()
	out, err := d.execute(ctx, tool, rawArgs)
	duration := time.Since(start)

	if err != nil {
		outcomeLabel := metrics.OutcomeError
		if apperr.IsClientError(err) || apperr.CodeOf(err) == apperr.CodePrivacyViolation {
			outcomeLabel = metrics.OutcomeClientError
		}
		metrics.ObserveToolExecution(name, duration, outcomeLabel)
		d.logger.Warn("tool execution failed",
			zap.String("tool", name),
			zap.String("code", string(apperr.CodeOf(err))),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	env := out.result.envelope()
	env.Success = true
	env.MCPTool = name
	env.Timestamp = d.now().UTC()
	env.Degraded = out.degraded
	env.DataSource = search.DataSource(out.degraded)

	metrics.ObserveToolExecution(name, duration, metrics.OutcomeSuccess)
	d.logger.Info("tool executed",
		zap.String("tool", name),
		zap.Bool("degraded", out.degraded),
		zap.Duration("duration", duration),
	)

	out.audit.Tool = name
	d.recordAudit(ctx, out.audit)
	return out.result, nil
}

func (d *Dispatcher) execute(ctx context.Context, tool *Tool, rawArgs json.RawMessage) (*outcome, error) {
	if len(rawArgs) == 0 || string(rawArgs) == "null" {
		rawArgs = json.RawMessage("{}")
	}

	var instance map[string]any
	if err := json.Unmarshal(rawArgs, &instance); err != nil {
		return nil, &apperr.InvalidArgumentError{Field: "arguments", Reason: "must be a JSON object"}
	}
	if err := tool.resolved.Validate(instance); err != nil {
		return nil, &apperr.InvalidArgumentError{Field: "arguments", Reason: err.Error()}
	}

	return tool.run(ctx, rawArgs)
}

// recordAudit writes the entry in the background. Wait drains pending writes.
func (d *Dispatcher) recordAudit(ctx context.Context, entry audit.Entry) {
	if d.recorder == nil {
		return
	}
	if caller, ok := CallerFrom(ctx); ok {
		entry.IPAddress = caller.IPAddress
		entry.UserAgent = caller.UserAgent
		if entry.UserID == "" {
			entry.UserID = caller.UserID
		}
	}

	auditCtx := context.WithoutCancel(ctx)
	d.audit.Add(1)
	go func() {
		defer d.audit.Done()
		ctx, cancel := context.WithTimeout(auditCtx, d.auditTimeout)
		defer cancel()
		if err := d.recorder.Record(ctx, entry); err != nil {
			d.logger.Error("failed to record audit entry",
				zap.String("tool", entry.Tool),
				zap.String("user_id", entry.UserID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every pending audit write has finished
func (d *Dispatcher) Wait() {
	d.audit.Wait()
}

// search runs req with the dispatcher's storage timeout
func (d *Dispatcher) search(ctx context.Context, req *query.SearchRequest) (*model.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.engine.Search(ctx, req)
	if err != nil {
		var unavailable *apperr.StorageUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to search %s: %w", req.Metric, err)
	}
	return resp, nil
}

func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &apperr.InvalidArgumentError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}
