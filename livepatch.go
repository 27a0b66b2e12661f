package livepatch

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/binding"
	"github.com/livefir/livepatch/internal/datapath"
	"github.com/livefir/livepatch/internal/dom"
	"github.com/livefir/livepatch/internal/metrics"
	"github.com/livefir/livepatch/internal/patch"
	"github.com/livefir/livepatch/internal/reconcile"
	"github.com/livefir/livepatch/internal/report"
	"github.com/livefir/livepatch/internal/schedule"
)

// Metrics is a snapshot of engine counters.
type Metrics = metrics.PatchMetrics

// Option is a functional option for configuring an Engine
type Option func(*engineOptions)

type engineOptions struct {
	config Config
	logger *log.Logger
}

// WithConfig replaces the whole configuration
func WithConfig(cfg Config) Option {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithDebug switches debug mode: hard errors are returned and warnings logged
func WithDebug(enabled bool) Option {
	return func(o *engineOptions) {
		o.config.Debug = enabled
	}
}

// WithDirectives sets the attribute vocabulary
func WithDirectives(d Directives) Option {
	return func(o *engineOptions) {
		o.config.Directives = d
	}
}

// WithEventName sets the type of the patched notification
func WithEventName(name string) Option {
	return func(o *engineOptions) {
		o.config.EventName = name
	}
}

// WithLogger sets the logger for warnings and errors
func WithLogger(logger *log.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// PatchOption tunes a single Patch call
type PatchOption func(*patchOptions)

type patchOptions struct {
	invalidate bool
	silent     bool
}

// WithInvalidate rebuilds the binding registry of the root before patching
func WithInvalidate() PatchOption {
	return func(o *patchOptions) {
		o.invalidate = true
	}
}

// WithSilent suppresses the patched notification
func WithSilent() PatchOption {
	return func(o *patchOptions) {
		o.silent = true
	}
}

// Engine applies plain data objects to the binding directives of a Document.
//
// Registries are built lazily, once per root, and reused until invalidated.
// An Engine is not safe for concurrent use: call Patch, Invalidate and Flush
// from one goroutine, or hand work to Run through Do. Stream updaters are the
// exception and may be called from any goroutine.
type Engine struct {
	doc        *Document
	config     Config
	logger     *log.Logger
	metrics    *metrics.Collector
	reporter   *report.Reporter
	env        *binding.Env
	applier    *patch.Applier
	reconciler *reconcile.Reconciler
	instances  map[*html.Node]*binding.Registry
	queue      *schedule.Queue
}

// New creates an engine for doc. Debug mode is enabled by WithDebug or by the
// debug directive on the document's <body>.
func New(doc *Document, opts ...Option) *Engine {
	o := engineOptions{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config
	if o.logger == nil {
		o.logger = log.New(os.Stderr, cfg.LogPrefix, log.LstdFlags)
	}
	if body := doc.tree.Body(); body != nil && dom.HasAttr(body, cfg.Directives.Debug) {
		cfg.Debug = true
	}

	collector := metrics.NewCollector()
	reporter := &report.Reporter{Debug: cfg.Debug, Logger: o.logger, Metrics: collector}
	env := &binding.Env{
		Tree:       doc.tree,
		Directives: cfg.Directives,
		Templates:  binding.NewTemplates(),
		Locals:     binding.NewLocalCache(),
		Reporter:   reporter,
	}
	applier := &patch.Applier{Tree: doc.tree, Locals: env.Locals, Reporter: reporter}

	e := &Engine{
		doc:       doc,
		config:    cfg,
		logger:    o.logger,
		metrics:   collector,
		reporter:  reporter,
		env:       env,
		applier:   applier,
		instances: make(map[*html.Node]*binding.Registry),
		queue:     schedule.NewQueue(),
	}
	e.reconciler = &reconcile.Reconciler{
		Directives: cfg.Directives,
		Applier:    applier,
		Reporter:   reporter,
		OnRemove:   e.forgetNode,
	}
	return e
}

// Document returns the document the engine patches.
func (e *Engine) Document() *Document {
	return e.doc
}

// Debug reports whether hard errors are returned to callers.
func (e *Engine) Debug() bool {
	return e.config.Debug
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() Metrics {
	return e.metrics.GetMetrics()
}

// ResetMetrics zeroes every counter, including named feed counters.
func (e *Engine) ResetMetrics() {
	e.metrics.Reset()
}

// Patch applies data to root, a CSS selector or an *html.Node.
//
// Scalar bindings are written first, in registration order, then every
// collection is reconciled. Paths that resolve to nothing leave their targets
// alone. A hard error stops the call where it happened; earlier writes are
// kept. Unless WithSilent is given, a bubbling patched event carrying the
// registered scalar paths is dispatched on root.
func (e *Engine) Patch(data any, root any, opts ...PatchOption) error {
	var po patchOptions
	for _, opt := range opts {
		opt(&po)
	}

	node, err := e.resolveRoot(root)
	if err != nil {
		return e.reporter.Fail(err)
	}

	reg, err := e.registry(node, po.invalidate)
	if err != nil {
		return err
	}

	written, err := e.applier.Scalars(data, reg)
	e.metrics.AddScalarWrites(int64(written))
	if err != nil {
		return err
	}

	for _, col := range reg.Collections() {
		value, ok := datapath.Resolve(data, col.Path)
		if !ok {
			continue
		}
		items, ok := datapath.Items(value)
		if !ok {
			e.reporter.Warnf("PATCH: collection value is not an array: %s", col.Path)
			continue
		}

		stats, err := e.reconciler.Reconcile(col.Container, items, col.Resolver)
		if !stats.Skipped {
			e.metrics.RecordReconcile(int64(stats.Patched), int64(stats.Created), int64(stats.Moved), int64(stats.Removed))
		}
		if stats.Removed > 0 {
			reg.Retain(node)
		}
		if err != nil {
			return err
		}
	}

	e.metrics.IncrementPatchApplied()

	if !po.silent {
		e.doc.tree.Dispatch(&dom.Event{
			Type:    e.config.EventName,
			Target:  node,
			Bubbles: true,
			Detail:  PatchedDetail{Paths: reg.Paths()},
		})
	}
	return nil
}

// Invalidate drops the cached registry of root and the validated status of
// the templates under it, so the next patch rescans the tree.
func (e *Engine) Invalidate(root any) error {
	node, err := e.resolveRoot(root)
	if err != nil {
		return e.reporter.Fail(err)
	}
	delete(e.instances, node)
	e.env.Templates.Forget(node)
	e.metrics.IncrementInvalidation()
	return nil
}

// registry returns the cached registry of root, building it when missing or
// when a rebuild is forced.
func (e *Engine) registry(root *html.Node, rebuild bool) (*binding.Registry, error) {
	if reg, ok := e.instances[root]; ok && !rebuild {
		return reg, nil
	}
	reg, err := e.env.Build(root)
	if err != nil {
		return nil, err
	}
	e.instances[root] = reg
	e.metrics.IncrementRegistryBuilt()
	return reg, nil
}

func (e *Engine) resolveRoot(root any) (*html.Node, error) {
	switch r := root.(type) {
	case string:
		node, err := e.doc.QuerySelector(r)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, r)
		}
		return node, nil
	case *html.Node:
		if r == nil {
			return nil, ErrInvalidRoot
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w, got %T", ErrInvalidRoot, root)
}

// forgetNode releases everything kept for a list node that left the tree.
func (e *Engine) forgetNode(n *html.Node) {
	e.env.Locals.Forget(n)
	e.doc.tree.Forget(n)
	dom.Walk(n, func(node *html.Node) bool {
		delete(e.instances, node)
		return true
	})
}
