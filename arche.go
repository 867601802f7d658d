package arche

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/arche/internal/logging"
	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/record"
	"github.com/aretw0/arche/pkg/tree"
)

// Version is the library version reported by the CLI and servers.
const Version = "0.1.0"

// Project is the high-level entry point: a live project tree whose
// aggregating nodes fold processing events into summaries.
// Safe for concurrent use.
type Project struct {
	tree      *tree.Tree
	logger    *slog.Logger
	closeOnce sync.Once
}

// Option defines a functional option for configuring a Project.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
	hooks  *progress.Hooks
}

// WithLogger sets a custom structured logger for the project and its channels.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks on every progress channel.
// Hooks apply to channels created by Load and FromRecord; trees assembled
// by the caller configure channels through their constructors.
func WithHooks(hooks progress.Hooks) Option {
	return func(s *settings) {
		s.hooks = &hooks
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) channelOptions() []progress.Option {
	out := []progress.Option{progress.WithLogger(s.logger)}
	if s.hooks != nil {
		out = append(out, progress.WithHooks(*s.hooks))
	}
	return out
}

// ChannelOptions returns the progress options matching opts, for callers
// that build aggregating nodes themselves.
func ChannelOptions(opts ...Option) []progress.Option {
	return newSettings(opts).channelOptions()
}

// New wraps a root assembled by the caller.
func New(root *domain.Root, opts ...Option) (*Project, error) {
	s := newSettings(opts)
	t, err := tree.New(root)
	if err != nil {
		return nil, err
	}
	return newProject(t, s), nil
}

// FromRecord builds a project from its persisted record.
func FromRecord(rec record.Record, opts ...Option) (*Project, error) {
	s := newSettings(opts)
	t, err := record.BuildTree(rec, record.WithChannelOptions(s.channelOptions()...))
	if err != nil {
		return nil, err
	}
	return newProject(t, s), nil
}

// Load reads a project from store and builds it.
func Load(ctx context.Context, store ports.ProjectStore, projectID string, opts ...Option) (*Project, error) {
	rec, err := store.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	p, err := FromRecord(rec, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build project %s: %w", projectID, err)
	}
	return p, nil
}

func newProject(t *tree.Tree, s settings) *Project {
	p := &Project{
		tree:   t,
		logger: s.logger.With("project", t.Root().ID()),
	}
	p.logger.Debug("Project ready", "nodes", t.Len(), "aggregators", len(t.Aggregators()))
	return p
}

// ID returns the root id.
func (p *Project) ID() string {
	return p.tree.Root().ID()
}

// Tree returns the indexed tree for introspection.
func (p *Project) Tree() *tree.Tree {
	return p.tree
}

// Post delivers an event to the channel of nodeID.
func (p *Project) Post(nodeID string, e progress.Event) error {
	return p.tree.Post(nodeID, e)
}

// Subscribe attaches to the summaries of nodeID. The current summary is
// delivered first.
func (p *Project) Subscribe(ctx context.Context, nodeID string) (<-chan progress.Summary, error) {
	return p.tree.Subscribe(ctx, nodeID)
}

// Summary returns the current summary of nodeID.
func (p *Project) Summary(nodeID string) (progress.Summary, error) {
	return p.tree.Summary(nodeID)
}

// PostSolve reports solved units to the project-wide channel.
func (p *Project) PostSolve(count int) error {
	return p.tree.PostSolve(count)
}

// PostResolve reports a realization resolved on its observation mesh.
func (p *Project) PostResolve(realizationID string, count int) error {
	return p.tree.PostResolve(realizationID, count)
}

// Delivery is an event addressed to a node. An empty Node routes the way a
// solver does: Solve events go to the root, Resolve events go to the
// observation mesh owning the realization named by the event id.
type Delivery struct {
	Node string `json:"node,omitempty" yaml:"node,omitempty"`
	progress.Event
}

// UnmarshalJSON implements json.Unmarshaler. The embedded event's decoder
// would otherwise swallow the node field.
func (d *Delivery) UnmarshalJSON(data []byte) error {
	var addr struct {
		Node string `json:"node"`
	}
	if err := json.Unmarshal(data, &addr); err != nil {
		return err
	}
	var e progress.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	*d = Delivery{Node: addr.Node, Event: e}
	return nil
}

// Deliver routes d.
func (p *Project) Deliver(d Delivery) error {
	var err error
	switch {
	case d.Node != "":
		err = p.tree.Post(d.Node, d.Event)
	case d.Type == progress.Resolve:
		err = p.tree.PostResolve(d.ID, d.Count)
	default:
		err = p.tree.Post(p.ID(), d.Event)
	}
	if err != nil {
		p.logger.Debug("Delivery rejected", "node", d.Node, "type", d.Type.String(), "err", err)
	}
	return err
}

// Record encodes the current tree.
func (p *Project) Record() (record.Record, error) {
	return record.Encode(p.tree.Root())
}

// Close ends every subscription. Later posts fail with progress.ErrClosed.
func (p *Project) Close() {
	p.closeOnce.Do(func() {
		p.tree.Close()
		p.logger.Debug("Project closed")
	})
}
