package tree

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/progress"
)

var (
	// ErrDuplicateID is returned when two nodes share an id, or one node is
	// reachable through more than one parent.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrNodeNotFound is returned when no node has the requested id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotAggregating is returned when events are routed to a node without
	// a progress channel.
	ErrNotAggregating = errors.New("node does not aggregate events")

	// ErrNotRealization is returned by PostResolve when the id does not name a
	// realization owned by an observation mesh.
	ErrNotRealization = errors.New("node is not a realization of an observation mesh")

	// SkipChildren can be returned by a WalkFunc to skip the subtree of the
	// current node.
	SkipChildren = errors.New("skip children")
)

// WalkFunc visits a node during Walk. depth is 0 for the root.
type WalkFunc func(n domain.Node, depth int) error

// Tree is an indexed project tree. Safe for concurrent use.
type Tree struct {
	root    *domain.Root
	order   []domain.Node
	index   map[string]domain.Node
	parents map[string]string
}

// New indexes every node reachable from root.
func New(root *domain.Root) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrNodeNotFound)
	}

	t := &Tree{
		root:    root,
		index:   make(map[string]domain.Node),
		parents: make(map[string]string),
	}

	var visit func(n domain.Node, parent string) error
	visit = func(n domain.Node, parent string) error {
		id := n.ID()
		if _, dup := t.index[id]; dup {
			return fmt.Errorf("%w: %q (%s)", ErrDuplicateID, id, n.Kind())
		}
		t.index[id] = n
		t.order = append(t.order, n)
		if parent != "" {
			t.parents[id] = parent
		}
		if c, ok := n.(domain.Container); ok {
			for _, child := range c.Children() {
				if err := visit(child, id); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit(root, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *domain.Root { return t.root }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.order) }

// Get returns the node with the given id.
func (t *Tree) Get(id string) (domain.Node, error) {
	n, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return n, nil
}

// Parent returns the parent of id. The root has no parent and reports false.
func (t *Tree) Parent(id string) (domain.Node, bool) {
	pid, ok := t.parents[id]
	if !ok {
		return nil, false
	}
	return t.index[pid], true
}

// Nodes returns every node in pre-order.
func (t *Tree) Nodes() []domain.Node {
	return slices.Clone(t.order)
}

// Walk visits the tree in pre-order. Returning SkipChildren from fn skips the
// node's subtree; any other error stops the walk and is returned.
func (t *Tree) Walk(fn WalkFunc) error {
	var walk func(n domain.Node, depth int) error
	walk = func(n domain.Node, depth int) error {
		if err := fn(n, depth); err != nil {
			if errors.Is(err, SkipChildren) {
				return nil
			}
			return err
		}
		c, ok := n.(domain.Container)
		if !ok {
			return nil
		}
		for _, child := range c.Children() {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.root, 0)
}

// WithTag returns the nodes carrying tag among their type tags, in pre-order.
func (t *Tree) WithTag(tag string) []domain.Node {
	return t.filter(func(n domain.Node) bool {
		return slices.Contains(n.Type(), tag)
	})
}

// OfKind returns the nodes of kind k, in pre-order.
func (t *Tree) OfKind(k domain.Kind) []domain.Node {
	return t.filter(func(n domain.Node) bool {
		return n.Kind() == k
	})
}

// Aggregators returns the nodes that own a progress channel, in pre-order.
func (t *Tree) Aggregators() []domain.Aggregating {
	var out []domain.Aggregating
	for _, n := range t.order {
		if a, ok := n.(domain.Aggregating); ok {
			out = append(out, a)
		}
	}
	return out
}

func (t *Tree) filter(keep func(domain.Node) bool) []domain.Node {
	var out []domain.Node
	for _, n := range t.order {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Channel returns the progress channel of the node with the given id.
func (t *Tree) Channel(id string) (*progress.Channel, error) {
	n, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	a, ok := n.(domain.Aggregating)
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrNotAggregating, id, n.Kind())
	}
	return a.Progress(), nil
}

// Post delivers e to the channel of node id.
func (t *Tree) Post(id string, e progress.Event) error {
	ch, err := t.Channel(id)
	if err != nil {
		return err
	}
	return ch.Post(e)
}

// Subscribe attaches to the channel of node id. See progress.Channel.Subscribe.
func (t *Tree) Subscribe(ctx context.Context, id string) (<-chan progress.Summary, error) {
	ch, err := t.Channel(id)
	if err != nil {
		return nil, err
	}
	return ch.Subscribe(ctx), nil
}

// Summary returns the current summary of node id.
func (t *Tree) Summary(id string) (progress.Summary, error) {
	ch, err := t.Channel(id)
	if err != nil {
		return progress.Summary{}, err
	}
	return ch.Snapshot(), nil
}

// PostSolve reports count solved units to the project-wide channel.
func (t *Tree) PostSolve(count int) error {
	return t.root.Progress().Post(progress.Event{Type: progress.Solve, Count: count})
}

// PostResolve reports a resolved realization to the observation mesh that
// owns it, using the realization id as the event id.
func (t *Tree) PostResolve(realizationID string, count int) error {
	n, err := t.Get(realizationID)
	if err != nil {
		return err
	}
	if n.Kind() != domain.KindRealization {
		return fmt.Errorf("%w: %q is %s", ErrNotRealization, realizationID, n.Kind())
	}
	parent, ok := t.Parent(realizationID)
	if !ok {
		return fmt.Errorf("%w: %q has no parent", ErrNotRealization, realizationID)
	}
	mesh, ok := parent.(*domain.ObservationMesh)
	if !ok {
		return fmt.Errorf("%w: %q is under %s", ErrNotRealization, realizationID, parent.Kind())
	}
	return mesh.Progress().Post(progress.Event{Type: progress.Resolve, Count: count, ID: realizationID})
}

// Close closes every progress channel, ending all subscriptions.
func (t *Tree) Close() {
	for _, a := range t.Aggregators() {
		a.Progress().Close()
	}
}
