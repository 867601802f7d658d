package domain

import (
	"fmt"
	"slices"

	"github.com/aretw0/arche/pkg/progress"
)

// Node is the capability set shared by every variant.
// The interface is closed: only this package provides implementations.
type Node interface {
	ID() string
	OwnerID() string
	Name() string
	// Type returns the classification tags, used for filtering only.
	Type() []string
	Kind() Kind

	node()
}

// Container is implemented by kinds that hold ordered children.
type Container interface {
	Node
	Children() []Node
}

// Parameterized is implemented by kinds with a parameter record.
type Parameterized interface {
	Node
	Parameters() any
}

// FileReference is implemented by kinds that point at external content.
type FileReference interface {
	Node
	FileID() string
}

// Aggregating is implemented by kinds that carry a progress channel.
type Aggregating interface {
	Node
	Progress() *progress.Channel
}

// Attrs is the record shared by every constructor.
// ID is generated when empty; Type is ignored by kinds with fixed tags;
// Children must be empty for leaf kinds.
type Attrs struct {
	ID       string
	OwnerID  string
	Name     string
	Type     []string
	Children []Node
}

type base struct {
	id      string
	ownerID string
	name    string
	tags    []string
	kind    Kind
}

func (b *base) ID() string      { return b.id }
func (b *base) OwnerID() string { return b.ownerID }
func (b *base) Name() string    { return b.name }
func (b *base) Kind() Kind      { return b.kind }
func (b *base) Type() []string  { return slices.Clone(b.tags) }
func (b *base) node()           {}

// newBase validates the common attributes. fixed, when non-nil, replaces the
// caller-supplied type tags.
func newBase(kind Kind, a Attrs, fixed []string) (base, error) {
	if a.OwnerID == "" {
		return base{}, constructionError(kind, "ownerId", ErrMissingField)
	}

	id := a.ID
	if id == "" {
		id = NewID()
	}

	tags := fixed
	if tags == nil {
		tags = a.Type
	}
	tags = slices.Clone(tags)
	if tags == nil {
		tags = []string{}
	}

	return base{
		id:      id,
		ownerID: a.OwnerID,
		name:    a.Name,
		tags:    tags,
		kind:    kind,
	}, nil
}

// noChildren rejects children on leaf kinds.
func noChildren(kind Kind, a Attrs) error {
	if len(a.Children) > 0 {
		return constructionError(kind, "children", ErrLeafChildren)
	}
	return nil
}

// children is embedded by container variants.
type children struct {
	nodes []Node
}

// Children returns a copy of the ordered child list.
func (c *children) Children() []Node {
	return slices.Clone(c.nodes)
}

// newChildren copies the caller's slice and applies accept to every child.
func newChildren(kind Kind, in []Node, accept func(Node) bool) (children, error) {
	out := make([]Node, 0, len(in))
	for _, child := range in {
		if child == nil {
			return children{}, constructionError(kind, "children", ErrInvalidChild)
		}
		if child.Kind() == KindRoot || (accept != nil && !accept(child)) {
			return children{}, &ConstructionError{
				Kind:  kind,
				Field: "children",
				Err:   invalidChild(child),
			}
		}
		out = append(out, child)
	}
	return children{nodes: out}, nil
}

func invalidChild(n Node) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidChild, n.Kind(), n.ID())
}
