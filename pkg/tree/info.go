package tree

import "github.com/aretw0/arche/pkg/domain"

// Info is a serializable description of one node in its tree.
type Info struct {
	ID         string      `json:"id" yaml:"id"`
	OwnerID    string      `json:"ownerId" yaml:"ownerId"`
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Kind       domain.Kind `json:"kind" yaml:"kind"`
	Type       []string    `json:"type" yaml:"type"`
	Depth      int         `json:"depth" yaml:"depth"`
	Parent     string      `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children   []string    `json:"children,omitempty" yaml:"children,omitempty"`
	Aggregates bool        `json:"aggregates" yaml:"aggregates"`
	FileID     string      `json:"fileId,omitempty" yaml:"fileId,omitempty"`
	Parameters any         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Describe returns the Info of n, which must belong to t.
func (t *Tree) Describe(n domain.Node) Info {
	info := Info{
		ID:      n.ID(),
		OwnerID: n.OwnerID(),
		Name:    n.Name(),
		Kind:    n.Kind(),
		Type:    n.Type(),
		Parent:  t.parents[n.ID()],
	}
	for id := info.Parent; id != ""; id = t.parents[id] {
		info.Depth++
	}
	if c, ok := n.(domain.Container); ok {
		for _, child := range c.Children() {
			info.Children = append(info.Children, child.ID())
		}
	}
	if _, ok := n.(domain.Aggregating); ok {
		info.Aggregates = true
	}
	if f, ok := n.(domain.FileReference); ok {
		info.FileID = f.FileID()
	}
	if p, ok := n.(domain.Parameterized); ok {
		info.Parameters = describeParams(p.Parameters())
	}
	return info
}

// AxisInfo is the serializable view of a boundary-condition axis. Field holds
// the persisted form (number or expression source), or a placeholder for
// fields backed by Go functions.
type AxisInfo struct {
	Type  string `json:"type" yaml:"type"`
	Field any    `json:"field" yaml:"field"`
}

func describeParams(params any) any {
	bc, ok := params.(domain.BoundaryConditionParams)
	if !ok {
		return params
	}
	return map[string]AxisInfo{
		"dipAxis":    describeAxis(bc.DipAxis),
		"strikeAxis": describeAxis(bc.StrikeAxis),
		"normalAxis": describeAxis(bc.NormalAxis),
	}
}

func describeAxis(a domain.Axis) AxisInfo {
	v, err := a.Field.Encode()
	if err != nil {
		v = a.Field.String()
	}
	return AxisInfo{Type: a.Type, Field: v}
}

// Infos describes every node in pre-order.
func (t *Tree) Infos() []Info {
	out := make([]Info, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.Describe(n))
	}
	return out
}
