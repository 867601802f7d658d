package domain

// Group is a pure container. Its kind only classifies it: folders of each
// family, discontinuities and observations share this shape.
type Group struct {
	base
	children
}

func newGroup(kind Kind, a Attrs) (*Group, error) {
	b, err := newBase(kind, a, nil)
	if err != nil {
		return nil, err
	}
	c, err := newChildren(kind, a.Children, nil)
	if err != nil {
		return nil, err
	}
	return &Group{base: b, children: c}, nil
}

// NewFolder constructs a generic folder.
func NewFolder(a Attrs) (*Group, error) { return newGroup(KindFolder, a) }

// NewFolderDiscontinuity constructs the folder holding discontinuities.
func NewFolderDiscontinuity(a Attrs) (*Group, error) { return newGroup(KindFolderDiscontinuity, a) }

// NewFolderObservation constructs the folder holding observations.
func NewFolderObservation(a Attrs) (*Group, error) { return newGroup(KindFolderObservation, a) }

// NewFolderRemote constructs the folder holding remote stresses.
func NewFolderRemote(a Attrs) (*Group, error) { return newGroup(KindFolderRemote, a) }

// NewDiscontinuity constructs a discontinuity; its meshes, boundary
// conditions and constraints are children.
func NewDiscontinuity(a Attrs) (*Group, error) { return newGroup(KindDiscontinuity, a) }

// NewObservation constructs an observation grouping.
func NewObservation(a Attrs) (*Group, error) { return newGroup(KindObservation, a) }

// NewPlaneObservation constructs a planar observation grouping.
func NewPlaneObservation(a Attrs) (*Group, error) { return newGroup(KindPlaneObservation, a) }
