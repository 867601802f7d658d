package domain

import (
	"github.com/aretw0/arche/pkg/progress"
)

var (
	meshTags        = []string{"mesh"}
	realizationTags = []string{"dataframe"}
)

// File is a leaf referencing external content.
type File struct {
	base
	fileID string
}

// NewFile constructs a file node. fileID is required.
func NewFile(a Attrs, fileID string) (*File, error) {
	b, err := newBase(KindFile, a, nil)
	if err != nil {
		return nil, err
	}
	if err := noChildren(KindFile, a); err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, constructionError(KindFile, "fileId", ErrMissingField)
	}
	return &File{base: b, fileID: fileID}, nil
}

// FileID implements FileReference.
func (f *File) FileID() string { return f.fileID }

// MeshSource identifies mesh content and its extent. Both fields are required.
type MeshSource struct {
	FileID      string
	BoundingBox *Box
}

func (s MeshSource) validate(kind Kind) error {
	if s.FileID == "" {
		return constructionError(kind, "fileId", ErrMissingField)
	}
	if s.BoundingBox == nil {
		return constructionError(kind, "boundingBox", ErrMissingField)
	}
	return nil
}

// Mesh is a leaf surface mesh (plain or discontinuity).
type Mesh struct {
	base
	fileID string
	box    Box
}

func newMesh(kind Kind, a Attrs, src MeshSource) (*Mesh, error) {
	b, err := newBase(kind, a, meshTags)
	if err != nil {
		return nil, err
	}
	if err := noChildren(kind, a); err != nil {
		return nil, err
	}
	if err := src.validate(kind); err != nil {
		return nil, err
	}
	return &Mesh{base: b, fileID: src.FileID, box: *src.BoundingBox}, nil
}

// NewMesh constructs a mesh node.
func NewMesh(a Attrs, src MeshSource) (*Mesh, error) {
	return newMesh(KindMesh, a, src)
}

// NewDiscontinuityMesh constructs the mesh of a discontinuity.
func NewDiscontinuityMesh(a Attrs, src MeshSource) (*Mesh, error) {
	return newMesh(KindDiscontinuityMesh, a, src)
}

// FileID implements FileReference.
func (m *Mesh) FileID() string { return m.fileID }

// BoundingBox returns the mesh extent.
func (m *Mesh) BoundingBox() Box { return m.box }

// ObservationMesh is a mesh on which solutions are resolved. Its children are
// realizations and its progress channel folds Resolve events only, tracking
// the contributing realization ids.
type ObservationMesh struct {
	base
	children
	fileID   string
	box      Box
	progress *progress.Channel
}

// NewObservationMesh constructs an observation mesh. Children must be
// realizations; nil children yield an empty list.
func NewObservationMesh(a Attrs, src MeshSource, opts ...progress.Option) (*ObservationMesh, error) {
	b, err := newBase(KindObservationMesh, a, meshTags)
	if err != nil {
		return nil, err
	}
	if err := src.validate(KindObservationMesh); err != nil {
		return nil, err
	}
	c, err := newChildren(KindObservationMesh, a.Children, func(n Node) bool {
		return n.Kind() == KindRealization
	})
	if err != nil {
		return nil, err
	}

	opts = append([]progress.Option{progress.WithName(b.id)}, opts...)
	return &ObservationMesh{
		base:     b,
		children: c,
		fileID:   src.FileID,
		box:      *src.BoundingBox,
		progress: progress.NewResolveChannel(opts...),
	}, nil
}

// FileID implements FileReference.
func (m *ObservationMesh) FileID() string { return m.fileID }

// BoundingBox returns the mesh extent.
func (m *ObservationMesh) BoundingBox() Box { return m.box }

// Progress returns the resolve channel.
func (m *ObservationMesh) Progress() *progress.Channel { return m.progress }

// Realizations returns the typed children.
func (m *ObservationMesh) Realizations() []*Realization {
	out := make([]*Realization, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n.(*Realization))
	}
	return out
}

// RealizationSource links a computed solution to its files. All fields are required.
type RealizationSource struct {
	FileID     string
	MeshFileID string
	SolutionID string
}

// Realization is one computed solution instance on a mesh.
type Realization struct {
	base
	src RealizationSource
}

// NewRealization constructs a realization.
func NewRealization(a Attrs, src RealizationSource) (*Realization, error) {
	b, err := newBase(KindRealization, a, realizationTags)
	if err != nil {
		return nil, err
	}
	if err := noChildren(KindRealization, a); err != nil {
		return nil, err
	}
	switch {
	case src.FileID == "":
		return nil, constructionError(KindRealization, "fileId", ErrMissingField)
	case src.MeshFileID == "":
		return nil, constructionError(KindRealization, "meshFileId", ErrMissingField)
	case src.SolutionID == "":
		return nil, constructionError(KindRealization, "solutionId", ErrMissingField)
	}
	return &Realization{base: b, src: src}, nil
}

// FileID implements FileReference.
func (r *Realization) FileID() string { return r.src.FileID }

// MeshFileID returns the file id of the mesh the solution was resolved on.
func (r *Realization) MeshFileID() string { return r.src.MeshFileID }

// SolutionID returns the solver's solution id.
func (r *Realization) SolutionID() string { return r.src.SolutionID }
