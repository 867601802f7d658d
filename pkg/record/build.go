package record

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/field"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/tree"
)

// Option configures Build.
type Option func(*builder)

// WithChannelOptions passes opts to the progress channel of every
// aggregating node that is built.
func WithChannelOptions(opts ...progress.Option) Option {
	return func(b *builder) {
		b.channel = append(b.channel, opts...)
	}
}

type builder struct {
	channel []progress.Option
}

// Build reconstructs the node described by rec. Children are built first and
// linked in stored order. Errors name the failing record by path, e.g.
// "children[2].children[0]".
func Build(rec Record, opts ...Option) (domain.Node, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b.build(rec, "")
}

// BuildTree builds rec, which must describe a root, and indexes the result.
func BuildTree(rec Record, opts ...Option) (*tree.Tree, error) {
	if rec.Kind != string(domain.KindRoot) {
		return nil, fmt.Errorf("%w: kind %q", ErrNotRoot, rec.Kind)
	}
	n, err := Build(rec, opts...)
	if err != nil {
		return nil, err
	}
	return tree.New(n.(*domain.Root))
}

func (b *builder) build(rec Record, path string) (domain.Node, error) {
	if rec.Version > SupportedVersion {
		return nil, wrapPath(path, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version))
	}
	kind, err := domain.ParseKind(rec.Kind)
	if err != nil {
		return nil, wrapPath(path, err)
	}

	children := make([]domain.Node, 0, len(rec.Children))
	for i, c := range rec.Children {
		child, err := b.build(c, childPath(path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	n, err := b.construct(kind, rec, domain.Attrs{
		ID:       rec.ID,
		OwnerID:  rec.OwnerID,
		Name:     rec.Name,
		Type:     rec.Type,
		Children: children,
	})
	if err != nil {
		return nil, wrapPath(path, err)
	}
	return n, nil
}

func (b *builder) construct(kind domain.Kind, rec Record, a domain.Attrs) (domain.Node, error) {
	mesh := domain.MeshSource{FileID: rec.FileID, BoundingBox: rec.BoundingBox}

	switch kind {
	case domain.KindRoot:
		return asNode(domain.NewRoot(a, rec.Folders, b.channel...))
	case domain.KindMaterial:
		p, err := decodeParams(rec.Parameters, domain.DefaultMaterialParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewMaterial(a, p))
	case domain.KindFolder:
		return asNode(domain.NewFolder(a))
	case domain.KindFolderDiscontinuity:
		return asNode(domain.NewFolderDiscontinuity(a))
	case domain.KindFolderObservation:
		return asNode(domain.NewFolderObservation(a))
	case domain.KindFolderRemote:
		return asNode(domain.NewFolderRemote(a))
	case domain.KindDiscontinuity:
		return asNode(domain.NewDiscontinuity(a))
	case domain.KindObservation:
		return asNode(domain.NewObservation(a))
	case domain.KindPlaneObservation:
		return asNode(domain.NewPlaneObservation(a))
	case domain.KindFile:
		return asNode(domain.NewFile(a, rec.FileID))
	case domain.KindMesh:
		return asNode(domain.NewMesh(a, mesh))
	case domain.KindDiscontinuityMesh:
		return asNode(domain.NewDiscontinuityMesh(a, mesh))
	case domain.KindObservationMesh:
		return asNode(domain.NewObservationMesh(a, mesh, b.channel...))
	case domain.KindBoundaryCondition:
		p, err := decodeParams(rec.Parameters, domain.DefaultBoundaryConditionParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewBoundaryCondition(a, p))
	case domain.KindAndersonianRemote:
		p, err := decodeParams(rec.Parameters, domain.DefaultAndersonianParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewAndersonianRemote(a, p))
	case domain.KindCoulombConstraint:
		p, err := decodeParams(rec.Parameters, domain.DefaultCoulombParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewCoulombConstraint(a, p))
	case domain.KindCoulombOrthoConstraint:
		p, err := decodeParams(rec.Parameters, domain.DefaultCoulombOrthoParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewCoulombOrthoConstraint(a, p))
	case domain.KindDisplacementConstraint:
		p, err := decodeParams(rec.Parameters, domain.DefaultDisplacementParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewDisplacementConstraint(a, p))
	case domain.KindDisplacementNormConstraint:
		p, err := decodeParams(rec.Parameters, domain.DefaultDisplacementNormParams())
		if err != nil {
			return nil, err
		}
		return asNode(domain.NewDisplacementNormConstraint(a, p))
	case domain.KindRealization:
		return asNode(domain.NewRealization(a, domain.RealizationSource{
			FileID:     rec.FileID,
			MeshFileID: rec.MeshFileID,
			SolutionID: rec.SolutionID,
		}))
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, string(kind))
	}
}

func asNode[T domain.Node](n T, err error) (domain.Node, error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}

var fieldType = reflect.TypeOf(field.Field{})

// fieldHook turns persisted numbers and expression strings into fields.
func fieldHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != fieldType {
		return data, nil
	}
	return field.Decode(data)
}

// decodeParams overlays raw onto the defaults. Keys match tags exactly.
func decodeParams[T any](raw map[string]any, defaults T) (*T, error) {
	out := defaults
	if len(raw) == 0 {
		return &out, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(fieldHook),
		WeaklyTypedInput: true,
		MatchName:        func(key, name string) bool { return key == name },
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return &out, nil
}

func childPath(parent string, i int) string {
	if parent == "" {
		return fmt.Sprintf("children[%d]", i)
	}
	return fmt.Sprintf("%s.children[%d]", parent, i)
}

func wrapPath(path string, err error) error {
	if path == "" {
		return fmt.Errorf("record: %w", err)
	}
	return fmt.Errorf("record %s: %w", path, err)
}
