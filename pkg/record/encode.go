package record

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/arche/pkg/domain"
)

// Encode converts a node and its subtree into a record stamped with
// SupportedVersion. Boundary conditions holding Go function fields fail with
// ErrUnencodableField.
func Encode(n domain.Node) (Record, error) {
	rec, err := encode(n, "")
	if err != nil {
		return Record{}, err
	}
	rec.Version = SupportedVersion
	return rec, nil
}

func encode(n domain.Node, path string) (Record, error) {
	rec := Record{
		Kind:    string(n.Kind()),
		ID:      n.ID(),
		OwnerID: n.OwnerID(),
		Name:    n.Name(),
		Type:    n.Type(),
	}
	if len(rec.Type) == 0 {
		rec.Type = nil
	}

	var err error
	switch v := n.(type) {
	case *domain.Root:
		rec.Folders = v.Folders()
		if len(rec.Folders) == 0 {
			rec.Folders = nil
		}
	case *domain.Group:
	case *domain.Material:
		rec.Parameters, err = flatParams(v.Params())
	case *domain.File:
		rec.FileID = v.FileID()
	case *domain.Mesh:
		box := v.BoundingBox()
		rec.FileID, rec.BoundingBox = v.FileID(), &box
	case *domain.ObservationMesh:
		box := v.BoundingBox()
		rec.FileID, rec.BoundingBox = v.FileID(), &box
	case *domain.BoundaryCondition:
		rec.Parameters, err = boundaryParams(v.Params())
	case *domain.AndersonianRemote:
		rec.Parameters, err = flatParams(v.Params())
	case *domain.Constraint:
		rec.Parameters, err = flatParams(v.Parameters())
	case *domain.Realization:
		rec.FileID, rec.MeshFileID, rec.SolutionID = v.FileID(), v.MeshFileID(), v.SolutionID()
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownKind, string(n.Kind()))
	}
	if err != nil {
		return Record{}, wrapPath(path, err)
	}

	if c, ok := n.(domain.Container); ok {
		for i, child := range c.Children() {
			cr, err := encode(child, childPath(path, i))
			if err != nil {
				return Record{}, err
			}
			rec.Children = append(rec.Children, cr)
		}
	}
	return rec, nil
}

func flatParams(params any) (map[string]any, error) {
	var out map[string]any
	if err := mapstructure.Decode(params, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return out, nil
}

func boundaryParams(p domain.BoundaryConditionParams) (map[string]any, error) {
	out := make(map[string]any, 3)
	for name, axis := range map[string]domain.Axis{
		"dipAxis":    p.DipAxis,
		"strikeAxis": p.StrikeAxis,
		"normalAxis": p.NormalAxis,
	} {
		v, err := axis.Field.Encode()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnencodableField, name, err)
		}
		out[name] = map[string]any{"type": axis.Type, "field": v}
	}
	return out, nil
}
