package domain

import "fmt"

// Kind is the fixed variant tag of a node.
type Kind string

const (
	KindRoot                       Kind = "root"
	KindMaterial                   Kind = "material"
	KindFolder                     Kind = "folder"
	KindFolderDiscontinuity        Kind = "folder-discontinuity"
	KindFolderObservation          Kind = "folder-observation"
	KindFolderRemote               Kind = "folder-remote"
	KindFile                       Kind = "file"
	KindMesh                       Kind = "mesh"
	KindDiscontinuityMesh          Kind = "discontinuity-mesh"
	KindObservationMesh            Kind = "observation-mesh"
	KindBoundaryCondition          Kind = "boundary-condition"
	KindDiscontinuity              Kind = "discontinuity"
	KindObservation                Kind = "observation"
	KindPlaneObservation           Kind = "plane-observation"
	KindAndersonianRemote          Kind = "andersonian-remote"
	KindCoulombConstraint          Kind = "coulomb-constraint"
	KindCoulombOrthoConstraint     Kind = "coulomb-ortho-constraint"
	KindDisplacementConstraint     Kind = "displacement-constraint"
	KindDisplacementNormConstraint Kind = "displacement-norm-constraint"
	KindRealization                Kind = "realization"
)

// Role is the structural role of a kind.
type Role int

const (
	RoleLeaf Role = iota
	RoleContainer
)

func (r Role) String() string {
	if r == RoleContainer {
		return "container"
	}
	return "leaf"
}

// Kinds returns every known kind in catalogue order.
func Kinds() []Kind {
	return []Kind{
		KindRoot, KindMaterial,
		KindFolder, KindFolderDiscontinuity, KindFolderObservation, KindFolderRemote,
		KindFile, KindMesh, KindDiscontinuityMesh, KindObservationMesh,
		KindBoundaryCondition,
		KindDiscontinuity, KindObservation, KindPlaneObservation,
		KindAndersonianRemote,
		KindCoulombConstraint, KindCoulombOrthoConstraint,
		KindDisplacementConstraint, KindDisplacementNormConstraint,
		KindRealization,
	}
}

// ParseKind validates a persisted kind tag.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, err := k.Role(); err != nil {
		return "", err
	}
	return k, nil
}

// Role returns the structural role of k.
func (k Kind) Role() (Role, error) {
	switch k {
	case KindRoot,
		KindFolder, KindFolderDiscontinuity, KindFolderObservation, KindFolderRemote,
		KindDiscontinuity, KindObservation, KindPlaneObservation,
		KindObservationMesh:
		return RoleContainer, nil
	case KindMaterial, KindFile, KindMesh, KindDiscontinuityMesh,
		KindBoundaryCondition, KindAndersonianRemote,
		KindCoulombConstraint, KindCoulombOrthoConstraint,
		KindDisplacementConstraint, KindDisplacementNormConstraint,
		KindRealization:
		return RoleLeaf, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// Aggregates reports whether nodes of kind k carry a progress channel.
func (k Kind) Aggregates() bool {
	return k == KindRoot || k == KindObservationMesh
}

func (k Kind) String() string {
	return string(k)
}
