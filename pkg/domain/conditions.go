package domain

var (
	boundaryConditionTags = []string{"boundary-condition"}
	constraintTags        = []string{"constraint"}
)

// BoundaryCondition is a leaf with per-axis conditions.
type BoundaryCondition struct {
	base
	params BoundaryConditionParams
}

// NewBoundaryCondition constructs a boundary condition. nil params lock every
// axis; an axis with an empty type is locked.
func NewBoundaryCondition(a Attrs, params *BoundaryConditionParams) (*BoundaryCondition, error) {
	b, err := newBase(KindBoundaryCondition, a, boundaryConditionTags)
	if err != nil {
		return nil, err
	}
	if err := noChildren(KindBoundaryCondition, a); err != nil {
		return nil, err
	}

	p := DefaultBoundaryConditionParams()
	if params != nil {
		p = *params
		for _, axis := range []*Axis{&p.DipAxis, &p.StrikeAxis, &p.NormalAxis} {
			if axis.Type == "" {
				axis.Type = AxisLocked
			}
		}
	}
	return &BoundaryCondition{base: b, params: p}, nil
}

// Params returns the typed parameters.
func (bc *BoundaryCondition) Params() BoundaryConditionParams { return bc.params }

// Parameters implements Parameterized.
func (bc *BoundaryCondition) Parameters() any { return bc.params }

// AndersonianRemote is a leaf describing the far-field stress.
type AndersonianRemote struct {
	base
	params AndersonianParams
}

// NewAndersonianRemote constructs a remote stress. nil params yield zeros.
func NewAndersonianRemote(a Attrs, params *AndersonianParams) (*AndersonianRemote, error) {
	b, err := newBase(KindAndersonianRemote, a, nil)
	if err != nil {
		return nil, err
	}
	if err := noChildren(KindAndersonianRemote, a); err != nil {
		return nil, err
	}

	p := DefaultAndersonianParams()
	if params != nil {
		p = *params
	}
	return &AndersonianRemote{base: b, params: p}, nil
}

// Params returns the typed parameters.
func (r *AndersonianRemote) Params() AndersonianParams { return r.params }

// Parameters implements Parameterized.
func (r *AndersonianRemote) Parameters() any { return r.params }

// Constraint is a leaf constraining a discontinuity. Its parameter record
// depends on the kind; Parameters returns the typed value.
type Constraint struct {
	base
	params any
}

func newConstraint(kind Kind, a Attrs, params any) (*Constraint, error) {
	b, err := newBase(kind, a, constraintTags)
	if err != nil {
		return nil, err
	}
	if err := noChildren(kind, a); err != nil {
		return nil, err
	}
	return &Constraint{base: b, params: params}, nil
}

// NewCoulombConstraint constructs an isotropic friction constraint.
func NewCoulombConstraint(a Attrs, params *CoulombParams) (*Constraint, error) {
	p := DefaultCoulombParams()
	if params != nil {
		p = *params
	}
	return newConstraint(KindCoulombConstraint, a, p)
}

// NewCoulombOrthoConstraint constructs an orthotropic friction constraint.
func NewCoulombOrthoConstraint(a Attrs, params *CoulombOrthoParams) (*Constraint, error) {
	p := DefaultCoulombOrthoParams()
	if params != nil {
		p = *params
	}
	return newConstraint(KindCoulombOrthoConstraint, a, p)
}

// NewDisplacementConstraint constructs a per-axis displacement bound.
func NewDisplacementConstraint(a Attrs, params *DisplacementParams) (*Constraint, error) {
	p := DefaultDisplacementParams()
	if params != nil {
		p = *params
	}
	return newConstraint(KindDisplacementConstraint, a, p)
}

// NewDisplacementNormConstraint constructs a displacement norm bound.
func NewDisplacementNormConstraint(a Attrs, params *DisplacementNormParams) (*Constraint, error) {
	p := DefaultDisplacementNormParams()
	if params != nil {
		p = *params
	}
	return newConstraint(KindDisplacementNormConstraint, a, p)
}

// Parameters implements Parameterized.
func (c *Constraint) Parameters() any { return c.params }
