package domain

import "github.com/aretw0/arche/pkg/field"

// AxisLocked is the default boundary-condition axis type.
const AxisLocked = "locked"

// Point is a position in model space.
type Point struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
	Z float64 `json:"z" yaml:"z" mapstructure:"z"`
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Point `json:"min" yaml:"min" mapstructure:"min"`
	Max Point `json:"max" yaml:"max" mapstructure:"max"`
}

// MaterialParams are the elastic properties of the host rock.
type MaterialParams struct {
	Poisson float64 `json:"poisson" yaml:"poisson" mapstructure:"poisson"`
	Young   float64 `json:"young" yaml:"young" mapstructure:"young"`
	Density float64 `json:"density" yaml:"density" mapstructure:"density"`
}

// DefaultMaterialParams returns {0, 0, 0}.
func DefaultMaterialParams() MaterialParams {
	return MaterialParams{}
}

// Axis is one boundary-condition component.
type Axis struct {
	Type  string      `json:"type" yaml:"type" mapstructure:"type"`
	Field field.Field `json:"field" yaml:"field" mapstructure:"field"`
}

// BoundaryConditionParams hold the dip, strike and normal components.
type BoundaryConditionParams struct {
	DipAxis    Axis `json:"dipAxis" yaml:"dipAxis" mapstructure:"dipAxis"`
	StrikeAxis Axis `json:"strikeAxis" yaml:"strikeAxis" mapstructure:"strikeAxis"`
	NormalAxis Axis `json:"normalAxis" yaml:"normalAxis" mapstructure:"normalAxis"`
}

// DefaultAxis is a locked axis with a constant zero field.
func DefaultAxis() Axis {
	return Axis{Type: AxisLocked, Field: field.Zero()}
}

// DefaultBoundaryConditionParams locks every axis with a zero field.
func DefaultBoundaryConditionParams() BoundaryConditionParams {
	return BoundaryConditionParams{
		DipAxis:    DefaultAxis(),
		StrikeAxis: DefaultAxis(),
		NormalAxis: DefaultAxis(),
	}
}

// AndersonianParams describe a remote stress in Anderson's convention:
// major and minor horizontal stresses, vertical stress and the azimuth.
type AndersonianParams struct {
	MajorHSigma float64 `json:"HSigma" yaml:"HSigma" mapstructure:"HSigma"`
	MinorHSigma float64 `json:"hSigma" yaml:"hSigma" mapstructure:"hSigma"`
	VSigma      float64 `json:"vSigma" yaml:"vSigma" mapstructure:"vSigma"`
	Theta       float64 `json:"theta" yaml:"theta" mapstructure:"theta"`
}

// DefaultAndersonianParams returns all zeros.
func DefaultAndersonianParams() AndersonianParams {
	return AndersonianParams{}
}

// CoulombParams is an isotropic Coulomb friction law.
type CoulombParams struct {
	Friction float64 `json:"friction" yaml:"friction" mapstructure:"friction"`
	Cohesion float64 `json:"cohesion" yaml:"cohesion" mapstructure:"cohesion"`
}

// DefaultCoulombParams returns {0, 0}.
func DefaultCoulombParams() CoulombParams {
	return CoulombParams{}
}

// CoulombOrthoParams is an orthotropic Coulomb friction law.
type CoulombOrthoParams struct {
	Theta          float64 `json:"theta" yaml:"theta" mapstructure:"theta"`
	FrictionDip    float64 `json:"frictionDip" yaml:"frictionDip" mapstructure:"frictionDip"`
	FrictionStrike float64 `json:"frictionStrike" yaml:"frictionStrike" mapstructure:"frictionStrike"`
}

// DefaultCoulombOrthoParams returns {0, 0, 0}.
func DefaultCoulombOrthoParams() CoulombOrthoParams {
	return CoulombOrthoParams{}
}

// DisplacementParams bound the displacement along one axis.
type DisplacementParams struct {
	Axis      string  `json:"axis" yaml:"axis" mapstructure:"axis"`
	Direction string  `json:"direction" yaml:"direction" mapstructure:"direction"`
	Value     float64 `json:"value" yaml:"value" mapstructure:"value"`
	Type      string  `json:"type" yaml:"type" mapstructure:"type"`
}

// DefaultDisplacementParams returns {axis "0", compression, 0, max}.
func DefaultDisplacementParams() DisplacementParams {
	return DisplacementParams{Axis: "0", Direction: "compression", Value: 0, Type: "max"}
}

// DisplacementNormParams bound the displacement norm.
type DisplacementNormParams struct {
	Direction string  `json:"direction" yaml:"direction" mapstructure:"direction"`
	Value     float64 `json:"value" yaml:"value" mapstructure:"value"`
	Type      string  `json:"type" yaml:"type" mapstructure:"type"`
}

// DefaultDisplacementNormParams returns {compression, 0, max}.
func DefaultDisplacementNormParams() DisplacementNormParams {
	return DisplacementNormParams{Direction: "compression", Value: 0, Type: "max"}
}

// DefaultParameters returns the default parameter record of kind, or nil for
// kinds without parameters.
func DefaultParameters(kind Kind) (any, error) {
	switch kind {
	case KindMaterial:
		return DefaultMaterialParams(), nil
	case KindBoundaryCondition:
		return DefaultBoundaryConditionParams(), nil
	case KindAndersonianRemote:
		return DefaultAndersonianParams(), nil
	case KindCoulombConstraint:
		return DefaultCoulombParams(), nil
	case KindCoulombOrthoConstraint:
		return DefaultCoulombOrthoParams(), nil
	case KindDisplacementConstraint:
		return DefaultDisplacementParams(), nil
	case KindDisplacementNormConstraint:
		return DefaultDisplacementNormParams(), nil
	default:
		if _, err := kind.Role(); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
