package domain

// Material is a leaf holding elastic properties.
type Material struct {
	base
	params MaterialParams
}

// NewMaterial constructs a material. nil params yield DefaultMaterialParams.
func NewMaterial(a Attrs, params *MaterialParams) (*Material, error) {
	b, err := newBase(KindMaterial, a, nil)
	if err != nil {
		return nil, err
	}
	if err := noChildren(KindMaterial, a); err != nil {
		return nil, err
	}

	p := DefaultMaterialParams()
	if params != nil {
		p = *params
	}
	return &Material{base: b, params: p}, nil
}

// Params returns the typed parameters.
func (m *Material) Params() MaterialParams { return m.params }

// Parameters implements Parameterized.
func (m *Material) Parameters() any { return m.params }
