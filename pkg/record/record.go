package record

import (
	"errors"

	"github.com/aretw0/arche/pkg/domain"
)

// SupportedVersion is the newest record format this package reads and the
// one it writes.
const SupportedVersion = 1

var (
	// ErrUnsupportedVersion is returned for records newer than SupportedVersion.
	ErrUnsupportedVersion = errors.New("unsupported record version")

	// ErrInvalidParameters is returned when a parameter map does not decode
	// into the kind's parameter record.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrUnencodableField is returned when a node holds a Go function field.
	ErrUnencodableField = errors.New("field cannot be encoded")

	// ErrNotRoot is returned by BuildTree when the top record is not a root.
	ErrNotRoot = errors.New("record is not a root")
)

// Record is the persisted form of a node and its subtree.
// Only the attributes relevant to Kind are populated.
type Record struct {
	Version     int               `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	Kind        string            `json:"kind" yaml:"kind" mapstructure:"kind"`
	ID          string            `json:"id" yaml:"id" mapstructure:"id"`
	OwnerID     string            `json:"ownerId" yaml:"ownerId" mapstructure:"ownerId"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Type        []string          `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Folders     map[string]string `json:"folders,omitempty" yaml:"folders,omitempty" mapstructure:"folders"`
	Parameters  map[string]any    `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
	FileID      string            `json:"fileId,omitempty" yaml:"fileId,omitempty" mapstructure:"fileId"`
	MeshFileID  string            `json:"meshFileId,omitempty" yaml:"meshFileId,omitempty" mapstructure:"meshFileId"`
	SolutionID  string            `json:"solutionId,omitempty" yaml:"solutionId,omitempty" mapstructure:"solutionId"`
	BoundingBox *domain.Box       `json:"boundingBox,omitempty" yaml:"boundingBox,omitempty" mapstructure:"boundingBox"`
	Children    []Record          `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// Count returns the number of records in the subtree, including r.
func (r Record) Count() int {
	n := 1
	for _, c := range r.Children {
		n += c.Count()
	}
	return n
}
