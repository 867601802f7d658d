package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arche/internal/presentation/graph"
	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/record"
	"github.com/aretw0/arche/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	box := &domain.Box{}
	tr, err := record.BuildTree(record.Record{
		Kind: "root", ID: "project", OwnerID: "u",
		Children: []record.Record{
			{Kind: "material", ID: "rock", OwnerID: "u", Name: `the "host" rock`},
			{Kind: "folder-discontinuity", ID: "faults", OwnerID: "u", Children: []record.Record{
				{Kind: "discontinuity", ID: "fault-1", OwnerID: "u", Children: []record.Record{
					{Kind: "discontinuity-mesh", ID: "fault-1.ts", OwnerID: "u", FileID: "f1", BoundingBox: box},
					{Kind: "boundary-condition", ID: "fault-1-bc", OwnerID: "u"},
				}},
			}},
			{Kind: "observation-mesh", ID: "grid", OwnerID: "u", FileID: "g", BoundingBox: box, Children: []record.Record{
				{Kind: "realization", ID: "r1", OwnerID: "u", FileID: "r1", MeshFileID: "g", SolutionID: "s"},
				{Kind: "realization", ID: "r2", OwnerID: "u", FileID: "r2", MeshFileID: "g", SolutionID: "s"},
			}},
		},
	})
	require.NoError(t, err)
	t.Cleanup(tr.Close)
	return tr
}

func TestGenerateMermaid(t *testing.T) {
	tr := sampleTree(t)
	got := graph.GenerateMermaid(tr, nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{"Root Shape", []string{`project(("project"))`}},
		{"Observation Mesh Shape", []string{`grid[["grid"]]`}},
		{"Mesh Shape", []string{`fault_1_ts{{"fault-1.ts"}}`}},
		{"Realization Shape", []string{`r1[("r1")]`}},
		{"Condition Shape", []string{`fault_1_bc>"fault-1-bc"]`}},
		{"Name Escaping", []string{`rock["the 'host' rock"]`}},
		{"Edges", []string{"project --> rock", "faults --> fault_1", "fault_1 --> fault_1_ts", "grid --> r2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}

	assert.True(t, strings.HasPrefix(got, "graph TD\n"))
	assert.NotContains(t, got, "classDef")
	assert.NotContains(t, got, "--> project")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	tr := sampleTree(t)
	require.NoError(t, tr.PostResolve("r2", 3))

	got := graph.GenerateMermaid(tr, graph.OverlayOf(tr))

	assert.Contains(t, got, `grid[["grid <br/> 3"]]`)
	assert.Contains(t, got, `project(("project <br/> 0"))`)
	assert.Contains(t, got, "class grid active;")
	assert.Contains(t, got, "class r2 resolved;")
	assert.NotContains(t, got, "class r1 resolved;")
	assert.NotContains(t, got, "class project active;")
}
