package tree

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/field"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

var box = &domain.Box{Max: domain.Point{X: 10, Y: 10, Z: 10}}

func realization(id string) *domain.Realization {
	return domain.Must(domain.NewRealization(domain.Attrs{ID: id, OwnerID: owner},
		domain.RealizationSource{FileID: id + ".csv", MeshFileID: "grid.ts", SolutionID: "sol-" + id}))
}

// sampleProject builds:
//
//	root
//	├── material
//	├── folder-discontinuity
//	│   └── discontinuity
//	│       ├── discontinuity-mesh
//	│       ├── boundary-condition
//	│       └── coulomb-constraint
//	├── folder-observation
//	│   └── observation-mesh (r1, r2)
//	└── folder-remote
//	    └── andersonian-remote
func sampleProject(t *testing.T) *Tree {
	t.Helper()
	a := func(id string, children ...domain.Node) domain.Attrs {
		return domain.Attrs{ID: id, OwnerID: owner, Name: id, Children: children}
	}

	disc := domain.Must(domain.NewDiscontinuity(a("fault",
		domain.Must(domain.NewDiscontinuityMesh(a("fault-mesh"), domain.MeshSource{FileID: "fault.ts", BoundingBox: box})),
		domain.Must(domain.NewBoundaryCondition(a("fault-bc"), nil)),
		domain.Must(domain.NewCoulombConstraint(a("fault-friction"), &domain.CoulombParams{Friction: 0.6})),
	)))
	om := domain.Must(domain.NewObservationMesh(a("grid", realization("r1"), realization("r2")),
		domain.MeshSource{FileID: "grid.ts", BoundingBox: box}))

	root := domain.Must(domain.NewRoot(a("project",
		domain.Must(domain.NewMaterial(a("rock"), nil)),
		domain.Must(domain.NewFolderDiscontinuity(a("discontinuities", disc))),
		domain.Must(domain.NewFolderObservation(a("observations", om))),
		domain.Must(domain.NewFolderRemote(a("remotes",
			domain.Must(domain.NewAndersonianRemote(a("stress"), nil)),
		))),
	), map[string]string{"discontinuities": "discontinuities"}))

	tr, err := New(root)
	require.NoError(t, err)
	return tr
}

func ids(nodes []domain.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID())
	}
	return out
}

func TestNew_IndexesPreOrder(t *testing.T) {
	tr := sampleProject(t)
	assert.Equal(t, 13, tr.Len())
	assert.Equal(t, []string{
		"project", "rock",
		"discontinuities", "fault", "fault-mesh", "fault-bc", "fault-friction",
		"observations", "grid", "r1", "r2",
		"remotes", "stress",
	}, ids(tr.Nodes()))

	n, err := tr.Get("fault-bc")
	require.NoError(t, err)
	assert.Equal(t, domain.KindBoundaryCondition, n.Kind())

	parent, ok := tr.Parent("r2")
	require.True(t, ok)
	assert.Equal(t, "grid", parent.ID())

	_, ok = tr.Parent("project")
	assert.False(t, ok)

	_, err = tr.Get("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNew_DuplicateIDFails(t *testing.T) {
	a := domain.Must(domain.NewMaterial(domain.Attrs{ID: "dup", OwnerID: owner}, nil))
	b := domain.Must(domain.NewFile(domain.Attrs{ID: "dup", OwnerID: owner}, "f"))
	root := domain.Must(domain.NewRoot(domain.Attrs{OwnerID: owner, Children: []domain.Node{a, b}}, nil))

	_, err := New(root)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestNew_SharedNodeFails(t *testing.T) {
	shared := domain.Must(domain.NewMaterial(domain.Attrs{OwnerID: owner}, nil))
	f1 := domain.Must(domain.NewFolder(domain.Attrs{OwnerID: owner, Children: []domain.Node{shared}}))
	f2 := domain.Must(domain.NewFolder(domain.Attrs{OwnerID: owner, Children: []domain.Node{shared}}))
	root := domain.Must(domain.NewRoot(domain.Attrs{OwnerID: owner, Children: []domain.Node{f1, f2}}, nil))

	_, err := New(root)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestWalk(t *testing.T) {
	tr := sampleProject(t)

	var visited []string
	depths := map[string]int{}
	err := tr.Walk(func(n domain.Node, depth int) error {
		visited = append(visited, n.ID())
		depths[n.ID()] = depth
		if n.Kind() == domain.KindDiscontinuity {
			return SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.NotContains(t, visited, "fault-mesh")
	assert.Contains(t, visited, "fault")
	assert.Equal(t, 0, depths["project"])
	assert.Equal(t, 3, depths["r1"])

	stop := errors.New("stop")
	count := 0
	err = tr.Walk(func(domain.Node, int) error {
		count++
		if count == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, count)
}

func TestFilters(t *testing.T) {
	tr := sampleProject(t)
	assert.Equal(t, []string{"fault-mesh", "grid"}, ids(tr.WithTag("mesh")))
	assert.Equal(t, []string{"r1", "r2"}, ids(tr.WithTag("dataframe")))
	assert.Equal(t, []string{"fault-friction"}, ids(tr.WithTag("constraint")))
	assert.Equal(t, []string{"stress"}, ids(tr.OfKind(domain.KindAndersonianRemote)))
	assert.Empty(t, tr.WithTag("nothing"))

	agg := tr.Aggregators()
	require.Len(t, agg, 2)
	assert.Equal(t, "project", agg[0].ID())
	assert.Equal(t, "grid", agg[1].ID())
}

func TestRouting(t *testing.T) {
	tr := sampleProject(t)

	require.NoError(t, tr.PostSolve(1))
	require.NoError(t, tr.PostResolve("r1", 2))
	require.NoError(t, tr.PostResolve("r2", 1))
	require.NoError(t, tr.Post("project", progress.Event{Type: progress.Resolve, Count: 3, ID: "r1"}))

	s, err := tr.Summary("grid")
	require.NoError(t, err)
	assert.Equal(t, progress.Summary{Count: 3, IDs: []string{"r1", "r2"}}, s)

	s, err = tr.Summary("project")
	require.NoError(t, err)
	assert.Equal(t, progress.Summary{Count: 4}, s)

	err = tr.Post("rock", progress.Event{Type: progress.Solve, Count: 1})
	assert.ErrorIs(t, err, ErrNotAggregating)

	_, err = tr.Summary("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	err = tr.PostResolve("fault-mesh", 1)
	assert.ErrorIs(t, err, ErrNotRealization)
}

func TestPostResolve_RealizationOutsideMesh(t *testing.T) {
	r := realization("loose")
	folder := domain.Must(domain.NewFolder(domain.Attrs{OwnerID: owner, Children: []domain.Node{r}}))
	root := domain.Must(domain.NewRoot(domain.Attrs{OwnerID: owner, Children: []domain.Node{folder}}, nil))
	tr, err := New(root)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.PostResolve("loose", 1), ErrNotRealization)
}

func TestSubscribeAndClose(t *testing.T) {
	tr := sampleProject(t)
	require.NoError(t, tr.PostResolve("r1", 1))

	stream, err := tr.Subscribe(context.Background(), "grid")
	require.NoError(t, err)

	select {
	case s := <-stream:
		assert.Equal(t, progress.Summary{Count: 1, IDs: []string{"r1"}}, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no replay")
	}

	tr.Close()
	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
	assert.ErrorIs(t, tr.PostSolve(1), progress.ErrClosed)
}

func TestDescribe(t *testing.T) {
	tr := sampleProject(t)

	infos := tr.Infos()
	require.Len(t, infos, tr.Len())
	assert.Equal(t, "project", infos[0].ID)
	assert.Equal(t, 0, infos[0].Depth)
	assert.True(t, infos[0].Aggregates)

	grid, err := tr.Get("grid")
	require.NoError(t, err)
	info := tr.Describe(grid)
	assert.Equal(t, "observations", info.Parent)
	assert.Equal(t, 2, info.Depth)
	assert.Equal(t, []string{"r1", "r2"}, info.Children)
	assert.Equal(t, "grid.ts", info.FileID)
	assert.True(t, info.Aggregates)

	friction, err := tr.Get("fault-friction")
	require.NoError(t, err)
	info = tr.Describe(friction)
	assert.Equal(t, domain.CoulombParams{Friction: 0.6}, info.Parameters)
	assert.False(t, info.Aggregates)
	assert.Nil(t, info.Children)
}

func TestDescribe_BoundaryConditionFields(t *testing.T) {
	params := domain.DefaultBoundaryConditionParams()
	params.DipAxis = domain.Axis{Type: "free", Field: field.FromFunc(func(x, y, z float64) float64 { return x + y + z })}
	params.StrikeAxis.Field = field.MustParse("0.1 * z + 2")
	params.NormalAxis.Field = field.Constant(1)
	bc := domain.Must(domain.NewBoundaryCondition(domain.Attrs{ID: "bc", OwnerID: owner}, &params))
	root := domain.Must(domain.NewRoot(domain.Attrs{ID: "p", OwnerID: owner, Children: []domain.Node{bc}}, nil))
	tr, err := New(root)
	require.NoError(t, err)

	info := tr.Describe(bc)
	data, err := json.Marshal(info.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dipAxis": {"type": "free", "field": "<func>"},
		"strikeAxis": {"type": "locked", "field": "0.1 * z + 2"},
		"normalAxis": {"type": "locked", "field": 1}
	}`, string(data))
}
