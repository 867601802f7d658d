package arche_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/pkg/adapters/memory"
	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/record"
)

const owner = "user-1"

func sampleRecord() record.Record {
	realization := func(id string) record.Record {
		return record.Record{Kind: "realization", ID: id, OwnerID: owner, FileID: id + ".csv", MeshFileID: "grid.ts", SolutionID: "s-" + id}
	}
	return record.Record{
		Kind:    "root",
		ID:      "project",
		OwnerID: owner,
		Children: []record.Record{
			{Kind: "folder-observation", ID: "observations", OwnerID: owner, Children: []record.Record{
				{
					Kind:        "observation-mesh",
					ID:          "grid",
					OwnerID:     owner,
					FileID:      "grid.ts",
					BoundingBox: &domain.Box{Max: domain.Point{X: 1, Y: 1}},
					Children:    []record.Record{realization("r1"), realization("r2"), realization("r3")},
				},
			}},
		},
	}
}

func receive(t *testing.T, ch <-chan progress.Summary) progress.Summary {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok)
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for summary")
		return progress.Summary{}
	}
}

func TestProject_SolverScenario(t *testing.T) {
	p, err := arche.FromRecord(sampleRecord())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rootStream, err := p.Subscribe(ctx, "project")
	require.NoError(t, err)
	assert.Equal(t, progress.Summary{}, receive(t, rootStream))

	require.NoError(t, p.PostSolve(1))
	require.NoError(t, p.PostResolve("r1", 1))
	require.NoError(t, p.PostResolve("r2", 1))

	assert.Equal(t, progress.Summary{Count: 1}, receive(t, rootStream))

	s, err := p.Summary("grid")
	require.NoError(t, err)
	assert.Equal(t, progress.Summary{Count: 2, IDs: []string{"r1", "r2"}}, s)

	// A late subscriber starts from the current state.
	late, err := p.Subscribe(ctx, "grid")
	require.NoError(t, err)
	assert.Equal(t, s, receive(t, late))
}

func TestProject_Deliver(t *testing.T) {
	p, err := arche.FromRecord(sampleRecord())
	require.NoError(t, err)

	require.NoError(t, p.Deliver(arche.Delivery{Event: progress.Event{Type: progress.Solve, Count: 2}}))
	require.NoError(t, p.Deliver(arche.Delivery{Event: progress.Event{Type: progress.Resolve, Count: 1, ID: "r3"}}))
	require.NoError(t, p.Deliver(arche.Delivery{Node: "project", Event: progress.Event{Type: progress.Resolve, Count: 5, ID: "x"}}))

	root, err := p.Summary("project")
	require.NoError(t, err)
	assert.Equal(t, progress.Summary{Count: 7}, root)

	grid, err := p.Summary("grid")
	require.NoError(t, err)
	assert.Equal(t, progress.Summary{Count: 1, IDs: []string{"r3"}}, grid)

	err = p.Deliver(arche.Delivery{Node: "observations", Event: progress.Event{Type: progress.Solve, Count: 1}})
	assert.Error(t, err)
}

func TestDelivery_UnmarshalJSON(t *testing.T) {
	var d arche.Delivery
	require.NoError(t, json.Unmarshal([]byte(`{"node":"grid","type":"resolve","count":1,"id":"r3"}`), &d))
	assert.Equal(t, arche.Delivery{Node: "grid", Event: progress.Event{Type: progress.Resolve, Count: 1, ID: "r3"}}, d)

	for _, line := range []string{`{"count":3}`, `{"node":"project","count":3}`, `{"level":"info","msg":"iteration done","count":5}`} {
		var untyped arche.Delivery
		err := json.Unmarshal([]byte(line), &untyped)
		assert.ErrorIs(t, err, progress.ErrInvalidEvent, line)
	}

	out, err := json.Marshal(arche.Delivery{Node: "grid", Event: progress.Event{Type: progress.Solve, Count: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"node":"grid","type":"solve","count":1}`, string(out))
}

func TestProject_HooksAndLogger(t *testing.T) {
	var mu sync.Mutex
	folds := map[string]int{}
	hooks := progress.Hooks{
		OnFold: func(name string, _ progress.Event, _ progress.Summary) {
			mu.Lock()
			defer mu.Unlock()
			folds[name]++
		},
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	p, err := arche.FromRecord(sampleRecord(), arche.WithHooks(hooks), arche.WithLogger(logger))
	require.NoError(t, err)

	require.NoError(t, p.PostSolve(1))
	require.NoError(t, p.PostResolve("r1", 1))
	assert.Error(t, p.Post("grid", progress.Event{Type: progress.ProcessingType(9), Count: 1}))

	mu.Lock()
	assert.Equal(t, map[string]int{"project": 1, "grid": 1}, folds)
	mu.Unlock()
	assert.Contains(t, logs.String(), "Dropping malformed processing event")
}

func TestProject_New(t *testing.T) {
	opts := arche.ChannelOptions()
	r := domain.Must(domain.NewRealization(domain.Attrs{ID: "r", OwnerID: owner},
		domain.RealizationSource{FileID: "f", MeshFileID: "m", SolutionID: "s"}))
	om := domain.Must(domain.NewObservationMesh(domain.Attrs{ID: "om", OwnerID: owner, Children: []domain.Node{r}},
		domain.MeshSource{FileID: "m", BoundingBox: &domain.Box{}}, opts...))
	root := domain.Must(domain.NewRoot(domain.Attrs{ID: "root", OwnerID: owner, Children: []domain.Node{om}}, nil, opts...))

	p, err := arche.New(root)
	require.NoError(t, err)
	assert.Equal(t, "root", p.ID())
	assert.Equal(t, 3, p.Tree().Len())

	require.NoError(t, p.PostResolve("r", 4))
	s, err := p.Summary("om")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count)
}

func TestProject_LoadAndRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := arche.Load(ctx, store, "missing")
	assert.ErrorIs(t, err, ports.ErrProjectNotFound)

	require.NoError(t, store.Save(ctx, "p", sampleRecord()))
	p, err := arche.Load(ctx, store, "p")
	require.NoError(t, err)

	rec, err := p.Record()
	require.NoError(t, err)
	assert.Equal(t, record.SupportedVersion, rec.Version)
	assert.Equal(t, sampleRecord().Count(), rec.Count())
}

func TestProject_Close(t *testing.T) {
	p, err := arche.FromRecord(sampleRecord())
	require.NoError(t, err)

	stream, err := p.Subscribe(context.Background(), "grid")
	require.NoError(t, err)
	receive(t, stream)

	p.Close()
	p.Close()

	_, ok := <-stream
	assert.False(t, ok)
	assert.ErrorIs(t, p.PostSolve(1), progress.ErrClosed)
}
