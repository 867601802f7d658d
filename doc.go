/*
Package arche models geomechanical simulation projects as trees of typed
nodes and aggregates the progress a solver reports while it runs.

A project is a rooted tree: materials, folders of discontinuities with their
meshes, boundary conditions and friction constraints, observation meshes
with the realizations resolved on them, and remote stresses. Two kinds of
node aggregate processing events. The root counts every unit of work; each
observation mesh counts the realizations resolved on it and remembers which
ones arrived.

# Concept

Producers (a solver, a replay file, an HTTP client) post events; consumers
(a progress widget, an SSE stream, an MCP agent) subscribe to summaries.
Each aggregating node owns its channel: the fold runs once per event under
the channel lock, and every subscriber sees the same sequence of summaries,
starting with the current one.

# Usage

	rec, err := record.Decode(f, record.FormatYAML)
	if err != nil {
		log.Fatal(err)
	}
	p, err := arche.FromRecord(rec)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	_ = p.PostResolve("r1", 1)
	stream, _ := p.Subscribe(ctx, "grid")
	fmt.Println(<-stream) // {1 [r1]}

Persistence goes through ports.ProjectStore (memory, file and Redis
adapters), and pkg/project coordinates concurrent access to live projects.
*/
package arche
