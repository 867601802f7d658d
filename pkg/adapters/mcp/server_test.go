package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arche/internal/logging"
	"github.com/aretw0/arche/pkg/adapters/memory"
	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/project"
	"github.com/aretw0/arche/pkg/record"
)

func testRecord() record.Record {
	return record.Record{
		Kind:    "root",
		ID:      "project",
		OwnerID: "user-1",
		Children: []record.Record{
			{Kind: "material", ID: "rock", OwnerID: "user-1"},
			{
				Kind:        "observation-mesh",
				ID:          "grid",
				OwnerID:     "user-1",
				FileID:      "grid.ts",
				BoundingBox: &domain.Box{},
				Children: []record.Record{
					{Kind: "realization", ID: "r1", OwnerID: "user-1", FileID: "r1.csv", MeshFileID: "grid.ts", SolutionID: "s1"},
					{Kind: "realization", ID: "r2", OwnerID: "user-1", FileID: "r2.csv", MeshFileID: "grid.ts", SolutionID: "s2"},
				},
			},
		},
	}
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type toolResult struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	IsError           bool            `json:"isError"`
}

type harness struct {
	t   *testing.T
	srv *Server
	id  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), "p1", testRecord()))
	mgr := project.NewManager(store)
	t.Cleanup(mgr.CloseAll)

	h := &harness{t: t, srv: NewServer(mgr, logging.NewNop())}
	h.call("initialize", map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
	})
	return h
}

func (h *harness) call(method string, params any) json.RawMessage {
	h.t.Helper()
	h.id++
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      h.id,
		"method":  method,
		"params":  params,
	})
	require.NoError(h.t, err)

	out, err := json.Marshal(h.srv.MCPServer().HandleMessage(context.Background(), msg))
	require.NoError(h.t, err)

	var resp rpcResponse
	require.NoError(h.t, json.Unmarshal(out, &resp))
	require.Nil(h.t, resp.Error, "rpc error: %s", out)
	return resp.Result
}

func (h *harness) tool(name string, args map[string]any) toolResult {
	h.t.Helper()
	var res toolResult
	require.NoError(h.t, json.Unmarshal(h.call("tools/call", map[string]any{"name": name, "arguments": args}), &res))
	return res
}

func (h *harness) resource(uri string) string {
	h.t.Helper()
	var res struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(h.t, json.Unmarshal(h.call("resources/read", map[string]any{"uri": uri}), &res))
	require.Len(h.t, res.Contents, 1)
	assert.Equal(h.t, uri, res.Contents[0].URI)
	return res.Contents[0].Text
}

func TestTools_Listed(t *testing.T) {
	h := newHarness(t)

	var res struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(h.call("tools/list", map[string]any{}), &res))

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_projects", "list_nodes", "get_summary", "post_event", "save_project"}, names)
}

func TestListProjects(t *testing.T) {
	h := newHarness(t)

	res := h.tool("list_projects", map[string]any{})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"projects":["p1"]}`, string(res.StructuredContent))
}

func TestListNodes(t *testing.T) {
	h := newHarness(t)

	var all NodesResponse
	res := h.tool("list_nodes", map[string]any{"project_id": "p1"})
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal(res.StructuredContent, &all))
	assert.Len(t, all.Nodes, 5)
	assert.Equal(t, "project", all.Nodes[0].ID)

	var realizations NodesResponse
	res = h.tool("list_nodes", map[string]any{"project_id": "p1", "kind": "realization"})
	require.NoError(t, json.Unmarshal(res.StructuredContent, &realizations))
	require.Len(t, realizations.Nodes, 2)
	assert.Equal(t, "grid", realizations.Nodes[0].Parent)

	res = h.tool("list_nodes", map[string]any{"project_id": "p1", "kind": "sphere"})
	assert.True(t, res.IsError)

	res = h.tool("list_nodes", map[string]any{"project_id": "missing"})
	assert.True(t, res.IsError)
}

func TestPostEventAndSummary(t *testing.T) {
	h := newHarness(t)

	res := h.tool("post_event", map[string]any{"project_id": "p1", "type": "resolve", "count": 1, "id": "r1"})
	require.False(t, res.IsError, res.Content)
	assert.JSONEq(t, `{"node":"grid","count":1,"ids":["r1"]}`, string(res.StructuredContent))

	res = h.tool("post_event", map[string]any{"project_id": "p1", "type": "solve", "count": 3})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"node":"project","count":3}`, string(res.StructuredContent))

	res = h.tool("post_event", map[string]any{"project_id": "p1", "type": "resolve", "count": 2, "id": "r2", "node_id": "grid"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"node":"grid","count":3,"ids":["r1","r2"]}`, string(res.StructuredContent))

	res = h.tool("get_summary", map[string]any{"project_id": "p1", "node_id": "grid"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"node":"grid","count":3,"ids":["r1","r2"]}`, string(res.StructuredContent))
}

func TestPostEvent_Rejected(t *testing.T) {
	h := newHarness(t)

	tests := []map[string]any{
		{"project_id": "p1", "type": "compile", "count": 1},
		{"project_id": "p1", "type": "solve", "count": 1.5},
		{"project_id": "p1", "type": "solve", "count": -1},
		{"project_id": "p1", "type": "resolve", "count": 1, "id": "rock"},
		{"project_id": "p1", "type": "solve", "count": 1, "node_id": "rock"},
	}
	for i, args := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.True(t, h.tool("post_event", args).IsError)
		})
	}

	res := h.tool("get_summary", map[string]any{"project_id": "p1", "node_id": "project"})
	assert.JSONEq(t, `{"node":"project","count":0}`, string(res.StructuredContent))
}

func TestSaveProject(t *testing.T) {
	h := newHarness(t)

	res := h.tool("save_project", map[string]any{"project_id": "p1"})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "project p1 saved", res.Content[0].Text)

	assert.True(t, h.tool("save_project", map[string]any{}).IsError)
}

func TestResources(t *testing.T) {
	h := newHarness(t)

	assert.JSONEq(t, `{"projects":["p1"]}`, h.resource("arche://projects"))

	var rec record.Record
	require.NoError(t, json.Unmarshal([]byte(h.resource("arche://projects/p1/record")), &rec))
	assert.Equal(t, "project", rec.ID)
	assert.Equal(t, 5, rec.Count())

	h.tool("post_event", map[string]any{"project_id": "p1", "type": "resolve", "count": 1, "id": "r2"})
	assert.JSONEq(t,
		`{"project":{"count":0},"grid":{"count":1,"ids":["r2"]}}`,
		h.resource("arche://projects/p1/summaries"))
}
