package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel replays canned responses in order.
type fakeModel struct {
	responses []string
	err       error
	calls     int
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	i := min(m.calls-1, len(m.responses)-1)
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.responses[i]}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestExtractGraph_Normalizes(t *testing.T) {
	model := &fakeModel{responses: []string{"```json\n" + `{
  "nodes": [
    {"id": "Leonhard Euler", "type": "person", "title": "Leonhard Euler", "properties": {"born": 1707}},
    {"id": "eulers_identity", "type": "THEORY", "title": "Euler's Identity"},
    {"id": "leonhard_euler", "type": "PERSON", "title": "duplicate"},
    {"id": "basel", "type": "city", "properties": {"name": "Basel"}}
  ],
  "edges": [
    {"from": "leonhard_euler", "to": "eulers_identity", "type": "introduced"},
    {"from": "leonhard_euler", "to": "eulers_identity", "type": "INTRODUCED"},
    {"from": "leonhard_euler", "to": "nobody", "type": "KNOWS"},
    {"from": "leonhard_euler", "to": "basel", "type": "born in"}
  ]
}` + "\n```"}}
	extractor := newRelationExtractorWithModel(model)

	graph, err := extractor.ExtractGraph(context.Background(), "Leonhard Euler introduced Euler's Identity.")
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "leonhard_euler", graph.Nodes[0].Key)
	assert.Equal(t, "PERSON", graph.Nodes[0].Type)
	assert.Equal(t, "1707", graph.Nodes[0].Properties["born"])
	assert.Equal(t, "Basel", graph.Nodes[2].Title)
	assert.Equal(t, "NEW_CITY", graph.Nodes[2].Type)

	require.Len(t, graph.Edges, 2)
	assert.Equal(t, "INTRODUCED", graph.Edges[0].Type)
	assert.Equal(t, "BORN_IN", graph.Edges[1].Type)
}

func TestExtractGraph_RetriesMalformedJSON(t *testing.T) {
	model := &fakeModel{responses: []string{
		"not json",
		`{"nodes": [{"id": "paris", "type": "LOCATION", "title": "Paris"}], "edges": []}`,
	}}
	extractor := newRelationExtractorWithModel(model)

	graph, err := extractor.ExtractGraph(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
	require.Len(t, graph.Nodes, 1)
}

func TestExtractGraph_GivesUpAfterRetries(t *testing.T) {
	model := &fakeModel{responses: []string{"still not json"}}
	extractor := newRelationExtractorWithModel(model)

	_, err := extractor.ExtractGraph(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, maxParseAttempts, model.calls)
}

func TestExtractGraph_TransportError(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	extractor := newRelationExtractorWithModel(model)

	_, err := extractor.ExtractGraph(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 1, model.calls)
}

func TestCanonicalKey(t *testing.T) {
	tests := map[string]string{
		"Leonhard Euler":    "leonhard_euler",
		"Euler's Identity":  "eulers_identity",
		"  virtue-ethics  ": "virtue_ethics",
		"already_snake":     "already_snake",
		"!!!":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, canonicalKey(in), in)
	}
	assert.Equal(t, "BORN_IN", canonicalLabel("born in"))
}
