package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundrag/backend/internal/assembler"
	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/knowledge"
	"fundrag/backend/internal/knowledge/knowledgetest"
	"fundrag/backend/internal/resolver"
)

// Mock implementations for testing

type mockGenerator struct {
	answer       string
	err          error
	calls        int
	lastContext  string
	lastQuery    string
	generateFunc func(ctx context.Context, contextText, query string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, contextText, query string) (string, error) {
	m.calls++
	m.lastContext = contextText
	m.lastQuery = query
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contextText, query)
	}
	return m.answer, m.err
}

type fixedSource struct {
	snap *knowledge.Snapshot
}

func (f fixedSource) Current() *knowledge.Snapshot { return f.snap }

func newSampleOrchestrator(gen Generator) *Orchestrator {
	return NewOrchestrator(knowledge.NewStoreWith(knowledgetest.SampleSnapshot()), gen)
}

func TestAnswer_FundsByFactor(t *testing.T) {
	gen := &mockGenerator{answer: "FundB, FundC and FundD may be affected."}
	o := newSampleOrchestrator(gen)

	res := o.Answer(context.Background(), "  Which funds are affected by Crude Oil Price?  ")

	assert.NotEmpty(t, res.QueryID)
	assert.Equal(t, "Which funds are affected by Crude Oil Price?", res.Query)
	assert.Equal(t, resolver.IntentFundsByFactor, res.Intent)
	assert.Equal(t, map[string]string{"factor_id": "Crude Oil Price"}, res.Entities)
	assert.Contains(t, res.Context, "FundD Energy Focus")
	assert.Contains(t, res.Explanation, "Energy, Chemicals")
	assert.Equal(t, map[string]int{"Medium": 2, "High": 1}, res.RiskBreakdown)

	assert.True(t, res.Generated)
	assert.Equal(t, gen.answer, res.Answer)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, res.Context, gen.lastContext)
	assert.Equal(t, res.Query, gen.lastQuery)
}

func TestAnswer_FundDetailsHasNoBreakdown(t *testing.T) {
	o := newSampleOrchestrator(&mockGenerator{answer: "It is a medium risk fund."})

	res := o.Answer(context.Background(), "Tell me about FundC Infrastructure")
	assert.Equal(t, resolver.IntentFundDetails, res.Intent)
	assert.Equal(t, map[string]string{"fund_id": "F003"}, res.Entities)
	assert.Contains(t, res.Context, "Risk Level: Medium")
	assert.Contains(t, res.Context, "Primary Sector: Infrastructure")
	assert.Nil(t, res.RiskBreakdown)
	assert.Empty(t, res.Explanation)
}

func TestAnswer_UnknownSkipsGeneration(t *testing.T) {
	gen := &mockGenerator{answer: "should not be used"}
	o := newSampleOrchestrator(gen)

	res := o.Answer(context.Background(), "asdkjasd unrelated text")
	assert.Equal(t, resolver.IntentUnknown, res.Intent)
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.Context, "context is not computed for unknown intent")
	assert.Equal(t, constants.MsgUnknownQuery, res.Answer)
	assert.False(t, res.Generated)
	assert.Zero(t, gen.calls)
}

func TestAnswer_EmptyResultSkipsGeneration(t *testing.T) {
	gen := &mockGenerator{answer: "should not be used"}
	o := newSampleOrchestrator(gen)

	res := o.Answer(context.Background(), "Show me low risk funds")
	assert.Equal(t, resolver.IntentFundsByRisk, res.Intent)
	assert.Equal(t, assembler.NoFundsFound, res.Context)
	assert.Equal(t, "Could not find relevant information in the knowledge base for: 'Show me low risk funds'.", res.Answer)
	assert.Empty(t, res.RiskBreakdown)
	assert.False(t, res.Generated)
	assert.Zero(t, gen.calls)
}

func TestAnswer_DataUnavailable(t *testing.T) {
	for name, src := range map[string]SnapshotSource{
		"nothing loaded": knowledge.NewStore(),
		"empty tables":   fixedSource{snap: knowledge.Build(&knowledge.Tables{}, "test")},
	} {
		t.Run(name, func(t *testing.T) {
			gen := &mockGenerator{}
			res := NewOrchestrator(src, gen).Answer(context.Background(), "Find high risk funds")

			assert.True(t, res.Unavailable())
			assert.Equal(t, resolver.IntentDataUnavailable, res.Intent)
			assert.Equal(t, constants.MsgDataUnavailable, res.Answer)
			assert.Zero(t, gen.calls)
		})
	}
}

func TestAnswer_GeneratorErrorIsInBand(t *testing.T) {
	gen := &mockGenerator{err: errors.New("quota exceeded")}
	o := newSampleOrchestrator(gen)

	res := o.Answer(context.Background(), "Find high risk funds")
	assert.True(t, res.Generated)
	assert.True(t, strings.HasPrefix(res.Answer, constants.AnswerErrorPrefix))
	assert.Contains(t, res.Answer, "quota exceeded")
	assert.Contains(t, res.Context, "Found 2 fund(s) with 'High' risk level:")
	assert.Equal(t, map[string]int{"High": 2}, res.RiskBreakdown)
}

func TestAnswer_PassesContextThrough(t *testing.T) {
	type key struct{}
	gen := &mockGenerator{generateFunc: func(ctx context.Context, _, _ string) (string, error) {
		return ctx.Value(key{}).(string), nil
	}}
	o := newSampleOrchestrator(gen)

	ctx := context.WithValue(context.Background(), key{}, "from caller")
	res := o.Answer(ctx, "What is Inflation?")
	assert.Equal(t, resolver.IntentFactorDetails, res.Intent)
	assert.Equal(t, "from caller", res.Answer)
}

func TestAnswer_NilGenerator(t *testing.T) {
	o := newSampleOrchestrator(nil)

	res := o.Answer(context.Background(), "Which funds invest in Healthcare?")
	assert.Equal(t, resolver.IntentFundsBySector, res.Intent)
	assert.NotEmpty(t, res.Context)
	assert.False(t, res.Generated)
	assert.Empty(t, res.Answer)
}

func TestRetrieve_UsesCurrentSnapshot(t *testing.T) {
	store := knowledge.NewStoreWith(knowledgetest.SampleSnapshot())
	o := NewOrchestrator(store, &mockGenerator{})

	res := o.Retrieve("Tell me about FundA Growth")
	require.Equal(t, resolver.IntentFundDetails, res.Intent)
	assert.False(t, res.Generated)

	store.Swap(knowledge.Build(&knowledge.Tables{
		Funds: []knowledge.Fund{{ID: "F001", Name: "FundA Growth", Risk: "Low", PrimarySector: "Cash"}},
	}, "test"))

	res = o.Retrieve("Tell me about FundA Growth")
	assert.Contains(t, res.Context, "Risk Level: Low")
}

func TestRetrieve_UniqueQueryIDs(t *testing.T) {
	o := newSampleOrchestrator(nil)
	a := o.Retrieve("Find high risk funds")
	b := o.Retrieve("Find high risk funds")
	assert.NotEqual(t, a.QueryID, b.QueryID)
	assert.Equal(t, a.Context, b.Context)
}
