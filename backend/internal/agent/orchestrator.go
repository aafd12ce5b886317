package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fundrag/backend/internal/assembler"
	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/knowledge"
	"fundrag/backend/internal/metrics"
	"fundrag/backend/internal/query"
	"fundrag/backend/internal/resolver"
	"fundrag/backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces a prose answer from an assembled context and the
// original question
type Generator interface {
	Generate(ctx context.Context, contextText, query string) (string, error)
}

// SnapshotSource hands out the live knowledge base snapshot.
// *knowledge.Store implements it.
type SnapshotSource interface {
	Current() *knowledge.Snapshot
}

// Result is everything the presentation layer needs for one question
type Result struct {
	QueryID     string            `json:"query_id"`
	Query       string            `json:"query"`
	Intent      resolver.Intent   `json:"intent"`
	Entities    map[string]string `json:"entities"`
	Context     string            `json:"context,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	Answer      string            `json:"answer,omitempty"`
	// Generated is true when Answer came from the generator, including
	// in-band generator errors
	Generated bool `json:"generated"`
	// RiskBreakdown counts result funds per risk level for list intents
	RiskBreakdown map[string]int `json:"risk_breakdown,omitempty"`
}

// Unavailable reports whether the question failed because no knowledge base
// is loaded
func (r *Result) Unavailable() bool {
	return r.Intent == resolver.IntentDataUnavailable
}

// Orchestrator runs the resolve, retrieve and generate pipeline
type Orchestrator struct {
	store  SnapshotSource
	llm    Generator
	logger *zap.Logger
}

// NewOrchestrator creates a new orchestrator. llm may be nil, in which case
// Answer behaves like Retrieve.
func NewOrchestrator(store SnapshotSource, llm Generator) *Orchestrator {
	return &Orchestrator{
		store:  store,
		llm:    llm,
		logger: logger.Named("agent"),
	}
}

// Retrieve resolves the question and assembles its context without calling
// the generator
func (o *Orchestrator) Retrieve(question string) *Result {
	res, _ := o.retrieve(question)
	return res
}

// Answer runs the full pipeline. It never returns an error: failures are
// reported in the result's Intent, Context or Answer.
func (o *Orchestrator) Answer(ctx context.Context, question string) *Result {
	res, ok := o.retrieve(question)
	if !ok {
		return res
	}
	if o.llm == nil {
		return res
	}

	start := time.Now()
	answer, err := o.llm.Generate(ctx, res.Context, res.Query)
	if err != nil {
		metrics.GenerationLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		o.logger.Error("Answer generation failed",
			zap.String("query_id", res.QueryID),
			zap.String("intent", string(res.Intent)),
			zap.Error(err),
		)
		res.Answer = constants.AnswerErrorPrefix + err.Error()
	} else {
		metrics.GenerationLatency.WithLabelValues("success").Observe(time.Since(start).Seconds())
		res.Answer = answer
	}
	res.Generated = true

	o.logger.Info("Question answered",
		zap.String("query_id", res.QueryID),
		zap.String("intent", string(res.Intent)),
		zap.Duration("generation", time.Since(start)),
		zap.Bool("generation_failed", err != nil),
	)
	return res
}

// retrieve fills everything but the generated answer. The second result is
// false when the pipeline should stop before generation, in which case
// Answer already holds the user-facing message.
func (o *Orchestrator) retrieve(question string) (*Result, bool) {
	question = strings.TrimSpace(question)
	snap := o.store.Current()

	resolution := resolver.New(snap).Resolve(question)
	metrics.QueriesTotal.WithLabelValues(string(resolution.Intent)).Inc()

	res := &Result{
		QueryID:  uuid.NewString(),
		Query:    question,
		Intent:   resolution.Intent,
		Entities: resolution.Entities(),
	}

	o.logger.Debug("Resolved question",
		zap.String("query_id", res.QueryID),
		zap.String("intent", string(res.Intent)),
		zap.Any("entities", res.Entities),
	)

	switch resolution.Intent {
	case resolver.IntentDataUnavailable:
		o.logger.Warn("Question received with no knowledge base loaded", zap.String("query_id", res.QueryID))
		res.Answer = constants.MsgDataUnavailable
		return res, false
	case resolver.IntentUnknown:
		res.Answer = constants.MsgUnknownQuery
		return res, false
	}

	engine := query.NewEngine(snap)
	assembled := assembler.New(engine).Assemble(resolution)
	res.Context = assembled.Text
	res.Explanation = assembled.Explanation
	if resolution.Intent.IsSet() {
		res.RiskBreakdown = query.CountByRisk(fundsFor(engine, resolution))
	}

	if assembler.IsEmptyResult(res.Context) {
		metrics.EmptyResultsTotal.WithLabelValues(string(res.Intent)).Inc()
		res.Answer = fmt.Sprintf(constants.MsgNoInformationFormat, question)
		return res, false
	}
	return res, true
}

// fundsFor re-runs the set lookup behind a list intent
func fundsFor(engine *query.Engine, res resolver.Resolution) []knowledge.Fund {
	id := res.Entity.ID
	switch res.Intent {
	case resolver.IntentFundsByAMC:
		return engine.FundsByAMC(id)
	case resolver.IntentFundsBySector:
		return engine.FundsBySector(id)
	case resolver.IntentFundsByRisk:
		return engine.FundsByRisk(id)
	case resolver.IntentFundsByFactor:
		return engine.FundsByFactor(id)
	}
	return nil
}
