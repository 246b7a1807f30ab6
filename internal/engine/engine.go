// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine drives the iterative research loop: plan sub-questions,
// select and execute tools, extract evidence into accumulated knowledge,
// reflect, and finally answer. In report mode a candidate-symbol discovery
// loop runs alongside the iterations and a long-form report is produced at
// the end.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/candidates"
	"github.com/meshintel/biosearch-engine/internal/executor"
	"github.com/meshintel/biosearch-engine/internal/knowledge"
	"github.com/meshintel/biosearch-engine/internal/llm"
	"github.com/meshintel/biosearch-engine/internal/parse"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/internal/selector"
	"github.com/meshintel/biosearch-engine/internal/templates"
	"github.com/meshintel/biosearch-engine/internal/trace"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// Components are the engine's collaborators. Initialize builds them from
// configuration; tests inject lighter substitutes.
type Components struct {
	Roles        llm.Roles
	Registry     *registry.Registry
	Selector     *selector.Selector
	Executor     *executor.Executor
	Parser       *parse.Agent
	Templates    *templates.Library
	Bibliography *knowledge.Bibliography
}

// Engine runs research questions through the iteration loop.
type Engine struct {
	cfg types.EngineConfig
	c   Components
	log *zap.Logger
}

// Result is what one research run produced.
type Result struct {
	Findings         []types.EvidenceEntry `json:"findings"`
	Iterations       int                   `json:"iterations"`
	Questions        map[int][]string      `json:"questions"`
	CurrentKnowledge string                `json:"current_knowledge"`
	FinalReport      string                `json:"final_report"`
}

// New assembles an engine from pre-built components.
func New(cfg types.EngineConfig, c Components, log *zap.Logger) (*Engine, error) {
	if c.Registry == nil {
		return nil, fmt.Errorf("engine: registry is required")
	}
	if c.Selector == nil || c.Executor == nil || c.Parser == nil {
		return nil, fmt.Errorf("engine: selector, executor and parser are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, c: c, log: log}, nil
}

// run holds the mutable state of one AnalyzeTopic call. Only the single
// loop goroutine mutates it, so no locking is needed.
type run struct {
	id        string
	query     string
	rctx      *knowledge.Context
	refs      *knowledge.ReferencePool
	trace     *trace.Logger
	questions   map[int][]string
	findings    []types.EvidenceEntry
	chunks      []knowledgeChunk
	templateKey string

	// per-iteration accumulators, reset by distill
	roundFacts []string
	roundRefs  []CleanedRef

	// report-mode candidate discovery
	pool        *candidates.Pool
	cleaner     *candidates.Cleaner
	expander    *candidates.Expander
	prescreener *candidates.Prescreener
	validator   *candidates.Validator
}

// AnalyzeTopic runs the full iteration loop for one research question.
// questionID labels the trace files; pass "" to get a generated id.
func (e *Engine) AnalyzeTopic(ctx context.Context, query, questionID string) (*Result, error) {
	if e.c.Registry.Len() == 0 {
		return nil, fmt.Errorf("engine: no tools registered")
	}
	if questionID == "" {
		questionID = uuid.NewString()[:8]
	}

	r := &run{
		id:        questionID,
		query:     query,
		rctx:      knowledge.NewContext(query, e.cfg.Context.MaxContextLength, e.log),
		refs:      knowledge.NewReferencePool(),
		questions: make(map[int][]string),
	}
	if e.cfg.TraceDir != "" {
		tl, err := trace.NewLogger(e.cfg.TraceDir, questionID)
		if err != nil {
			return nil, fmt.Errorf("engine: opening trace: %w", err)
		}
		r.trace = tl
		defer r.trace.Close()
	}
	if e.cfg.ReportMode {
		e.initDiscovery(r)
	}

	e.log.Info("starting research",
		zap.String("question_id", questionID),
		zap.String("query", query),
		zap.Int("max_iterations", e.cfg.MaxIterations),
		zap.Int("tools", e.c.Registry.Len()))

	var finalAnswer string
	iteration := 0
	for iteration < e.cfg.MaxIterations {
		questions := e.plan(ctx, r, iteration)
		r.questions[iteration] = questions
		r.trace.Phase("Planning", strings.Join(questions, "\n"))

		for _, question := range questions {
			e.runSubQuestion(ctx, r, iteration, question)
		}
		e.distill(ctx, r, iteration, questions)

		iteration++
		if e.cfg.ReportMode {
			e.discover(ctx, r, iteration)
		}

		answer, err := e.answerQuery(ctx, r, iteration)
		if err != nil {
			r.trace.Error("answer", err)
			return nil, fmt.Errorf("engine: answering query: %w", err)
		}
		finalAnswer = answer
		if iteration < e.cfg.MaxIterations {
			// Reflection survives compression so later iterations keep
			// the critic's assessment even when raw findings are evicted.
			if thoughts := sectionBody(answer, "Thoughts"); thoughts != "" {
				r.rctx.AddKnowledge("Reflection: "+thoughts, 1, iteration)
				r.trace.Knowledge(1, "Reflection: "+thoughts)
			}
			r.trace.Phase("Reflection", answer)
		} else {
			r.trace.Phase("Final Answer", answer)
		}
		if err := r.trace.AppendMid(iteration, answer); err != nil {
			e.log.Warn("writing mid-results file", zap.Error(err))
		}
	}

	finalReport := ""
	if e.cfg.ReportMode {
		report, err := e.generateDetailedReport(ctx, r, iteration)
		if err != nil {
			r.trace.Error("report", err)
			return nil, fmt.Errorf("engine: generating report: %w", err)
		}
		finalReport = report
		r.trace.Phase("Detailed Report", report)
	}

	if err := r.trace.SaveCase(query, iteration, finalAnswer, finalReport); err != nil {
		e.log.Warn("saving case file", zap.Error(err))
	}

	return &Result{
		Findings:         r.findings,
		Iterations:       iteration,
		Questions:        r.questions,
		CurrentKnowledge: finalAnswer,
		FinalReport:      finalReport,
	}, nil
}

// runSubQuestion selects tools for one sub-question, executes them, and
// folds the parsed evidence into the run state. Failures degrade to "no
// results"; a sub-question never aborts the iteration.
func (e *Engine) runSubQuestion(ctx context.Context, r *run, iteration int, question string) {
	r.trace.SubQuery(iteration, question)

	requests := e.c.Selector.Run(ctx, question, r.rctx.Knowledge())
	if len(requests) == 0 {
		e.log.Info("no tool calls planned", zap.String("question", question))
		return
	}

	results := e.c.Executor.Run(ctx, requests)
	for i := range results {
		r.trace.ToolCall(requests[i], results[i])
	}

	if e.cfg.ReportMode {
		e.harvest(r, iteration, results)
	}

	parsed := e.c.Parser.ParseResults(ctx, iteration, requests, results)
	for _, p := range parsed {
		e.absorb(r, iteration, p)
	}
}

// absorb registers one parsed tool result: bibliography and reference pool
// entries for each evidence item, a priority-1 summary, and priority-2
// detail.
func (e *Engine) absorb(r *run, iteration int, p types.ParsedToolResult) {
	for i := range p.Items {
		item := &p.Items[i]
		r.findings = append(r.findings, *item)

		if e.c.Bibliography != nil {
			key := types.EvidenceHash(item.Quote, item.URL, item.Title)
			err := e.c.Bibliography.AddOrUpdate(key, types.BibliographyEntry{
				Key:     key,
				Title:   item.Title,
				URL:     item.URL,
				DOI:     item.DOI,
				Year:    item.Year,
				Authors: item.Authors,
			}, iteration)
			if err != nil {
				e.log.Warn("bibliography update failed", zap.Error(err))
			}
		}
		if item.URL != "" {
			r.refs.Add(item.Title, item.CitationReason, item.URL)
			r.roundRefs = append(r.roundRefs, CleanedRef{URL: item.URL, Description: item.Title})
		}
		if item.Brief != "" {
			r.roundFacts = append(r.roundFacts, item.Brief)
		}
	}

	if p.Summary != "" {
		r.rctx.AddKnowledge(p.Summary, 1, iteration)
		r.trace.Knowledge(1, p.Summary)
	}
	for i := range p.Items {
		item := &p.Items[i]
		var detail strings.Builder
		if item.DetailedFindings != "" {
			detail.WriteString(item.DetailedFindings)
		}
		for _, s := range item.KeySentences {
			if detail.Len() > 0 {
				detail.WriteString("\n")
			}
			detail.WriteString(s)
		}
		if detail.Len() > 0 {
			text := detail.String()
			if item.URL != "" {
				text += " <" + item.URL + ">"
			}
			r.rctx.AddKnowledge(text, 2, iteration)
			r.trace.Knowledge(2, text)
		}
	}
}

// sectionBody returns the text under the markdown heading "## <name>" up
// to the next "## " heading.
func sectionBody(doc, name string) string {
	marker := "## " + name
	idx := strings.Index(doc, marker)
	if idx < 0 {
		return ""
	}
	body := doc[idx+len(marker):]
	if next := strings.Index(body, "\n## "); next >= 0 {
		body = body[:next]
	}
	return strings.TrimSpace(body)
}
