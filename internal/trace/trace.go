// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trace records what a research run did: a full markdown trace
// with complete tool payloads, a clean trace with payloads truncated for
// human review, and a machine-readable case file saved at the end.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// cleanPayloadLimit is how much tool output the clean trace keeps.
const cleanPayloadLimit = 2000

// Step is one recorded event in the case file.
type Step struct {
	Time    string `json:"time"`
	Phase   string `json:"phase"`
	Detail  string `json:"detail,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// Case is the machine-readable record of a finished run.
type Case struct {
	ID          string   `json:"id"`
	Query       string   `json:"query"`
	Template    string   `json:"template,omitempty"`
	Steps       []Step   `json:"steps"`
	Tools       []string `json:"tools"`
	Iterations  int      `json:"iterations"`
	FinalAnswer string   `json:"final_answer,omitempty"`
	FinalReport string   `json:"final_report,omitempty"`
}

// Logger writes the trace files for one run. A nil *Logger is valid and
// records nothing.
type Logger struct {
	mu    sync.Mutex
	dir   string
	id    string
	full  *os.File
	clean *os.File

	steps     []Step
	toolsSeen map[string]struct{}
	template  string
}

// NewLogger creates the trace files under dir for the given run id.
func NewLogger(dir, id string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	full, err := os.Create(filepath.Join(dir, fmt.Sprintf("trace_%s_full.md", id)))
	if err != nil {
		return nil, fmt.Errorf("creating full trace: %w", err)
	}
	clean, err := os.Create(filepath.Join(dir, fmt.Sprintf("trace_%s_clean.md", id)))
	if err != nil {
		full.Close()
		return nil, fmt.Errorf("creating clean trace: %w", err)
	}
	return &Logger{
		dir:       dir,
		id:        id,
		full:      full,
		clean:     clean,
		toolsSeen: make(map[string]struct{}),
	}, nil
}

// Close closes the trace files.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err1 := l.full.Close()
	err2 := l.clean.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (l *Logger) write(full, clean string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.full, full)
	fmt.Fprint(l.clean, clean)
}

func (l *Logger) addStep(phase, detail, tool string, success *bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, Step{
		Time:    time.Now().UTC().Format(time.RFC3339),
		Phase:   phase,
		Detail:  detail,
		Tool:    tool,
		Success: success,
	})
	if tool != "" {
		l.toolsSeen[tool] = struct{}{}
	}
}

// Phase records a phase heading with its content in both traces.
func (l *Logger) Phase(name, content string) {
	if l == nil {
		return
	}
	block := fmt.Sprintf("\n## %s\n\n%s\n", name, content)
	l.write(block, block)
	l.addStep(name, firstLine(content), "", nil)
}

// SubQuery records the sub-question an iteration works on.
func (l *Logger) SubQuery(iteration int, question string) {
	if l == nil {
		return
	}
	block := fmt.Sprintf("\n## Iteration %d\n\nSub-question: %s\n", iteration, question)
	l.write(block, block)
	l.addStep("iteration", question, "", nil)
}

// ToolCall records one executed call. The clean trace truncates the
// payload.
func (l *Logger) ToolCall(req types.ToolInvocationRequest, result types.ToolCallResult) {
	if l == nil {
		return
	}
	args, _ := json.Marshal(req.ToolInput)
	head := fmt.Sprintf("\n### Tool: %s\n\nNeed: %s\nArguments: `%s`\nSuccess: %v\n\n",
		result.ToolName, req.Item, args, result.Success)

	fullPayload := fmt.Sprintf("```\n%s\n```\n", result.Content)
	cleanContent := result.Content
	if len(cleanContent) > cleanPayloadLimit {
		cleanContent = cleanContent[:cleanPayloadLimit] + "\n... (truncated)"
	}
	cleanPayload := fmt.Sprintf("```\n%s\n```\n", cleanContent)

	l.write(head+fullPayload, head+cleanPayload)
	success := result.Success
	l.addStep("tool", req.Item, result.ToolName, &success)
}

// Knowledge records a knowledge-base update.
func (l *Logger) Knowledge(priority int, text string) {
	if l == nil {
		return
	}
	block := fmt.Sprintf("\n### Knowledge update (priority %d)\n\n%s\n", priority, text)
	l.write(block, block)
	l.addStep("knowledge", firstLine(text), "", nil)
}

// Error records a degraded step.
func (l *Logger) Error(phase string, err error) {
	if l == nil || err == nil {
		return
	}
	block := fmt.Sprintf("\n### Error in %s\n\n%v\n", phase, err)
	l.write(block, block)
	l.addStep("error", phase+": "+err.Error(), "", nil)
}

// SetTemplate records the thinking template the planner used.
func (l *Logger) SetTemplate(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.template = key
}

// AppendMid appends an intermediate answer to the run's mid-results file.
func (l *Logger) AppendMid(iteration int, text string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	path := filepath.Join(l.dir, fmt.Sprintf("mid_%s.md", l.id))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening mid-results file: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "\n## After iteration %d\n\n%s\n", iteration, text)
	return err
}

// SaveCase writes the case file.
func (l *Logger) SaveCase(query string, iterations int, finalAnswer, finalReport string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tools := make([]string, 0, len(l.toolsSeen))
	for t := range l.toolsSeen {
		tools = append(tools, t)
	}
	sort.Strings(tools)

	c := Case{
		ID:          l.id,
		Query:       query,
		Template:    l.template,
		Steps:       l.steps,
		Tools:       tools,
		Iterations:  iterations,
		FinalAnswer: finalAnswer,
		FinalReport: finalReport,
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding case: %w", err)
	}
	path := filepath.Join(l.dir, fmt.Sprintf("case_%s.json", l.id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing case: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
