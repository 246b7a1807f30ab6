// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package executor runs planned tool calls: bounded concurrency, per-call
// timeout and retries, argument guardrails, and a meaningfulness judgment
// on each payload before it is handed to evidence extraction.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

const (
	defaultMaxConcurrent = 6
	defaultCallTimeout   = 150 * time.Second
	defaultMaxRetries    = 2
)

// SuccessPredicate decides whether a completed call produced meaningful
// data. content is the normalized payload.
type SuccessPredicate interface {
	Meaningful(ctx context.Context, toolName, content string) bool
}

// Executor dispatches tool invocation batches against a registry.
type Executor struct {
	reg        *registry.Registry
	judge      SuccessPredicate
	failureLog *FailureLog
	log        *zap.Logger

	maxConcurrent int64
	callTimeout   time.Duration
	maxRetries    int
}

// New builds an executor. judge may be nil, in which case every completed
// call counts as successful. failureLog may be nil to disable the failure
// file.
func New(reg *registry.Registry, judge SuccessPredicate, failureLog *FailureLog, cfg types.ExecutorConfig, log *zap.Logger) *Executor {
	e := &Executor{
		reg:           reg,
		judge:         judge,
		failureLog:    failureLog,
		log:           log,
		maxConcurrent: int64(cfg.MaxConcurrent),
		callTimeout:   cfg.CallTimeout,
		maxRetries:    cfg.MaxRetries,
	}
	if e.maxConcurrent <= 0 {
		e.maxConcurrent = defaultMaxConcurrent
	}
	if e.callTimeout <= 0 {
		e.callTimeout = defaultCallTimeout
	}
	if e.maxRetries < 0 {
		e.maxRetries = defaultMaxRetries
	}
	return e
}

// Run executes the batch and returns one result per request, in request
// order. Individual failures never fail the batch; they yield synthetic
// failed results so downstream stages keep their positional pairing.
func (e *Executor) Run(ctx context.Context, requests []types.ToolInvocationRequest) []types.ToolCallResult {
	results := make([]types.ToolCallResult, len(requests))
	sem := semaphore.NewWeighted(e.maxConcurrent)
	var wg sync.WaitGroup

	for i, req := range requests {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = e.failedResult(req, err)
			continue
		}
		wg.Add(1)
		go func(i int, req types.ToolInvocationRequest) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = e.runOne(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

// runOne executes a single request with guardrails, timeout and retries.
func (e *Executor) runOne(ctx context.Context, req types.ToolInvocationRequest) types.ToolCallResult {
	if err := ValidateInput(req); err != nil {
		e.recordFailure(req, err)
		return e.failedResult(req, err)
	}

	tool, ok := e.reg.Get(req.Tool)
	if !ok {
		err := fmt.Errorf("unknown tool %q", req.Tool)
		e.recordFailure(req, err)
		return e.failedResult(req, err)
	}

	args := NormalizeInput(req.Tool, req.ToolInput)

	var content string
	var lastErr error
	attempts := e.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		raw, err := tool.Invoke(callCtx, args)
		cancel()
		if err == nil {
			content = registry.Normalize(raw)
			lastErr = nil
			break
		}
		lastErr = err
		e.log.Warn("tool call failed",
			zap.String("tool", req.Tool),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr != nil {
		e.recordFailure(req, lastErr)
		return types.ToolCallResult{
			Content:  fmt.Sprintf("Error: Failed after %d attempts. Last error: %v", attempts, lastErr),
			ToolName: req.Tool,
			Success:  false,
		}
	}

	success := true
	if e.judge != nil {
		success = e.judge.Meaningful(ctx, req.Tool, content)
	}
	if !success {
		e.recordFailure(req, fmt.Errorf("output judged not meaningful"))
	}

	result := types.ToolCallResult{
		Content:   content,
		ToolName:  req.Tool,
		Toolsuite: tool.Toolsuite,
		Success:   success,
	}
	result.AdditionalInfoType, result.AdditionalInfoValue = ExtractAdditionalInfo(req.Tool, args, content)
	return result
}

func (e *Executor) failedResult(req types.ToolInvocationRequest, err error) types.ToolCallResult {
	return types.ToolCallResult{
		Content:  fmt.Sprintf("Error: %v", err),
		ToolName: req.Tool,
		Success:  false,
	}
}

func (e *Executor) recordFailure(req types.ToolInvocationRequest, err error) {
	if e.failureLog == nil {
		return
	}
	if logErr := e.failureLog.Append(req, err.Error()); logErr != nil {
		e.log.Warn("recording tool failure", zap.Error(logErr))
	}
}

// ValidateInput rejects arguments that would make a tool call meaningless.
// A nil or empty argument map is rejected, as is any value that is nil,
// empty, or one of the literal placeholders models substitute for missing
// data.
func ValidateInput(req types.ToolInvocationRequest) error {
	if req.Tool == "" {
		return fmt.Errorf("request has no tool name")
	}
	if len(req.ToolInput) == 0 {
		return fmt.Errorf("tool %q called with no arguments", req.Tool)
	}
	for key, val := range req.ToolInput {
		if val == nil {
			return fmt.Errorf("tool %q argument %q is null", req.Tool, key)
		}
		if s, ok := val.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "", "null", "none":
				return fmt.Errorf("tool %q argument %q is empty", req.Tool, key)
			}
		}
	}
	return nil
}
