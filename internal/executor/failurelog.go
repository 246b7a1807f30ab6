// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// FailureRecord is one failed invocation in the failure log.
type FailureRecord struct {
	Timestamp string         `json:"timestamp"`
	Tool      string         `json:"tool"`
	Item      string         `json:"item,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`
	Error     string         `json:"error"`
}

// FailureLog appends failed tool invocations to a shared JSON file. The
// file holds a JSON array; appends are read-modify-write under an advisory
// lock so concurrent runs do not clobber each other.
type FailureLog struct {
	path string
	lock *flock.Flock
}

// NewFailureLog builds a log writing to path.
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path, lock: flock.New(path + ".lock")}
}

// Append records one failure.
func (f *FailureLog) Append(req types.ToolInvocationRequest, errMsg string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating failure log directory: %w", err)
	}
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("locking failure log: %w", err)
	}
	defer f.lock.Unlock()

	var records []FailureRecord
	if data, err := os.ReadFile(f.path); err == nil && len(data) > 0 {
		// A corrupt log starts over rather than blocking the run.
		_ = json.Unmarshal(data, &records)
	}

	records = append(records, FailureRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tool:      req.Tool,
		Item:      req.Item,
		ToolInput: req.ToolInput,
		Error:     errMsg,
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding failure log: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("writing failure log: %w", err)
	}
	return nil
}
