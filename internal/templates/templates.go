// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package templates carries a library of research thinking templates and
// retrieves the one closest to a query by embedding similarity. A template
// is advisory planning guidance for the model; the plan it produces always
// wins over the template's structure.
package templates

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/biosearch-engine/internal/embedding"
)

//go:embed library.yaml
var libraryYAML []byte

// Template is one reusable research strategy.
type Template struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
	Body        string `yaml:"body"`
}

type libraryFile struct {
	Templates []Template `yaml:"templates"`
}

// Library holds the template set and its retrieval index.
type Library struct {
	templates map[string]Template
	ret       *embedding.Retriever
	log       *zap.Logger
}

// Load parses the embedded library. ret may be nil; retrieval then always
// returns ok=false.
func Load(ret *embedding.Retriever, log *zap.Logger) (*Library, error) {
	return load(libraryYAML, ret, log)
}

func load(data []byte, ret *embedding.Retriever, log *zap.Logger) (*Library, error) {
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing template library: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, fmt.Errorf("template library is empty")
	}

	lib := &Library{
		templates: make(map[string]Template, len(f.Templates)),
		ret:       ret,
		log:       log,
	}
	for _, t := range f.Templates {
		if t.Key == "" {
			return nil, fmt.Errorf("template with empty key")
		}
		lib.templates[t.Key] = t
	}
	return lib, nil
}

// Get returns the template for key.
func (l *Library) Get(key string) (Template, bool) {
	t, ok := l.templates[key]
	return t, ok
}

// Retrieve returns the template closest to the query. ok=false when
// retrieval is unavailable or fails; planning then runs without a
// template.
func (l *Library) Retrieve(ctx context.Context, query string) (Template, bool) {
	if l.ret == nil {
		return Template{}, false
	}

	candidates := make(map[string]string, len(l.templates))
	for key, t := range l.templates {
		candidates["template:"+key] = t.Description
	}
	top, err := l.ret.TopKFromCandidates(ctx, query, candidates, 1)
	if err != nil || len(top) == 0 {
		l.log.Warn("template retrieval failed", zap.Error(err))
		return Template{}, false
	}

	key := top[0][len("template:"):]
	t, ok := l.templates[key]
	return t, ok
}
