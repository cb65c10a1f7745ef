// Package template renders prompt content with variable substitution.
package template

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
)

// Engine renders prompt text using Go text/template with custom functions.
type Engine struct {
	leftDelim  string
	rightDelim string
	funcMap    template.FuncMap
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithDelims sets custom delimiters (default "{{" and "}}").
func WithDelims(left, right string) EngineOption {
	return func(e *Engine) {
		e.leftDelim = left
		e.rightDelim = right
	}
}

// WithFuncMap adds custom template functions.
func WithFuncMap(fm template.FuncMap) EngineOption {
	return func(e *Engine) {
		for k, v := range fm {
			e.funcMap[k] = v
		}
	}
}

// NewEngine creates a new template engine with default or custom options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		leftDelim:  "{{",
		rightDelim: "}}",
		funcMap:    defaultFuncMap(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":    strings.Join,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"trim":    strings.TrimSpace,
		"default": defaultFunc,
	}
}

func defaultFunc(def, val interface{}) interface{} {
	if val == nil || val == "" {
		return def
	}
	return val
}

// Render substitutes vars into the prompt text. Variables are referenced as
// {{.name}}; missing keys render as the empty string.
func (e *Engine) Render(ctx context.Context, text string, vars map[string]any) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if text == "" {
		return "", nil
	}
	t, err := template.New("").Delims(e.leftDelim, e.rightDelim).Funcs(e.funcMap).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	// missingkey=zero prints "<no value>" for nil map values; blank those.
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
