// Package output renders checksum results in various formats (pretty,
// plain, json, jsonl, yaml and user templates).
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
)

// Mode identifies which operation produced a Result.
type Mode string

// Result modes.
const (
	ModeCalc     Mode = "calc"
	ModeVerify   Mode = "verify"
	ModeManifest Mode = "manifest"
	ModeHistory  Mode = "history"
)

// Result is what the CLI hands to a formatter. Exactly one of the
// mode-specific fields is set, matching Mode.
type Result struct {
	Mode Mode

	// Verbose asks formatters to include hashes and passed entries.
	Verbose bool

	// Calc is set for ModeCalc.
	Calc *digest.FileDigest

	// Single is set for ModeVerify.
	Single *verify.SingleResult

	// Manifest is set for ModeManifest.
	Manifest *verify.Report

	// Runs is set for ModeHistory, newest first.
	Runs []history.Record
}

// OK reports whether the result should lead to a zero exit status.
func (r *Result) OK() bool {
	switch r.Mode {
	case ModeVerify:
		return r.Single != nil && r.Single.Outcome.Passed()
	case ModeManifest:
		return r.Manifest != nil && r.Manifest.OK()
	default:
		return true
	}
}

// Formatter renders a Result.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
	aliases   map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
		aliases:   make(map[string]string),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Alias makes alias resolve to the formatter registered as name.
func (r *Registry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = name
}

// Get returns a new formatter instance by name or alias.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	factory, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(r.availableLocked(), ", "))
	}
	return factory(), nil
}

// Available returns the sorted names of registered formatters.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableLocked()
}

func (r *Registry) availableLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the formatters in the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Resolve returns a template formatter when tmpl is non-empty and the
// named formatter otherwise.
func Resolve(name, tmpl string) (Formatter, error) {
	if tmpl != "" {
		return NewTemplateFormatter(tmpl), nil
	}
	return Get(name)
}

// IsStructured reports whether name selects a machine-readable format.
func IsStructured(name string) bool {
	switch strings.ToLower(name) {
	case "json", "jsonl", "yaml":
		return true
	}
	return false
}

func init() {
	DefaultRegistry.Alias("text", "pretty")
}
