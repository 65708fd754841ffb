// Package prompt renders the generation prompt for an essay request.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"
)

// Structure selects the narrative variant of the essay.
type Structure string

const (
	StructureClassic   Structure = "classic"
	StructureThreeLine Structure = "threeline"
)

// Structures lists the accepted variants in display order.
var Structures = []Structure{StructureClassic, StructureThreeLine}

// Valid reports whether s is one of Structures.
func (s Structure) Valid() bool {
	for _, v := range Structures {
		if s == v {
			return true
		}
	}
	return false
}

// StructureNames returns the accepted variants as strings.
func StructureNames() []string {
	out := make([]string, len(Structures))
	for i, s := range Structures {
		out[i] = string(s)
	}
	return out
}

//go:embed templates/essay.tmpl
var essayTemplate string

//go:embed templates/exemplars.txt
var defaultExemplars string

var tmpl = template.Must(template.New("essay").Parse(essayTemplate))

// Request carries the validated user inputs.
type Request struct {
	Topic      string
	WordCount  int
	Structure  Structure
	Guidelines string
}

type view struct {
	Instruction string
	Guidelines  string
	Exemplars   string
}

// Builder renders prompts with a fixed exemplar block.
type Builder struct {
	exemplars string
}

// NewBuilder loads exemplars from path, or uses the embedded set when path
// is empty.
func NewBuilder(path string) (*Builder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &Builder{exemplars: strings.TrimSpace(defaultExemplars)}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exemplars %s: %w", path, err)
	}
	return &Builder{exemplars: strings.TrimSpace(string(data))}, nil
}

// Default returns a builder over the embedded exemplars.
func Default() *Builder {
	return &Builder{exemplars: strings.TrimSpace(defaultExemplars)}
}

// Build renders the prompt for req.
func (b *Builder) Build(req Request) (string, error) {
	if !req.Structure.Valid() {
		return "", fmt.Errorf("unknown structure %q", req.Structure)
	}
	v := view{
		Instruction: instruction(req),
		Guidelines:  strings.TrimSpace(req.Guidelines),
		Exemplars:   b.exemplars,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func instruction(req Request) string {
	topic := strings.TrimSpace(req.Topic)
	switch req.Structure {
	case StructureThreeLine:
		return fmt.Sprintf("幫我創作一篇%d字 文學性高的DSE敘事散文，要用三線散敘寫作，題目為「%s」。", req.WordCount, topic)
	default:
		return fmt.Sprintf("幫我創作一篇%d字 文學性高的DSE敘事散文，題目為「%s」。", req.WordCount, topic)
	}
}

// Cache hands out a Builder for the configured exemplar file and reloads it
// when the path changes between configuration snapshots.
type Cache struct {
	mu      sync.Mutex
	path    string
	builder *Builder
}

// For returns the builder for path. A file that cannot be read falls back
// to the embedded exemplars and reports the error so the caller can log it.
func (c *Cache) For(path string) (*Builder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.builder != nil && c.path == path {
		return c.builder, nil
	}
	b, err := NewBuilder(path)
	if err != nil {
		// keep retrying the file on later requests
		return Default(), err
	}
	c.path, c.builder = path, b
	return b, nil
}
