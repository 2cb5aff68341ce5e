package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System   SystemPrompts   `yaml:"system"`
	Keywords KeywordsPrompts `yaml:"keywords"`
}

type SystemPrompts struct {
	Keywords string `yaml:"keywords"`
}

type KeywordsPrompts struct {
	Extract string `yaml:"extract"`
}

type KeywordsParams struct {
	Content string
	Count   int
}

// Load reads prompts.yaml from the working directory, falling back to the
// built-in prompts when the file is absent.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	return p, err
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parse(data)
}

func Default() (*Prompts, error) {
	return parse(defaultPrompts)
}

func parse(data []byte) (*Prompts, error) {
	def := &Prompts{}
	if err := yaml.Unmarshal(defaultPrompts, def); err != nil {
		return nil, fmt.Errorf("failed to parse default prompts: %w", err)
	}

	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	if p.System.Keywords == "" {
		p.System.Keywords = def.System.Keywords
	}
	if p.Keywords.Extract == "" {
		p.Keywords.Extract = def.Keywords.Extract
	}
	return &p, nil
}

func (p *Prompts) RenderKeywordsSystem(params KeywordsParams) (string, error) {
	return render(p.System.Keywords, params)
}

func (p *Prompts) RenderKeywords(params KeywordsParams) (string, error) {
	return render(p.Keywords.Extract, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
