package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptConfig holds the prompts and model parameters used by the extractor
type PromptConfig struct {
	ReceiptExtraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"receipt_extraction"`
}

// DefaultPrompts returns the prompts shipped with the binary
func DefaultPrompts() *PromptConfig {
	prompts, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(err)
	}
	return prompts
}

// LoadPrompts loads prompt configuration from YAML file
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if prompts.ReceiptExtraction.UserTemplate == "" {
		return nil, fmt.Errorf("receipt_extraction.user_template is required")
	}
	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
