// Package provider contains the static LLM provider catalog and the gateway
// adapters that normalize vendor APIs into a uniform text-completion call.
package provider

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultQuestionProviderID is the provider used for the clarification and
// improvement phases when the caller does not name one.
const DefaultQuestionProviderID = "openai"

//go:embed catalog.yaml
var catalogYAML []byte

// ModelDescriptor describes a single selectable model.
type ModelDescriptor struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Descriptor describes a provider offered for the final response call.
type Descriptor struct {
	ID                 string            `yaml:"id" json:"id"`
	DisplayName        string            `yaml:"display_name" json:"display_name"`
	Capability         string            `yaml:"capability" json:"capability"`
	Models             []ModelDescriptor `yaml:"models" json:"models"`
	RecommendedModelID string            `yaml:"recommended_model" json:"recommended_model"`
}

// QuestionProvider describes a provider/model pairing used for the
// clarification and improvement phases.
type QuestionProvider struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Model       string `yaml:"model" json:"model"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
}

// Registry is the read-only catalog of available providers and models.
// It is loaded once at startup and safe for concurrent use.
type Registry struct {
	response     []Descriptor
	question     []QuestionProvider
	responseByID map[string]Descriptor
	questionByID map[string]QuestionProvider
}

type catalogFile struct {
	QuestionProviders []QuestionProvider `yaml:"question_providers"`
	ResponseProviders []Descriptor       `yaml:"response_providers"`
}

// LoadRegistry parses the embedded catalog.
func LoadRegistry() (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if len(file.ResponseProviders) == 0 {
		return nil, fmt.Errorf("provider catalog has no response providers")
	}
	if len(file.QuestionProviders) == 0 {
		return nil, fmt.Errorf("provider catalog has no question providers")
	}

	r := &Registry{
		response:     file.ResponseProviders,
		question:     file.QuestionProviders,
		responseByID: make(map[string]Descriptor, len(file.ResponseProviders)),
		questionByID: make(map[string]QuestionProvider, len(file.QuestionProviders)),
	}
	for _, d := range file.ResponseProviders {
		if d.ID == "" || d.RecommendedModelID == "" {
			return nil, fmt.Errorf("response provider %q missing id or recommended model", d.DisplayName)
		}
		r.responseByID[d.ID] = d
	}
	for _, q := range file.QuestionProviders {
		if q.ID == "" || q.Model == "" {
			return nil, fmt.Errorf("question provider %q missing id or model", q.DisplayName)
		}
		r.questionByID[q.ID] = q
	}
	if _, ok := r.questionByID[DefaultQuestionProviderID]; !ok {
		return nil, fmt.Errorf("provider catalog missing default question provider %q", DefaultQuestionProviderID)
	}
	return r, nil
}

// ListResponseProviders returns all providers available for the final call.
func (r *Registry) ListResponseProviders() []Descriptor {
	out := make([]Descriptor, len(r.response))
	copy(out, r.response)
	return out
}

// ResponseProvider looks up a response provider by id.
func (r *Registry) ResponseProvider(id string) (Descriptor, bool) {
	d, ok := r.responseByID[id]
	return d, ok
}

// ListQuestionProviders returns all providers usable for clarification calls.
func (r *Registry) ListQuestionProviders() []QuestionProvider {
	out := make([]QuestionProvider, len(r.question))
	copy(out, r.question)
	return out
}

// QuestionProvider looks up a question provider by id.
func (r *Registry) QuestionProvider(id string) (QuestionProvider, bool) {
	q, ok := r.questionByID[id]
	return q, ok
}

// DefaultQuestionProvider returns the catalog entry for the default
// clarification provider.
func (r *Registry) DefaultQuestionProvider() QuestionProvider {
	return r.questionByID[DefaultQuestionProviderID]
}
