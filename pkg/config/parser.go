package config

import (
	"fmt"
	"os"
	"time"

	"github.com/saturnines/nexus-smapi/pkg/youtube"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the config leaves a setting unset.
const (
	DefaultMaxAttempts  = 3
	DefaultDelaySeconds = 1.0
	DefaultConcurrency  = 5
)

// ConfigLoader defines the interface for loading configs
type ConfigLoader interface {
	Load(path string) (interface{}, error)
	Parse(data []byte) (interface{}, error)
}

type ValidationError struct {
	Field   string
	Message string
}

type Validator interface {
	Validate(config interface{}) []ValidationError
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultValueSetter Handles the interface for setting default values
type DefaultValueSetter interface {
	SetDefaults(config interface{})
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands environment variables with the given data
func (e *EnvExpander) Expand(data []byte) []byte {
	expanded := os.Expand(string(data), os.Getenv)
	return []byte(expanded)
}

// PipelineLoader uses ConfigLoader for Pipeline configurations
type PipelineLoader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
}

// NewPipelineLoader creates a new PipelineLoader with the given components
func NewPipelineLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *PipelineLoader {
	return &PipelineLoader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// NewDefaultLoader wires the env expander, defaults and every validator.
func NewDefaultLoader() *PipelineLoader {
	return NewPipelineLoader(
		&EnvExpander{},
		&PipelineDefaults{},
		&RequiredFieldValidator{},
		&RetryValidator{},
		&AuthValidator{},
		&ExportValidator{},
	)
}

// Load a new pipeline config from YAML file
func (l *PipelineLoader) Load(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return l.Parse(data)
}

// Parse parses a yaml config
func (l *PipelineLoader) Parse(data []byte) (interface{}, error) {
	// Expand variables if an expander is configured
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(&pipeline)
	}

	var allErrors []ValidationError
	for _, validator := range l.validators {
		errors := validator.Validate(&pipeline)
		allErrors = append(allErrors, errors...)
	}

	if len(allErrors) > 0 {
		return nil, fmt.Errorf("validation errors: %v", allErrors)
	}

	return &pipeline, nil
}

// LoadPipeline is Load with the result already asserted to *Pipeline.
func (l *PipelineLoader) LoadPipeline(path string) (*Pipeline, error) {
	cfg, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.(*Pipeline), nil
}

// PipelineDefaults implements DefaultValueSetter for Pipeline.
// Now pins the search publish window; nil means time.Now.
type PipelineDefaults struct {
	Now func() time.Time
}

// SetDefaults sets default values for Pipeline
func (d *PipelineDefaults) SetDefaults(config interface{}) {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return
	}

	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	if pipeline.Retry.MaxAttempts == nil {
		n := DefaultMaxAttempts
		pipeline.Retry.MaxAttempts = &n
	}
	if pipeline.Retry.DelaySeconds == nil {
		s := DefaultDelaySeconds
		pipeline.Retry.DelaySeconds = &s
	}
	if pipeline.Batch.Concurrency <= 0 {
		pipeline.Batch.Concurrency = DefaultConcurrency
	}

	applyResourceDefaults(&pipeline.Resources.Search, youtube.SearchEndpoint, youtube.DefaultParams(youtube.KindSearch, now))
	applyResourceDefaults(&pipeline.Resources.Videos, youtube.VideosEndpoint, youtube.DefaultParams(youtube.KindVideos, now))
	applyResourceDefaults(&pipeline.Resources.CommentThreads, youtube.CommentThreadsEndpoint, youtube.DefaultParams(youtube.KindCommentThreads, now))

	if pipeline.Export.Dir == "" {
		pipeline.Export.Dir = "."
	}
	if len(pipeline.Export.Formats) == 0 {
		pipeline.Export.Formats = []ExportFormat{ExportJSON}
	}
}

// applyResourceDefaults layers the configured params over defaults.
func applyResourceDefaults(r *Resource, endpoint string, defaults map[string]string) {
	if r.Endpoint == "" {
		r.Endpoint = endpoint
	}
	for k, v := range r.Params {
		defaults[k] = v
	}
	r.Params = defaults
}

// RetryDelay converts the configured delay into a duration.
func (r Retry) RetryDelay() time.Duration {
	if r.DelaySeconds == nil {
		return time.Duration(DefaultDelaySeconds * float64(time.Second))
	}
	return time.Duration(*r.DelaySeconds * float64(time.Second))
}

// Attempts returns the configured attempt limit.
func (r Retry) Attempts() int {
	if r.MaxAttempts == nil {
		return DefaultMaxAttempts
	}
	return *r.MaxAttempts
}

// StaggerDelay converts the configured stagger into a duration.
func (b Batch) StaggerDelay() time.Duration {
	return time.Duration(b.StaggerSeconds * float64(time.Second))
}

// RequiredFieldValidator validates required fields
type RequiredFieldValidator struct{}

// Validate checks that all required fields are present
func (v *RequiredFieldValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	if pipeline.Name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "is required"})
	}

	if pipeline.Resources.Search.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "resources.search.endpoint", Message: "is required"})
	}
	if pipeline.Resources.Videos.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "resources.videos.endpoint", Message: "is required"})
	}
	if pipeline.Resources.CommentThreads.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "resources.comment_threads.endpoint", Message: "is required"})
	}

	if pipeline.MinComments < 0 {
		errors = append(errors, ValidationError{Field: "min_comments", Message: "must not be negative"})
	}

	return errors
}

// RetryValidator rejects negative retry and batch settings
type RetryValidator struct{}

// Validate checks retry limits and delays
func (v *RetryValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	if pipeline.Retry.MaxAttempts != nil && *pipeline.Retry.MaxAttempts < 0 {
		errors = append(errors, ValidationError{Field: "retry.max_attempts", Message: "must not be negative"})
	}
	if pipeline.Retry.DelaySeconds != nil && *pipeline.Retry.DelaySeconds < 0 {
		errors = append(errors, ValidationError{Field: "retry.delay_seconds", Message: "must not be negative"})
	}
	if pipeline.Batch.StaggerSeconds < 0 {
		errors = append(errors, ValidationError{Field: "batch.stagger_seconds", Message: "must not be negative"})
	}

	return errors
}

// AuthValidator handles authentication validation
type AuthValidator struct{}

// Validate checks that authentication configuration is valid
func (v *AuthValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	// Skip validation if auth is not configured
	if pipeline.Auth == nil {
		return errors
	}

	switch pipeline.Auth.Type {
	case AuthTypeAPIKey:
		if pipeline.Auth.APIKey == nil {
			errors = append(errors, ValidationError{Field: "auth.api_key", Message: "is required for api_key auth"})
		} else {
			if pipeline.Auth.APIKey.Value == "" {
				errors = append(errors, ValidationError{Field: "auth.api_key.value", Message: "is required for api_key auth"})
			}
		}
	case AuthTypeBearer:
		if pipeline.Auth.Bearer == nil || pipeline.Auth.Bearer.Token == "" {
			errors = append(errors, ValidationError{Field: "auth.bearer.token", Message: "is required for bearer auth"})
		}
	default:
		errors = append(errors, ValidationError{Field: "auth.type", Message: fmt.Sprintf("unknown auth type: %s", pipeline.Auth.Type)})
	}

	return errors
}

// ExportValidator checks export formats and their settings
type ExportValidator struct{}

// Validate checks that every format is known and has what it needs
func (v *ExportValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	for i, format := range pipeline.Export.Formats {
		switch format {
		case ExportJSON, ExportCSV:
		case ExportSQLite:
			if pipeline.Export.SQLitePath == "" {
				errors = append(errors, ValidationError{Field: "export.sqlite_path", Message: "is required for sqlite export"})
			}
		default:
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("export.formats[%d]", i),
				Message: fmt.Sprintf("unknown export format: %s", format),
			})
		}
	}

	return errors
}
