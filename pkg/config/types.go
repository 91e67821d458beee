package config

// Pipeline represents the full config for one acquisition run
type Pipeline struct {
	Name        string    `yaml:"name"`                  // Required: Unique identifier
	Description string    `yaml:"description,omitempty"` // Optional description
	Query       string    `yaml:"query"`                 // Search query for the SEARCH stage
	Auth        *Auth     `yaml:"auth,omitempty"`        // Optional authentication
	Retry       Retry     `yaml:"retry,omitempty"`       // Per page-fetch retry policy
	Batch       Batch     `yaml:"batch,omitempty"`       // Fan-out settings for per-item stages
	MinComments int       `yaml:"min_comments,omitempty"`
	Verbose     bool      `yaml:"verbose,omitempty"` // Diagnostic logging only
	Resources   Resources `yaml:"resources,omitempty"`
	Export      Export    `yaml:"export,omitempty"`
}

// Auth defines auth methods.
type Auth struct {
	Type   AuthType    `yaml:"type"`              // Required authentication type
	APIKey *APIKeyAuth `yaml:"api_key,omitempty"` // API key authentication
	Bearer *BearerAuth `yaml:"bearer,omitempty"`  // Bearer token authentication
}

// AuthType defines current supported authentication types
type AuthType string

const (
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeBearer AuthType = "bearer"
)

// APIKeyAuth holds a Data API key. With neither header nor query_param set
// the key is sent as the "key" query parameter.
type APIKeyAuth struct {
	Header     string `yaml:"header,omitempty"`
	QueryParam string `yaml:"query_param,omitempty"`
	Value      string `yaml:"value"`
}

// BearerAuth holds a pre-issued access token
type BearerAuth struct {
	Token string `yaml:"token"`
}

// Retry is applied to every page fetch, not to a whole collection.
// Pointers distinguish "unset" from an explicit zero.
type Retry struct {
	MaxAttempts  *int     `yaml:"max_attempts,omitempty"`
	DelaySeconds *float64 `yaml:"delay_seconds,omitempty"`
}

// Batch controls how per-item stages fan out.
type Batch struct {
	Concurrency    int     `yaml:"concurrency,omitempty"`
	StaggerSeconds float64 `yaml:"stagger_seconds,omitempty"`
	Sequential     bool    `yaml:"sequential,omitempty"`
}

// Resources configures the three fetched resource kinds.
type Resources struct {
	Search         Resource `yaml:"search,omitempty"`
	Videos         Resource `yaml:"videos,omitempty"`
	CommentThreads Resource `yaml:"comment_threads,omitempty"`
}

// Resource is one endpoint plus its static query parameters.
// Params given here are layered over the built-in defaults.
type Resource struct {
	Endpoint string            `yaml:"endpoint,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// Export defines where and how tables are written
type Export struct {
	Dir         string         `yaml:"dir,omitempty"`
	Formats     []ExportFormat `yaml:"formats,omitempty"`
	DefaultCols bool           `yaml:"default_cols,omitempty"`
	ShortenCols bool           `yaml:"shorten_cols,omitempty"`
	ForceOutput bool           `yaml:"force_output,omitempty"`
	SQLitePath  string         `yaml:"sqlite_path,omitempty"`
}

// ExportFormat defines supported export sinks
type ExportFormat string

const (
	ExportJSON   ExportFormat = "json"
	ExportCSV    ExportFormat = "csv"
	ExportSQLite ExportFormat = "sqlite"
)
