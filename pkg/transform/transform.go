// pkg/transform/transform.go
package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Transformer defines the interface for field transformations
type Transformer interface {
	Transform(value interface{}) (interface{}, error)
}

// Registry holds all available transformers
type Registry struct {
	mu           sync.RWMutex
	transformers map[string]TransformCreator
}

// TransformCreator creates a transformer from config
type TransformCreator func(config map[string]interface{}) (Transformer, error)

// NewRegistry creates a new transformer registry with defaults
func NewRegistry() *Registry {
	r := &Registry{
		transformers: make(map[string]TransformCreator),
	}

	r.Register("string", stringTransformCreator)
	r.Register("int", intTransformCreator)
	r.Register("join", joinTransformCreator)
	r.Register("last_segment", lastSegmentTransformCreator)
	r.Register("scrub", scrubTransformCreator)
	r.Register("strip_commas", stripCommasTransformCreator)

	return r
}

// Register adds a new transformer type
func (r *Registry) Register(name string, creator TransformCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[name] = creator
}

// Create builds a transformer from config
func (r *Registry) Create(transformType string, config map[string]interface{}) (Transformer, error) {
	r.mu.RLock()
	creator, ok := r.transformers[transformType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transform type: %s", transformType)
	}
	return creator(config)
}

// MustCreate is Create for transformers known to be registered.
func (r *Registry) MustCreate(transformType string, config map[string]interface{}) Transformer {
	t, err := r.Create(transformType, config)
	if err != nil {
		panic(err)
	}
	return t
}

// StringTransform converts values to strings
type StringTransform struct{}

func stringTransformCreator(config map[string]interface{}) (Transformer, error) {
	return &StringTransform{}, nil
}

func (t *StringTransform) Transform(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case []interface{}:
		return (&JoinTransform{Delimiter: "|"}).Transform(v)
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

// IntTransform converts values to integers
type IntTransform struct{}

func intTransformCreator(config map[string]interface{}) (Transformer, error) {
	return &IntTransform{}, nil
}

func (t *IntTransform) Transform(value interface{}) (interface{}, error) {
	if value == nil {
		return 0, nil
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

// JoinTransform joins an array into a string
type JoinTransform struct {
	Delimiter string
}

func joinTransformCreator(config map[string]interface{}) (Transformer, error) {
	t := &JoinTransform{
		Delimiter: ",", // default
	}

	if delim, ok := config["delimiter"].(string); ok {
		t.Delimiter = delim
	}

	return t, nil
}

func (t *JoinTransform) Transform(value interface{}) (interface{}, error) {
	switch arr := value.(type) {
	case []string:
		return strings.Join(arr, t.Delimiter), nil
	case []interface{}:
		strs := make([]string, len(arr))
		for i, v := range arr {
			strs[i] = fmt.Sprintf("%v", v)
		}
		return strings.Join(strs, t.Delimiter), nil
	default:
		return nil, fmt.Errorf("join transform requires array input, got %T", value)
	}
}

// LastSegmentTransform keeps what follows the final "/" of a string, or of
// each string in an array. Wikipedia topic URLs become topic names.
type LastSegmentTransform struct{}

func lastSegmentTransformCreator(config map[string]interface{}) (Transformer, error) {
	return &LastSegmentTransform{}, nil
}

func (t *LastSegmentTransform) Transform(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return lastSegment(v), nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("last_segment transform requires string elements, got %T", item)
			}
			out[i] = lastSegment(s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("last_segment transform requires string input, got %T", value)
	}
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

// whitespaceRun matches Unicode whitespace, not only ASCII: \s alone misses
// NBSP, ideographic space, line/paragraph separators and NEL.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]+`)

// Scrub collapses carriage returns, newlines and whitespace runs into a
// single space.
func Scrub(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// ScrubTransform applies Scrub to strings and passes other values through
type ScrubTransform struct{}

func scrubTransformCreator(config map[string]interface{}) (Transformer, error) {
	return &ScrubTransform{}, nil
}

func (t *ScrubTransform) Transform(value interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		return Scrub(s), nil
	}
	return value, nil
}

// StripCommasTransform removes literal commas from strings
type StripCommasTransform struct{}

func stripCommasTransformCreator(config map[string]interface{}) (Transformer, error) {
	return &StripCommasTransform{}, nil
}

func (t *StripCommasTransform) Transform(value interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		return strings.ReplaceAll(s, ",", ""), nil
	}
	return value, nil
}

// ChainTransform applies multiple transforms in sequence
type ChainTransform struct {
	transforms []Transformer
}

// NewChainTransform creates a transform that applies multiple transforms in order
func NewChainTransform(transforms ...Transformer) *ChainTransform {
	return &ChainTransform{transforms: transforms}
}

func (t *ChainTransform) Transform(value interface{}) (interface{}, error) {
	result := value
	for _, transform := range t.transforms {
		var err error
		result, err = transform.Transform(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// DefaultRegistry is the global transformer registry
var DefaultRegistry = NewRegistry()
