// Package archive moves completed tasks out of the live task file into
// month-partitioned archive files and keeps completion statistics.
package archive

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/bouldy-go/internal/utils"
)

// DefaultDailyLimit is the daily limit used when no metadata file exists.
const DefaultDailyLimit = 5

//go:embed metadata.schema.json
var metadataSchemaText string

var metadataSchema = jsonschema.MustCompileString("todo-metadata.schema.json", metadataSchemaText)

// Stats holds completion counters. Counters only grow.
type Stats struct {
	TotalCompleted     int            `json:"totalCompleted"`
	CurrentStreak      int            `json:"currentStreak"`
	LongestStreak      int            `json:"longestStreak"`
	CompletionsByMonth map[string]int `json:"completionsByMonth"`
	CompletionsByDay   map[string]int `json:"completionsByDay"`
}

// Metadata is the persisted todo metadata file.
type Metadata struct {
	DailyLimit int   `json:"dailyLimit"`
	Stats      Stats `json:"stats"`
}

// NewMetadata returns empty metadata with the given daily limit.
func NewMetadata(dailyLimit int) Metadata {
	return Metadata{
		DailyLimit: dailyLimit,
		Stats: Stats{
			CompletionsByMonth: map[string]int{},
			CompletionsByDay:   map[string]int{},
		},
	}
}

// ValidationError is a metadata schema violation at a JSON path.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LoadMetadata reads the metadata file at path. A missing file yields empty
// metadata with defaultLimit. A file that does not parse or does not match
// the metadata schema is an error.
func LoadMetadata(path string, defaultLimit int) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewMetadata(defaultLimit), nil
		}
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	return DecodeMetadata(data)
}

// DecodeMetadata parses and validates metadata JSON.
func DecodeMetadata(data []byte) (Metadata, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	if err := metadataSchema.Validate(doc); err != nil {
		return Metadata{}, fmt.Errorf("validate metadata: %w", schemaErrors(err))
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	if m.Stats.CompletionsByMonth == nil {
		m.Stats.CompletionsByMonth = map[string]int{}
	}
	if m.Stats.CompletionsByDay == nil {
		m.Stats.CompletionsByDay = map[string]int{}
	}
	return m, nil
}

// SaveMetadata writes metadata to path with 2-space indentation.
func SaveMetadata(path string, m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')

	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// schemaErrors flattens a schema validation error into ValidationErrors.
func schemaErrors(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var out []error
	collectSchemaErrors(&out, ve)
	if len(out) == 0 {
		return err
	}
	return errors.Join(out...)
}

func collectSchemaErrors(out *[]error, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		*out = append(*out, &ValidationError{
			Path: instancePath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(out, cause)
	}
}

// instancePath turns a schema instance location such as
// "/stats/completionsByDay/2024-01-01" into "stats.completionsByDay.2024-01-01".
// Numeric segments become indexes: "/prompts/0" is "prompts[0]".
func instancePath(loc string) string {
	loc = strings.TrimPrefix(loc, "#")
	var b strings.Builder
	for _, seg := range strings.Split(loc, "/") {
		if seg == "" {
			continue
		}
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}
