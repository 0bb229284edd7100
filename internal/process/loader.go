// Package process loads business process descriptions from YAML or JSON files.
package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/flowbind/internal/errors"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

// Repository defines how process descriptions are loaded and saved
type Repository interface {
	// Load reads a process from a file
	Load(path string) (*model.Process, error)

	// Save writes a process to a file
	Save(p *model.Process, path string) error
}

// FileRepository implements Repository for file-based storage
type FileRepository struct{}

// NewFileRepository creates a new file-based process repository
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// Load reads a process description. JSON is accepted as a subset of YAML.
func (r *FileRepository) Load(path string) (*model.Process, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewProcessNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read process description: %s", path), err)
	}

	p, err := Parse(data)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeProcessUnmarshal) {
			return nil, errors.NewProcessUnmarshalError(path, err)
		}
		return nil, err
	}
	return p, nil
}

// Save writes the process as JSON when the file ends in .json, YAML otherwise
func (r *FileRepository) Save(p *model.Process, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create directory", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(p, "", "  ")
	} else {
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal process description", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write process description: %s", path), err)
	}
	return nil
}

// Parse decodes, normalizes and validates a process description
func Parse(data []byte) (*model.Process, error) {
	var p model.Process
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProcessUnmarshal, "failed to parse process description", err)
	}

	Normalize(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Normalize trims identifiers and fills endpoint hints from task names of the form
// "Description: METHOD /path"
func Normalize(p *model.Process) {
	p.ID = strings.TrimSpace(p.ID)
	for i := range p.Tasks {
		t := &p.Tasks[i]
		t.ID = strings.TrimSpace(t.ID)
		if t.Endpoint != nil {
			t.Endpoint.Method = strings.ToUpper(strings.TrimSpace(t.Endpoint.Method))
			t.Endpoint.Path = strings.TrimSpace(t.Endpoint.Path)
			continue
		}
		if hint, ok := HintFromName(t.Name); ok {
			t.Endpoint = hint
		}
	}
	for i := range p.Flows {
		p.Flows[i].Source = strings.TrimSpace(p.Flows[i].Source)
		p.Flows[i].Target = strings.TrimSpace(p.Flows[i].Target)
	}
}

var hintMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// HintFromName parses "Description: METHOD /path" into an endpoint hint. The text
// before the first colon becomes the hint description.
func HintFromName(name string) (*model.EndpointHint, bool) {
	desc, ref, found := strings.Cut(name, ":")
	if !found {
		return nil, false
	}

	fields := strings.Fields(ref)
	if len(fields) != 2 {
		return nil, false
	}
	method := strings.ToUpper(fields[0])
	path := fields[1]
	if !hintMethods[method] || !strings.HasPrefix(path, "/") {
		return nil, false
	}

	return &model.EndpointHint{
		Method:      method,
		Path:        path,
		Description: strings.TrimSpace(desc),
	}, true
}

// Validate rejects tasks without an id and flows with a missing end
func Validate(p *model.Process) error {
	for i, t := range p.Tasks {
		if t.ID == "" {
			return errors.NewProcessInvalidError(fmt.Sprintf("task at index %d has no id", i))
		}
	}
	for i, f := range p.Flows {
		if f.Source == "" || f.Target == "" {
			return errors.NewProcessInvalidError(fmt.Sprintf("flow at index %d needs both source and target", i))
		}
	}
	return nil
}

var defaultRepository = NewFileRepository()

// Load reads a process description using the default repository
func Load(path string) (*model.Process, error) {
	return defaultRepository.Load(path)
}

// Save writes a process description using the default repository
func Save(p *model.Process, path string) error {
	return defaultRepository.Save(p, path)
}

var _ Repository = (*FileRepository)(nil)
