package catalog

import (
	"context"
	"os"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/flowbind/internal/errors"
	"github.com/felixgeelhaar/flowbind/internal/log"
)

// Loader parses OpenAPI documents. Documents that fail validation are still
// returned: resolution works on whatever partial model the parser produced.
type Loader struct {
	logger *log.Logger
}

// NewLoader creates a loader that reports validation problems to logger
func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Loader{logger: logger}
}

// LoadFile reads and parses an OpenAPI document (JSON or YAML) from disk
func (l *Loader) LoadFile(path string) (*openapi3.T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewOpenAPINotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read OpenAPI document", err)
	}
	return l.LoadData(data)
}

// LoadData parses an OpenAPI document (JSON or YAML) held in memory
func (l *Loader) LoadData(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, errors.NewOpenAPIParseError(err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		l.logger.Warn("OpenAPI document failed validation, continuing with partial model",
			"error", err.Error())
	}

	return doc, nil
}
