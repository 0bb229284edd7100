// Package catalog loads OpenAPI descriptions and flattens them into endpoint catalogs.
package catalog

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/flowbind/internal/model"
)

// Methods lists the HTTP methods a catalog covers, in emission order
var Methods = []string{"GET", "POST", "PUT", "DELETE"}

// Build flattens an OpenAPI document into one endpoint per declared (path, method).
// Paths are visited in ascending lexical order, which fixes the catalog order that
// tie-breaking downstream relies on. A nil document yields an empty catalog.
func Build(doc *openapi3.T) []model.Endpoint {
	endpoints := []model.Endpoint{}
	for _, op := range Operations(doc) {
		endpoints = append(endpoints, newEndpoint(op.Path, op.Method, op.Operation))
	}
	return endpoints
}

// Operation is a declared operation together with its path and method
type Operation struct {
	Path      string
	Method    string
	Operation *openapi3.Operation
}

// Operations returns every GET/POST/PUT/DELETE operation in catalog order
func Operations(doc *openapi3.T) []Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}

	items := doc.Paths.Map()
	paths := make([]string, 0, len(items))
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var ops []Operation
	for _, path := range paths {
		item := items[path]
		if item == nil {
			continue
		}
		for _, method := range Methods {
			if op := operationFor(item, method); op != nil {
				ops = append(ops, Operation{Path: path, Method: method, Operation: op})
			}
		}
	}
	return ops
}

func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "GET":
		return item.Get
	case "POST":
		return item.Post
	case "PUT":
		return item.Put
	case "DELETE":
		return item.Delete
	default:
		return nil
	}
}

func newEndpoint(path, method string, op *openapi3.Operation) model.Endpoint {
	return model.Endpoint{
		Path:         path,
		Method:       method,
		OperationID:  op.OperationID,
		Summary:      op.Summary,
		Description:  op.Description,
		ComposedText: ComposeText(op.OperationID, op.Summary, op.Description, path),
	}
}

// ComposeText joins the searchable fields of an endpoint with single spaces,
// skipping empty values
func ComposeText(operationID, summary, description, path string) string {
	parts := make([]string, 0, 4)
	for _, v := range []string{operationID, summary, description, path} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
