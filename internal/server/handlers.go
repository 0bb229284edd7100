package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/flowbind/internal/errors"
	"github.com/felixgeelhaar/flowbind/internal/model"
	"github.com/felixgeelhaar/flowbind/internal/process"
)

// mappingRequest is the body of the mapping endpoints. OpenAPI holds either the
// document itself or a JSON string containing it (JSON or YAML).
type mappingRequest struct {
	Process *model.Process  `json:"process"`
	OpenAPI json.RawMessage `json:"openapi"`
}

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the coded error
type ErrorDetail struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	p, doc, err := s.decodeMappingRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.Map(*p, doc))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	p, doc, err := s.decodeMappingRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.Recommend(*p, doc))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.document(req.OpenAPI)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.Catalog(doc))
}

func (s *Server) decodeMappingRequest(w http.ResponseWriter, r *http.Request) (*model.Process, *openapi3.T, error) {
	var req mappingRequest
	if err := s.decode(w, r, &req); err != nil {
		return nil, nil, err
	}
	if req.Process == nil {
		return nil, nil, errors.NewProcessInvalidError("request has no process")
	}

	process.Normalize(req.Process)
	if err := process.Validate(req.Process); err != nil {
		return nil, nil, err
	}

	doc, err := s.document(req.OpenAPI)
	if err != nil {
		return nil, nil, err
	}
	return req.Process, doc, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewBadRequestError("request body too large").
				WithSuggestion("Raise server.max_body_bytes in the configuration")
		}
		return errors.NewBadRequestError(err.Error())
	}
	return nil
}

// document resolves the openapi field through the shared cache
func (s *Server) document(raw json.RawMessage) (*openapi3.T, error) {
	data, err := openAPIBytes(raw)
	if err != nil {
		return nil, err
	}
	return s.cache.Load(data)
}

func openAPIBytes(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, missingOpenAPI()
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return nil, errors.NewBadRequestError("openapi must be an object or a string")
	}
	if strings.TrimSpace(text) == "" {
		return nil, missingOpenAPI()
	}
	return []byte(text), nil
}

func missingOpenAPI() *errors.FlowbindError {
	return errors.New(errors.ErrCodeOpenAPIMissing, "request has no OpenAPI document").
		WithSuggestion(`Send the document in the "openapi" field`)
}

func statusFor(code errors.ErrorCode) int {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "PROCESS-"), strings.HasPrefix(c, "OPENAPI-"):
		return http.StatusBadRequest
	case code == errors.ErrCodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *errors.FlowbindError
	if !stderrors.As(err, &fe) {
		fe = errors.Wrap(errors.ErrCodeServerFailure, "internal error", err)
	}

	status := statusFor(fe.Code)
	logger := s.logger.ForRequest(w.Header().Get(HeaderRequestID), r.Method, r.URL.Path).WithError(fe)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Warn("request rejected")
	}

	message := fe.Message
	if fe.Cause != nil {
		message += ": " + fe.Cause.Error()
	}
	s.writeJSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:        string(fe.Code),
		Message:     message,
		Suggestions: fe.Suggestions,
	}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err.Error())
	}
}
