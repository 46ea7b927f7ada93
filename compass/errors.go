package compass

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorTypeEventSourceNotFound is reported by the events endpoint when no event
// source with the payload's externalEventSourceId is attached to the component.
const ErrorTypeEventSourceNotFound = "CREATE_EVENT_SOURCE_NOT_FOUND"

// ErrComponentNotFound is returned when a slug does not resolve to a component
var ErrComponentNotFound = errors.New("component not found")

// IsComponentNotFound reports whether err means the slug matched no component
func IsComponentNotFound(err error) bool {
	return errors.Is(err, ErrComponentNotFound)
}

// APIError carries the status and body of a rejected Compass request
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Errors     []APIErrorDetail
}

// APIErrorDetail is one entry of the events endpoint's error list
type APIErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newAPIError(method, url string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}

	var envelope struct {
		Errors []APIErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Errors = envelope.Errors
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// HasErrorType reports whether the response listed an error of errType
func (e *APIError) HasErrorType(errType string) bool {
	for _, detail := range e.Errors {
		if detail.Type == errType {
			return true
		}
	}
	return false
}

// IsEventSourceMissing reports whether err is the events endpoint's 404 for an
// event source that has not been created yet.
func IsEventSourceMissing(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound && apiErr.HasErrorType(ErrorTypeEventSourceNotFound)
}

// GraphQLError collects the messages of a GraphQL errors list
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("graphql %s failed: %s", e.Operation, strings.Join(e.Messages, "; "))
}
