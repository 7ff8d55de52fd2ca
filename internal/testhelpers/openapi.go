package testhelpers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-api/backend/internal/openapi"
)

// OpenAPIValidator checks HTTP exchanges against the published document.
type OpenAPIValidator struct {
	router routers.Router
}

// NewOpenAPIValidator loads the embedded document and fails the test if it
// is invalid.
func NewOpenAPIValidator(t *testing.T) *OpenAPIValidator {
	t.Helper()

	doc, err := openapi.Load(context.Background())
	require.NoError(t, err)
	router, err := gorillamux.NewRouter(doc)
	require.NoError(t, err, "failed to create openapi router")
	return &OpenAPIValidator{router: router}
}

// ValidateRequest checks a request against its documented operation. The
// request body is consumed and restored.
func (v *OpenAPIValidator) ValidateRequest(r *http.Request) error {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return fmt.Errorf("no matching route: %w", err)
	}
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: true},
	})
}

// ValidateResponse checks a response produced for r.
func (v *OpenAPIValidator) ValidateResponse(r *http.Request, status int, header http.Header, body []byte) error {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return fmt.Errorf("no matching route: %w", err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
		},
		Status: status,
		Header: header,
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}
	if len(body) > 0 {
		input.SetBodyBytes(body)
	}
	return openapi3filter.ValidateResponse(r.Context(), input)
}
