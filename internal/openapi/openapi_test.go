package openapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-api/backend/internal/openapi"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

func TestLoad(t *testing.T) {
	doc, err := openapi.Load(context.Background())
	require.NoError(t, err)

	for _, path := range []string{"/recipes", "/recipes/{id}"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
	item := doc.Paths.Find("/recipes/{id}")
	assert.NotNil(t, item.Get)
	assert.NotNil(t, item.Put)
	assert.NotNil(t, item.Patch)
	assert.NotNil(t, item.Delete)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/openapi.yaml", openapi.Handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "openapi: 3.0.3"))
}

func TestValidatorRejectsUndocumentedShapes(t *testing.T) {
	v := testhelpers.NewOpenAPIValidator(t)

	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/recipes/1", nil)
	header := http.Header{"Content-Type": []string{"application/json"}}

	assert.NoError(t, v.ValidateResponse(req, http.StatusOK, header,
		[]byte(`{"id":1,"name":"Soup","description":"","ingredients":[{"name":"Water"}]}`)))
	assert.Error(t, v.ValidateResponse(req, http.StatusOK, header,
		[]byte(`{"id":1,"name":"Soup","description":"","ingredients":null}`)))
	assert.Error(t, v.ValidateResponse(req, http.StatusOK, header,
		[]byte(`{"recipe":{"id":1}}`)))

	post := httptest.NewRequest(http.MethodPost, "http://localhost:8080/recipes", strings.NewReader(`{"description":"x"}`))
	post.Header.Set("Content-Type", "application/json")
	assert.Error(t, v.ValidateRequest(post), "name is required")

	unknown := httptest.NewRequest(http.MethodGet, "http://localhost:8080/users", nil)
	assert.Error(t, v.ValidateResponse(unknown, http.StatusOK, header, nil))
}
