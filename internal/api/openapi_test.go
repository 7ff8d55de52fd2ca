package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

// Every response the handlers produce must match the published document.
func TestResponsesMatchOpenAPI(t *testing.T) {
	validator := testhelpers.NewOpenAPIValidator(t)

	router, _ := setupRecipeTestRouter(t)

	exchange := func(method, path, body string, want int) *httptest.ResponseRecorder {
		t.Helper()
		url := "http://localhost:8080" + path

		req := httptest.NewRequest(method, url, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, want, w.Code, "%s %s: %s", method, path, w.Body.String())

		check := httptest.NewRequest(method, url, nil)
		assert.NoError(t, validator.ValidateResponse(check, w.Code, w.Header(), w.Body.Bytes()), "%s %s", method, path)
		return w
	}

	created := decodeRecipe(t, exchange(http.MethodPost, "/recipes",
		`{"name":"Breakfast","description":"Eggs + Toast","ingredients":[{"name":"Eggs"},{"name":"Toast"}]}`, http.StatusCreated))
	path := "/recipes/" + itoa(created.ID)

	exchange(http.MethodGet, "/recipes", "", http.StatusOK)
	exchange(http.MethodGet, "/recipes?name=bre", "", http.StatusOK)
	exchange(http.MethodGet, path, "", http.StatusOK)
	exchange(http.MethodPut, path, `{"name":"Brunch","description":"Late"}`, http.StatusOK)
	exchange(http.MethodPatch, path, `{"ingredients":[]}`, http.StatusOK)
	exchange(http.MethodPost, "/recipes", `{"name":""}`, http.StatusBadRequest)
	exchange(http.MethodPut, path, `{"name":"Brunch"}`, http.StatusBadRequest)
	exchange(http.MethodDelete, path, "", http.StatusNoContent)
	exchange(http.MethodGet, path, "", http.StatusNotFound)
	exchange(http.MethodPatch, path, `{"name":"Gone"}`, http.StatusNotFound)
	exchange(http.MethodDelete, path, "", http.StatusNotFound)
}
