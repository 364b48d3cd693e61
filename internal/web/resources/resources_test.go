package resources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_ServesStylesheet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, StaticPath("app.css"), nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".result-grid")
}

func TestHandler_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, StaticPath("nope.js"), nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
