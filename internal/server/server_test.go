package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsite-generator/internal/site"
	"docsite-generator/test/mocks"
)

func newTestServer(t *testing.T, outputDir string) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &server{outputDir: outputDir, logger: &mocks.MockLogger{}}
	s.engine = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func siteFixture(t *testing.T) string {
	t.Helper()
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "docs", "overview.md"),
		[]byte("# Overview\n\nGenerated overview.\n"), 0644))
	require.NoError(t, site.SaveManifest(out, &site.SiteManifest{
		RunID:       "run-1",
		GeneratedAt: time.Now().UTC(),
		Mode:        site.ModeFresh,
		Title:       "Gizmo",
		Sections: []site.SectionResult{
			{SectionID: "overview", Status: site.StatusGenerated, TargetPath: "docs/overview.md"},
		},
		Navigation: []string{"docs/overview.md"},
	}))
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestManifestEndpoint(t *testing.T) {
	s := newTestServer(t, siteFixture(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/manifest", nil)
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var manifest site.SiteManifest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manifest))
	assert.Equal(t, "run-1", manifest.RunID)
	require.Len(t, manifest.Sections, 1)
	assert.Equal(t, site.StatusGenerated, manifest.Sections[0].Status)
}

func TestManifestMissing(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/manifest", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServesSitePages(t *testing.T) {
	s := newTestServer(t, siteFixture(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/docs/overview.md", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Generated overview.")
}

func TestUnknownPathIs404(t *testing.T) {
	s := newTestServer(t, siteFixture(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/docs/missing.md", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/manifest", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
