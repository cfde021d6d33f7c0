package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/fdakit/internal/config"
	"github.com/JonMunkholm/fdakit/internal/registry"
	"github.com/JonMunkholm/fdakit/internal/toolkit"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *toolkit.Toolkit) {
	t.Helper()
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.Rate.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	kit := toolkit.New()
	return NewServer(kit, cfg), kit
}

func do(s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	return er
}

func TestHealth(t *testing.T) {
	s, kit := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, kit.Registry.Len(), body["functions"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListFunctions(t *testing.T) {
	s, kit := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/functions?category="+toolkit.CategoryFinance, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rows []registry.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, toolkit.CategoryFinance, r.Category)
	}
	assert.Len(t, kit.Audit.ByName("info"), 1)
}

func TestListFunctions_YAML(t *testing.T) {
	s, kit := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/functions?format=yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var rows []registry.Row
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, kit.Registry.Len())
}

func TestListFunctions_UnknownFormat(t *testing.T) {
	s, kit := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/functions?format=xml", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQ002", decodeError(t, rec).Code)
	assert.Zero(t, kit.Audit.Len(), "rejected before listing")
}

func TestListCategories(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/api/categories", "", nil)

	var cats []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	assert.Contains(t, cats, toolkit.CategoryPipelines)
	assert.IsIncreasing(t, cats)
}

const messy = "Invoice ID,Amount\n1,N/A\n1,N/A\n2,5\n"

func TestClean(t *testing.T) {
	s, kit := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/clean", messy, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "invoice_id,amount\n1,0\n2,5\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.NotEmpty(t, rec.Header().Get(RunIDHeader))

	assert.Len(t, kit.Audit.ByName("quick_clean"), 1)
	assert.Len(t, kit.Audit.ByName("remove_duplicates"), 1)

	rec = do(s, http.MethodGet, "/api/audit-log?format=yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quick_clean")
}

func TestClean_Finance(t *testing.T) {
	s, kit := newTestServer(t, nil)

	body := "Invoice ID,Amount,Posted\nA1,\"$1,200.50\",2024-01-31\nA2,(30),2024-02-01\n"
	rec := do(s, http.MethodPost, "/api/clean?pipeline=quick_clean_finance&primary_key=invoice_id&currency_col=amount&date_col=posted", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "invoice_id,amount,posted", lines[0])
	assert.Len(t, kit.Audit.ByName("quick_clean_finance"), 1)
}

func TestClean_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"unknown pipeline", "/api/clean?pipeline=deep_clean", messy, http.StatusBadRequest, "REQ001"},
		{"bad bool", "/api/clean?day_first=maybe", messy, http.StatusBadRequest, "REQ003"},
		{"empty body", "/api/clean", "", http.StatusBadRequest, "FILE005"},
		{"unknown column", "/api/mask?col=ssn", messy, http.StatusBadRequest, "VAL005"},
		{"mask without col", "/api/mask", messy, http.StatusBadRequest, "REQ003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, tt.target, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestClean_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Clean.MaxInputBytes = 16 })

	rec := do(s, http.MethodPost, "/api/clean", messy+messy, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestCheck(t *testing.T) {
	s, kit := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/check", messy, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 3, summary["rows"])
	assert.EqualValues(t, 1, summary["duplicated_rows"])
	assert.Len(t, kit.Audit.ByName("profile_report"), 1)
}

func TestMaskAndAnonymize(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/mask?col=Amount&mask=XX", messy, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Invoice ID,Amount\n1,XX\n1,XX\n2,XX\n", rec.Body.String())

	h := http.Header{}
	h.Set(SaltHeader, "pepper")
	first := do(s, http.MethodPost, "/api/anonymize?col=Invoice+ID", messy, h)
	second := do(s, http.MethodPost, "/api/anonymize?col=Invoice+ID", messy, h)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(), "same salt, same pseudonyms")
	assert.NotContains(t, first.Body.String(), "\n1,")
}

func TestAPIKey(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	rec := do(s, http.MethodPost, "/api/clean", messy, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/clean", messy, http.Header{"X-Api-Key": {"wrong"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(s, http.MethodPost, "/api/clean", messy, http.Header{"X-Api-Key": {"secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/functions", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "discovery stays open")
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})
	defer s.limiter.Close()

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "", nil).Code)
	}
	rec := do(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}
