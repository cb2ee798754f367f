package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/callup-allocator-go/pkg/config"
	"github.com/arnavshah/callup-allocator-go/pkg/database"
	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

type testServer struct {
	router *gin.Engine
	h      *Handler
	key    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)
	cfg.DataPath = filepath.Join(t.TempDir(), "api.db")
	cfg.JWTSecret = "test-jwt"
	cfg.APIMasterSecret = "test-master"
	cfg.AdminUsername = "admin"
	cfg.AdminPassword = "pw"

	db, err := database.InitDB(cfg)
	require.NoError(t, err)

	h := New(db, cfg)
	h.Auth.BcryptCost = 4

	return &testServer{
		router: NewRouter(h, "test"),
		h:      h,
		key:    h.Auth.GenerateHMACKey("tester"),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(t *testing.T, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, path, token, body, "application/json")
}

func (s *testServer) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("roster_file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return s.do(t, http.MethodPost, path, s.key, body.Bytes(), mw.FormDataContentType())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func tenPlayers() models.AllocateInput {
	in := models.AllocateInput{Matches: []models.Match{{Label: "Match 1 (Home)", Venue: models.Home}}}
	for i := 1; i <= 10; i++ {
		in.Players = append(in.Players, models.Player{
			ID:                    i,
			Name:                  fmt.Sprintf("P%d", i),
			IsGoalkeeperVolunteer: i >= 9,
			Available:             []bool{true},
		})
	}
	return in
}

func rosterCSV() string {
	lines := []string{"Spelare,Barnets namn,Målvakt,Reserv,Match 1 (Hemma),Match 2 (Borta)"}
	for i := 1; i <= 10; i++ {
		gk := "nej"
		if i >= 9 {
			gk = "ja"
		}
		lines = append(lines, fmt.Sprintf("%d,P%d,%s,nej,ja,ja", i, i, gk))
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), Version)
}

func TestAPIKeyMiddleware(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(t, "/api/allocate", "", tenPlayers())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.postJSON(t, "/api/allocate", "tester.bogus", tenPlayers())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAllocateJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(t, "/api/allocate", s.key, tenPlayers())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AllocateResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, []string{"P9", "P10"}, resp.Matches[0].Goalkeepers)
	assert.Equal(t, []string{"P1", "P2", "P3", "P4"}, resp.Matches[0].Line1)
	assert.Empty(t, resp.Violations)
	assert.Equal(t, models.DefaultAllocationConfig(), resp.Config)

	var runs []database.AllocationRun
	require.NoError(t, s.h.DB.Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.Equal(t, resp.RunID, runs[0].RunID)
	assert.Equal(t, "json", runs[0].Source)
	assert.Equal(t, 10, runs[0].Players)

	w = s.do(t, http.MethodGet, "/api/usage", s.key, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var usage struct {
		KeyName string `json:"key_name"`
		Totals  struct {
			Requests int `json:"requests"`
			Matches  int `json:"matches"`
			Players  int `json:"players"`
		} `json:"totals"`
	}
	decode(t, w, &usage)
	assert.Equal(t, "tester", usage.KeyName)
	assert.Equal(t, 1, usage.Totals.Requests)
	assert.Equal(t, 1, usage.Totals.Matches)
	assert.Equal(t, 10, usage.Totals.Players)

	w = s.do(t, http.MethodGet, "/api/runs", s.key, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.RunID)
}

func TestAllocateJSON_CustomConfig(t *testing.T) {
	s := newTestServer(t)

	in := tenPlayers()
	in.Config = &models.AllocationConfig{MaxHomeBase: 0, MaxAwayBase: 2, GKCap: 1, PreferGKVolunteers: true}
	w := s.postJSON(t, "/api/allocate", s.key, in)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AllocateResponse
	decode(t, w, &resp)
	// nobody has home capacity, so no field lines
	assert.Empty(t, resp.Matches[0].Line1)
	assert.Len(t, resp.Matches[0].Goalkeepers, 2)
}

func TestAllocateJSON_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	in := tenPlayers()
	in.Players[1].ID = 1
	w := s.postJSON(t, "/api/allocate", s.key, in)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "players", body["field"])
	assert.Equal(t, "duplicate player id 1", body["error"])

	w = s.do(t, http.MethodPost, "/api/allocate", s.key, []byte("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAllocateUpload_JSON(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(t, "/api/allocate/upload", "roster.csv", rosterCSV())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AllocateResponse
	decode(t, w, &resp)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "Match 2 (Borta)", resp.Matches[1].Match.Label)
	assert.Equal(t, models.Away, resp.Matches[1].Match.Venue)
}

func TestAllocateUpload_XLSX(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(t, "/api/allocate/upload?format=xlsx&gk_cap=2", "roster.csv", rosterCSV())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Formulärsvar 1 (exakt)", "Match 1 (Hemma)", "Match 2 (Borta)"}, f.GetSheetList())
	rows, err := f.GetRows("Match 1 (Hemma)")
	require.NoError(t, err)
	assert.Equal(t, "GOALKEEPERS (max 2)", rows[0][0])
}

func TestAllocateUpload_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(t, "/api/allocate/upload?format=pdf", "roster.csv", rosterCSV())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "/api/allocate/upload", "roster.txt", rosterCSV())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")

	w = s.upload(t, "/api/allocate/upload?gk_cap=-1", "roster.csv", rosterCSV())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "gk_cap")

	w = s.do(t, http.MethodPost, "/api/allocate/upload", s.key, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "roster_file is required")
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(t, "/api/validate", s.key, tenPlayers())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	in := tenPlayers()
	in.Matches = nil
	in.Players[0].Available = nil
	w = s.postJSON(t, "/api/validate", s.key, in)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "matches", body["field"])

	w = s.upload(t, "/api/validate", "roster.csv", rosterCSV())
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Valid bool `json:"valid"`
		Stats struct {
			Players              int `json:"player_count"`
			Matches              int `json:"match_count"`
			GoalkeeperVolunteers int `json:"goalkeeper_volunteers"`
		} `json:"stats"`
	}
	decode(t, w, &stats)
	assert.True(t, stats.Valid)
	assert.Equal(t, 10, stats.Stats.Players)
	assert.Equal(t, 2, stats.Stats.Matches)
	assert.Equal(t, 2, stats.Stats.GoalkeeperVolunteers)

	w = s.upload(t, "/api/validate", "roster.csv", "Name,GK,Reserve\nAda,ja,nej\n")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)

	// validation does not count as usage
	var count int64
	s.h.DB.Model(&database.AllocationRun{}).Count(&count)
	assert.Zero(t, count)
}

func adminToken(t *testing.T, s *testServer) string {
	t.Helper()
	require.NoError(t, s.h.Auth.EnsureAdminExists(s.h.DB, "admin", "pw"))

	w := s.postJSON(t, "/admin/login", "", map[string]string{"username": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.postJSON(t, "/admin/login", "", map[string]string{"username": "admin", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	decode(t, w, &body)
	return body["access_token"]
}

func TestAdminKeysAndRuns(t *testing.T) {
	s := newTestServer(t)
	token := adminToken(t, s)

	w := s.do(t, http.MethodGet, "/admin/keys", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.postJSON(t, "/admin/keys", token, map[string]any{"name": "u11", "rate_limit": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	decode(t, w, &created)

	w = s.do(t, http.MethodGet, "/admin/keys", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key_preview":"u11...`)
	assert.NotContains(t, w.Body.String(), created.Key)

	// rate limit of one allocation per day
	w = s.postJSON(t, "/api/allocate", created.Key, tenPlayers())
	require.Equal(t, http.StatusOK, w.Code)
	w = s.postJSON(t, "/api/allocate", created.Key, tenPlayers())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/admin/keys/%d", created.ID), token, []byte(`{"rate_limit":5}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.postJSON(t, "/api/allocate", created.Key, tenPlayers())
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/admin/usage/%d", created.ID), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"request_count":2`)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/admin/runs?key_id=%d", created.ID), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs struct {
		Runs []database.AllocationRun `json:"runs"`
	}
	decode(t, w, &runs)
	assert.Len(t, runs.Runs, 2)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", created.ID), token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// a revoked key stays revoked and is not registered again
	for i := 0; i < 2; i++ {
		w = s.postJSON(t, "/api/allocate", created.Key, tenPlayers())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w = s.do(t, http.MethodGet, "/admin/keys", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"name":"u11"`)
	var stored database.APIKey
	require.NoError(t, s.h.DB.Unscoped().First(&stored, created.ID).Error)
	assert.True(t, stored.DeletedAt.Valid)
	assert.Equal(t, 5, stored.RateLimit)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", created.ID), token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/admin/keys/abc", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminInterface(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/admin", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Call-up Allocator Admin")

	// serving the page never touches the admin table
	var count int64
	s.h.DB.Model(&database.MasterUser{}).Count(&count)
	assert.Zero(t, count)
}
