package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhulha/WebTracker/internal/projects/service"
	"github.com/rhulha/WebTracker/internal/projects/store"
)

const mib = 1024 * 1024

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	router := gin.New()
	New(service.NewProjectService(st)).Register(router.Group("/api"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var rd *bytes.Reader
	if body == nil {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	fields := map[string]json.RawMessage{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fields))
	}
	return rr, fields
}

func uploadFile(t *testing.T, router *gin.Engine, projectID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/project/"+projectID+"/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func createProject(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rr, fields := doJSON(t, router, http.MethodPost, "/api/create-project", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var id string
	require.NoError(t, json.Unmarshal(fields["project_id"], &id))
	require.Len(t, id, 12)

	var redirect string
	require.NoError(t, json.Unmarshal(fields["redirect_url"], &redirect))
	require.Equal(t, "/project/"+id, redirect)
	return id
}

func TestCreateAndInfo(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	rr, _ := doJSON(t, router, http.MethodGet, "/api/project/"+id+"/info", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var info struct {
		ID        string            `json:"id"`
		BPM       int               `json:"bpm"`
		Samples   []json.RawMessage `json:"samples"`
		Pattern   []json.RawMessage `json:"pattern"`
		TotalSize int64             `json:"total_size"`
		MaxSize   int64             `json:"max_size"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, id, info.ID)
	assert.Equal(t, 120, info.BPM)
	assert.Empty(t, info.Samples)
	assert.Empty(t, info.Pattern)
	assert.Equal(t, int64(0), info.TotalSize)
	assert.Equal(t, int64(10*mib), info.MaxSize)
}

func TestUploadQuotaScenario(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	rr := uploadFile(t, router, id, "kick.wav", bytes.Repeat([]byte{1}, 4*mib))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "kick.wav")

	rr, _ = doJSON(t, router, http.MethodGet, "/api/project/"+id+"/info", nil)
	var info struct {
		TotalSize int64 `json:"total_size"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, int64(4*mib), info.TotalSize)

	// 4 + 7 > 10 MiB
	rr = uploadFile(t, router, id, "pad.wav", bytes.Repeat([]byte{2}, 7*mib))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "size limit")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	rr := uploadFile(t, router, id, "evil.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "not allowed")

	// no history entry was produced for the rejected upload
	rr, _ = doJSON(t, router, http.MethodGet, "/api/project/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var hist struct {
		Changes []struct {
			Action string `json:"action"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hist))
	require.Len(t, hist.Changes, 1)
	assert.Equal(t, "project_created", hist.Changes[0].Action)
}

func TestUploadWithoutFile(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/project/"+id+"/upload", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No file provided")
}

func TestSaveAndLoadPattern(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	body := []byte(`{"pattern": [[0,1,0,1]], "bpm": 140}`)
	rr, _ := doJSON(t, router, http.MethodPost, "/api/project/"+id+"/save-pattern", body)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = doJSON(t, router, http.MethodGet, "/api/project/"+id+"/load-pattern", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var state struct {
		Pattern json.RawMessage   `json:"pattern"`
		BPM     int               `json:"bpm"`
		Samples []json.RawMessage `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.JSONEq(t, `[[0,1,0,1]]`, string(state.Pattern))
	assert.Equal(t, 140, state.BPM)
	assert.Empty(t, state.Samples)
}

func TestSavePatternDefaultsBPM(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	rr, _ := doJSON(t, router, http.MethodPost, "/api/project/"+id+"/save-pattern", []byte(`{"pattern": []}`))
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = doJSON(t, router, http.MethodGet, "/api/project/"+id+"/load-pattern", nil)
	var state struct {
		BPM int `json:"bpm"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, 120, state.BPM)
}

func TestSavePatternInvalid(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	for _, body := range []string{
		`{}`,
		`{"pattern": "not an array"}`,
		`{"pattern": [[0,1]], "bpm": 0}`,
		`{"pattern": [[0,1]], "bpm": -5}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/project/"+id+"/save-pattern", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equalf(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}
}

func TestGetSample(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	content := []byte("RIFFfakewavdata")
	rr := uploadFile(t, router, id, "kick.wav", content)
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/project/"+id+"/samples/kick.wav", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, content, rr.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/api/project/"+id+"/samples/missing.wav", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownProjectReturnsNotFound(t *testing.T) {
	router := setupRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/project/nosuchproj12/info"},
		{http.MethodPost, "/api/project/nosuchproj12/upload"},
		{http.MethodGet, "/api/project/nosuchproj12/samples/kick.wav"},
		{http.MethodPost, "/api/project/nosuchproj12/save-pattern"},
		{http.MethodGet, "/api/project/nosuchproj12/load-pattern"},
		{http.MethodGet, "/api/project/nosuchproj12/history"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equalf(t, http.StatusNotFound, rr.Code, "%s %s", p.method, p.path)
		assert.Contains(t, rr.Body.String(), "Project not found")
	}
}

func TestUploadThenLoadPatternListsSample(t *testing.T) {
	router := setupRouter(t)
	id := createProject(t, router)

	rr := uploadFile(t, router, id, "snare.flac", []byte("flacdata"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = doJSON(t, router, http.MethodGet, "/api/project/"+id+"/load-pattern", nil)
	var state struct {
		Samples []struct {
			Filename string `json:"filename"`
			Size     int64  `json:"size"`
		} `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	require.Len(t, state.Samples, 1)
	assert.Equal(t, "snare.flac", state.Samples[0].Filename)
	assert.Equal(t, int64(len("flacdata")), state.Samples[0].Size)
}
