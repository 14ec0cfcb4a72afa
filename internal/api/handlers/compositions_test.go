package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/duration"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

func setupTestRouter() (*gin.Engine, *store.MemoryStore) {
	gin.SetMode(gin.TestMode)
	memory := store.NewMemoryStore(10)
	handler := NewCompositionHandler(composer.New(composer.WithSeed(7)), memory, nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/compositions", handler.Create)
	v1.GET("/compositions/:id", handler.Get)
	v1.POST("/compositions/:id/extend", handler.Extend)
	v1.GET("/compositions/:id/midi", handler.MIDI)
	v1.DELETE("/compositions/:id", handler.Delete)
	return router, memory
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createComposition(t *testing.T, router *gin.Engine) CompositionResponse {
	t.Helper()
	iterations := 1
	w := doJSON(t, router, http.MethodPost, "/api/v1/compositions", CreateCompositionRequest{
		MusicIntent: models.MusicIntent{
			Genre:      "jazz",
			Moods:      []string{"mellow"},
			Tempo:      96,
			TrackCount: 4,
			Duration:   models.DurationRequest{Bars: 16},
		},
		MaxIterations: &iterations,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp CompositionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Composition)
	require.NotNil(t, resp.Report)
	return resp
}

func TestCreateComposition(t *testing.T) {
	router, memory := setupTestRouter()
	resp := createComposition(t, router)

	assert.NotEmpty(t, resp.Composition.ID)
	assert.Len(t, resp.Composition.Tracks, 4)
	assert.Equal(t, 16, resp.Composition.TotalBars)
	assert.Equal(t, models.PhaseDone, resp.Composition.Phase)
	assert.LessOrEqual(t, resp.Composition.Iteration, 1)
	assert.Equal(t, 1, memory.Len())
}

func TestCreateComposition_BadRequests(t *testing.T) {
	tooMany := maxIterationCap + 1
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing genre", CreateCompositionRequest{MusicIntent: models.MusicIntent{Tempo: 100}}},
		{"tempo too slow", CreateCompositionRequest{MusicIntent: models.MusicIntent{Genre: "rock", Tempo: 5}}},
		{"negative bars", CreateCompositionRequest{MusicIntent: models.MusicIntent{
			Genre: "rock", Tempo: 120, Duration: models.DurationRequest{Bars: -4},
		}}},
		{"max iterations", CreateCompositionRequest{MusicIntent: models.MusicIntent{Genre: "rock"}, MaxIterations: &tooMany}},
		{"not json", "{"},
	}

	router, memory := setupTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/compositions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Zero(t, memory.Len())
}

func TestGetComposition(t *testing.T) {
	router, _ := setupTestRouter()
	created := createComposition(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/compositions/"+created.Composition.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompositionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.Composition.ID, resp.Composition.ID)
	assert.InDelta(t, created.Report.Overall, resp.Report.Overall, 1e-9)

	w = doJSON(t, router, http.MethodGet, "/api/v1/compositions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtendComposition(t *testing.T) {
	tests := []struct {
		name       string
		body       ExtendRequest
		wantTracks int
	}{
		{
			name:       "instruction",
			body:       ExtendRequest{Instruction: "add strings"},
			wantTracks: 5,
		},
		{
			name:       "structured delta",
			body:       ExtendRequest{Delta: &composer.Delta{Remove: []models.Role{models.RoleDrums}}},
			wantTracks: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter()
			created := createComposition(t, router)

			w := doJSON(t, router, http.MethodPost, "/api/v1/compositions/"+created.Composition.ID+"/extend", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp CompositionResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, created.Composition.ID, resp.Composition.ID)
			assert.Len(t, resp.Composition.Tracks, tt.wantTracks)
			assert.Equal(t, 1, resp.Composition.Turns)
		})
	}
}

func TestExtendComposition_Errors(t *testing.T) {
	router, _ := setupTestRouter()
	created := createComposition(t, router)
	path := "/api/v1/compositions/" + created.Composition.ID + "/extend"

	tests := []struct {
		name     string
		path     string
		body     ExtendRequest
		wantCode int
	}{
		{"empty body", path, ExtendRequest{}, http.StatusBadRequest},
		{"unparseable instruction", path, ExtendRequest{Instruction: "make it nicer"}, http.StatusBadRequest},
		{"remove missing role", path, ExtendRequest{Delta: &composer.Delta{Remove: []models.Role{models.RoleFX}}}, http.StatusBadRequest},
		{"unknown id", "/api/v1/compositions/missing/extend", ExtendRequest{Instruction: "add strings"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestCompositionMIDI(t *testing.T) {
	router, _ := setupTestRouter()
	created := createComposition(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/compositions/"+created.Composition.ID+"/midi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, midiContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), created.Composition.ID+".mid")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("MThd")))

	w = doJSON(t, router, http.MethodGet, "/api/v1/compositions/missing/midi", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteComposition(t *testing.T) {
	router, memory := setupTestRouter()
	created := createComposition(t, router)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/compositions/"+created.Composition.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, memory.Len())

	w = doJSON(t, router, http.MethodDelete, "/api/v1/compositions/"+created.Composition.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(duration.ErrInvalidDuration))
	assert.Equal(t, http.StatusBadRequest, statusFor(composer.ErrInvalidDelta))
	assert.Equal(t, http.StatusNotFound, statusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusRequestTimeout, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
