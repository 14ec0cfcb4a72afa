package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/duration"
	"github.com/Conceptual-Machines/magda-composer/internal/export"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

const (
	midiContentType = "audio/midi"
	maxIterationCap = 10
)

// CompositionHandler serves the composition endpoints
type CompositionHandler struct {
	composer *composer.Composer
	store    store.Store
	recorder *metrics.Recorder
}

// NewCompositionHandler creates a CompositionHandler. recorder may be nil.
func NewCompositionHandler(c *composer.Composer, s store.Store, recorder *metrics.Recorder) *CompositionHandler {
	return &CompositionHandler{
		composer: c,
		store:    s,
		recorder: recorder,
	}
}

// CreateCompositionRequest is a MusicIntent plus per-request engine overrides
type CreateCompositionRequest struct {
	models.MusicIntent
	MaxIterations *int  `json:"max_iterations,omitempty"`
	Parallel      *bool `json:"parallel,omitempty"`
}

// ExtendRequest carries either a structured delta or a short instruction
// such as "add strings, make the drums louder"
type ExtendRequest struct {
	Delta       *composer.Delta `json:"delta,omitempty"`
	Instruction string          `json:"instruction,omitempty"`
}

// CompositionResponse is returned by create, get and extend
type CompositionResponse struct {
	Composition *models.CompositionState `json:"composition"`
	Report      *models.QualityReport    `json:"report"`
}

// Create composes a new piece and stores it
func (h *CompositionHandler) Create(c *gin.Context) {
	var req CreateCompositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Genre == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "genre is required"})
		return
	}

	var opts []composer.Option
	if req.MaxIterations != nil {
		if *req.MaxIterations < 0 || *req.MaxIterations > maxIterationCap {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("max_iterations must be between 0 and %d", maxIterationCap),
			})
			return
		}
		opts = append(opts, composer.WithMaxIterations(*req.MaxIterations))
	}
	if req.Parallel != nil {
		opts = append(opts, composer.WithParallel(*req.Parallel))
	}

	log.Printf("🎼 Composition request: genre=%s moods=%v tempo=%d", req.Genre, req.Moods, req.Tempo)

	startTime := time.Now()
	state, report, err := h.composer.With(opts...).Compose(c.Request.Context(), req.MusicIntent)
	elapsed := time.Since(startTime)
	if err != nil {
		h.recorder.RecordComposition(c.Request.Context(), metrics.CompositionSample{
			Genre:    req.NormalizedGenre(),
			Duration: elapsed,
		})
		respondError(c, "Composition failed", err)
		return
	}

	if err := h.store.Save(c.Request.Context(), state); err != nil {
		respondError(c, "Failed to store composition", err)
		return
	}
	h.record(c, state, report, elapsed)

	c.JSON(http.StatusCreated, CompositionResponse{Composition: state, Report: report})
}

// Get returns a stored composition
func (h *CompositionHandler) Get(c *gin.Context) {
	state, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load composition", err)
		return
	}
	c.JSON(http.StatusOK, CompositionResponse{Composition: state, Report: state.Report})
}

// Extend applies a delta to a stored composition and stores the result
// under the same id
func (h *CompositionHandler) Extend(c *gin.Context) {
	var req ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var delta composer.Delta
	switch {
	case req.Delta != nil:
		delta = *req.Delta
	case req.Instruction != "":
		parsed, err := composer.ParseDelta(req.Instruction)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		delta = parsed
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta or instruction is required"})
		return
	}

	prev, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load composition", err)
		return
	}

	log.Printf("🔁 Extending composition %s (turn %d)", prev.ID, prev.Turns+1)

	startTime := time.Now()
	state, report, err := h.composer.Extend(c.Request.Context(), prev, delta)
	elapsed := time.Since(startTime)
	if err != nil {
		respondError(c, "Extension failed", err)
		return
	}

	if err := h.store.Save(c.Request.Context(), state); err != nil {
		respondError(c, "Failed to store composition", err)
		return
	}
	h.record(c, state, report, elapsed)

	c.JSON(http.StatusOK, CompositionResponse{Composition: state, Report: report})
}

// MIDI downloads a stored composition as a Standard MIDI File
func (h *CompositionHandler) MIDI(c *gin.Context) {
	state, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load composition", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSMF(&buf, state); err != nil {
		respondError(c, "MIDI export failed", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mid"`, state.ID))
	c.Data(http.StatusOK, midiContentType, buf.Bytes())
}

// Delete removes a stored composition
func (h *CompositionHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "Failed to delete composition", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CompositionHandler) record(c *gin.Context, state *models.CompositionState, report *models.QualityReport, elapsed time.Duration) {
	ctx := c.Request.Context()
	h.recorder.RecordComposition(ctx, metrics.CompositionSample{
		Genre:           state.Intent.NormalizedGenre(),
		Tracks:          len(state.Tracks),
		Bars:            state.TotalBars,
		Score:           report.Overall,
		Iterations:      state.Iteration,
		Duration:        elapsed,
		PlanDegraded:    state.PlanDegraded,
		BudgetExhausted: report.BudgetExhausted,
		Success:         true,
	})

	fields := logger.WithContext(c)
	fields["genre"] = state.Intent.NormalizedGenre()
	fields["tracks"] = len(state.Tracks)
	fields["turns"] = state.Turns
	fields["plan_source"] = state.PlanSource
	logger.LogComposition(ctx, state.ID, elapsed, report.Overall, state.Iteration, fields)
}

// respondError maps engine and store errors to HTTP status codes. Only server
// errors are captured by Sentry.
func respondError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	fields := logger.WithContext(c)
	fields["status_code"] = status

	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, fields)
	} else {
		logger.Warn(msg+": "+err.Error(), fields)
	}

	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, duration.ErrInvalidDuration), errors.Is(err, composer.ErrInvalidDelta):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNoTracks):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
