package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/haatos/simple-qa/internal/service"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/labstack/echo/v4"
)

const runsPageSize = 20

func SetupRunRoutes(g *echo.Group, runService service.RunServicer) {
	h := NewRunHandler(runService)

	g.POST("/test-sets/:test_set_id/runs", h.PostTestSetRun)
	g.POST("/releases/:release_id/runs", h.PostReleaseRun)
	g.GET("/runs", h.GetRuns)
	g.GET("/runs/:run_id", h.GetRun)
	g.GET("/runs/:run_id/steps", h.GetRunSteps)
	g.GET("/runs/:run_id/events", h.GetRunEvents)
	g.GET("/runs/:run_id/status", h.GetRunStatus)
	g.POST("/runs/:run_id/cancel", h.PostCancelRun)
	g.GET("/batches/:batch_id", h.GetBatch)
	g.GET("/batches/:batch_id/runs", h.GetBatchRuns)
	g.GET("/reports/archive", h.GetReportsArchive)
}

func NewRunHandler(runService service.RunServicer) *RunHandler {
	return &RunHandler{runService}
}

type RunHandler struct {
	runService service.RunServicer
}

func (h *RunHandler) PostTestSetRun(c echo.Context) error {
	p := new(SubmitRunParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run parameters")
	}
	if p.Environment == "" {
		return newError(c, nil, http.StatusBadRequest, "environment is required")
	}

	run, err := h.runService.SubmitTestSetRun(
		c.Request().Context(), p.TestSetID, p.ReleaseID, p.Environment,
	)
	if err != nil {
		var queueErr *service.ErrRunQueueFull
		var envErr service.ErrUnknownEnvironment
		switch {
		case errors.As(err, &queueErr):
			return newError(c, err, http.StatusTooManyRequests, queueErr.Error())
		case errors.As(err, &envErr):
			return newError(c, err, http.StatusBadRequest, envErr.Error())
		default:
			return newError(c, err, http.StatusInternalServerError, "unable to submit run")
		}
	}
	return c.JSON(http.StatusCreated, run)
}

func (h *RunHandler) PostReleaseRun(c echo.Context) error {
	p := new(SubmitBatchParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid batch parameters")
	}
	if p.Environment == "" {
		return newError(c, nil, http.StatusBadRequest, "environment is required")
	}

	batchID, runs, err := h.runService.SubmitReleaseRun(
		c.Request().Context(), p.ReleaseID, p.Environment, p.TestSetIDs,
	)
	if err != nil {
		var envErr service.ErrUnknownEnvironment
		if errors.As(err, &envErr) {
			return newError(c, err, http.StatusBadRequest, envErr.Error())
		}
		return newError(c, err, http.StatusInternalServerError, "unable to submit batch")
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"batch_id": batchID,
		"runs":     runs,
	})
}

func (h *RunHandler) GetRuns(c echo.Context) error {
	p := new(ListRunsParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid query parameters")
	}
	if p.Page < 1 {
		p.Page = 1
	}

	runs, err := h.runService.ListReleaseRunsPaginated(
		c.Request().Context(), p.ReleaseID, runsPageSize, (p.Page-1)*runsPageSize,
	)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list runs")
	}
	total, err := h.runService.CountReleaseRuns(c.Request().Context(), p.ReleaseID)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to count runs")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"runs":  runs,
		"page":  p.Page,
		"total": total,
	})
}

func (h *RunHandler) GetRun(c echo.Context) error {
	p := new(RunParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	run, err := h.runService.GetRunByID(c.Request().Context(), p.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "run not found")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to read run")
	}
	return c.JSON(http.StatusOK, run)
}

func (h *RunHandler) GetRunSteps(c echo.Context) error {
	p := new(RunParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	steps, err := h.runService.ListRunSteps(c.Request().Context(), p.RunID)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list step results")
	}
	return c.JSON(http.StatusOK, steps)
}

// GetRunEvents streams worker progress events for a run over SSE.
func (h *RunHandler) GetRunEvents(c echo.Context) error {
	p := new(RunParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")

	uid := uuid.NewString()
	ch := h.runService.ProgressClients().AddClient(p.RunID, uid)
	defer h.runService.ProgressClients().RemoveClient(p.RunID, uid)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case progress, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(progress)
			if err != nil {
				log.Println("err marshaling progress event:", err)
				continue
			}
			event := &Event{Data: data}
			if err := event.MarshalTo(w); err != nil {
				log.Println("err writing progress event:", err)
				return nil
			}
			w.Flush()
		}
	}
}

// GetRunStatus streams run status transitions over SSE and closes the stream
// once the run reaches a terminal status.
func (h *RunHandler) GetRunStatus(c echo.Context) error {
	p := new(RunParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")

	uid := uuid.NewString()
	ch := h.runService.StatusClients().AddClient(p.RunID, uid)
	defer h.runService.StatusClients().RemoveClient(p.RunID, uid)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case run, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(run)
			if err != nil {
				log.Println("err marshaling run status:", err)
				continue
			}
			event := &Event{Data: data}
			if err := event.MarshalTo(w); err != nil {
				log.Println("err writing run status:", err)
				return nil
			}
			w.Flush()
			if run.Status.Terminal() {
				return nil
			}
		}
	}
}

func (h *RunHandler) PostCancelRun(c echo.Context) error {
	p := new(RunParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	if !h.runService.CancelRun(p.RunID) {
		return newError(c, nil, http.StatusNotFound, "run is not in flight")
	}
	return c.JSON(http.StatusOK, map[string]any{"cancelled": true})
}

// GetBatch returns the live snapshot for an in-flight batch, falling back to
// the persisted runs once the batch has been finalized.
func (h *RunHandler) GetBatch(c echo.Context) error {
	p := new(BatchParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid batch id")
	}

	if snapshot, ok := h.runService.BatchSnapshot(p.BatchID); ok {
		return c.JSON(http.StatusOK, snapshot)
	}

	runs, err := h.runService.ListBatchRuns(c.Request().Context(), p.BatchID)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to read batch")
	}
	if len(runs) == 0 {
		return newError(c, nil, http.StatusNotFound, "batch not found")
	}
	return c.JSON(http.StatusOK, batchSummaryFromRuns(p.BatchID, runs))
}

func batchSummaryFromRuns(batchID string, runs []store.Run) service.BatchSnapshot {
	snapshot := service.BatchSnapshot{
		BatchID:    batchID,
		TotalCount: len(runs),
		Running:    []string{},
	}
	for _, run := range runs {
		switch run.Status {
		case store.StatusPassed:
			snapshot.CompletedCount++
			snapshot.PassedCount++
		case store.StatusFailed:
			snapshot.CompletedCount++
			snapshot.FailedCount++
		case store.StatusRunning:
			snapshot.Running = append(snapshot.Running, run.RunID)
		default:
			snapshot.PendingCount++
		}
	}
	return snapshot
}

func (h *RunHandler) GetBatchRuns(c echo.Context) error {
	p := new(BatchParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid batch id")
	}

	runs, err := h.runService.ListBatchRuns(c.Request().Context(), p.BatchID)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list batch runs")
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *RunHandler) GetReportsArchive(c echo.Context) error {
	archivePath, err := h.runService.ArchiveReports()
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to archive reports")
	}
	return c.Attachment(archivePath, "reports.zip")
}
