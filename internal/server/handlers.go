package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chenyy/work-report/internal/export"
	"github.com/chenyy/work-report/internal/mes"
	"github.com/chenyy/work-report/internal/report"
	"github.com/chenyy/work-report/internal/workorder"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler orchestrates the services in response to UI actions. It is the
// server-side counterpart of the browser's event handlers: list work
// orders, submit a report, browse records.
type Handler struct {
	workOrders *workorder.Service
	submitter  *report.Submitter
	records    *report.Records
	history    *report.HistoryRepository
	exporter   *export.Exporter
	logger     *zap.Logger

	// submitting guards the single-submission rule: only one report may be
	// in flight at a time, the analog of disabling the submit control
	submitting atomic.Bool
}

// NewHandler creates a new API handler
func NewHandler(
	workOrders *workorder.Service,
	submitter *report.Submitter,
	records *report.Records,
	history *report.HistoryRepository,
	exporter *export.Exporter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		workOrders: workOrders,
		submitter:  submitter,
		records:    records,
		history:    history,
		exporter:   exporter,
		logger:     logger,
	}
}

// Health answers the liveness probe
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "work-report",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// ListWorkOrders serves the work order picker
func (h *Handler) ListWorkOrders(c *gin.Context) {
	q := workorder.Query{
		Search:    c.Query("search"),
		ExactCode: c.Query("exactCode"),
		Page:      intQuery(c, "page"),
		PageSize:  intQuery(c, "pageSize"),
	}
	if statuses := intListQuery(c, "status"); len(statuses) > 0 {
		for _, s := range statuses {
			q.StatusList = append(q.StatusList, int(s))
		}
	}
	if raw := c.Query("pauseFlag"); raw != "" {
		flag, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pauseFlag"})
			return
		}
		q.PauseFlag = &flag
	}

	page, err := h.workOrders.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SubmitReport runs the report submission flow
func (h *Handler) SubmitReport(c *gin.Context) {
	if !h.submitting.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "a report submission is already in progress"})
		return
	}
	defer h.submitting.Store(false)

	var form report.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), form)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListReportRecords serves the submitted-records view
func (h *Handler) ListReportRecords(c *gin.Context) {
	q, ok := h.recordsQuery(c)
	if !ok {
		return
	}

	page, err := h.records.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ExportReportRecords streams the record listing as an Excel download
func (h *Handler) ExportReportRecords(c *gin.Context) {
	q, ok := h.recordsQuery(c)
	if !ok {
		return
	}

	page, err := h.records.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}

	content, err := h.exporter.RecordsToExcel(page.Records)
	if err != nil {
		h.writeError(c, err)
		return
	}

	fileName := fmt.Sprintf("report_records_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// ListHistory serves the local submission log
func (h *Handler) ListHistory(c *gin.Context) {
	limit := intQuery(c, "limit")
	entries, err := h.history.Recent(limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// recordsQuery parses the shared record filter parameters. On a parse
// failure the response is already written and ok is false.
func (h *Handler) recordsQuery(c *gin.Context) (report.RecordsQuery, bool) {
	q := report.RecordsQuery{
		TaskIDs:        intListQuery(c, "taskId"),
		WorkOrderIDs:   intListQuery(c, "workOrderId"),
		ReportTimeFrom: int64Query(c, "from"),
		ReportTimeTo:   int64Query(c, "to"),
		ProcessIDs:     intListQuery(c, "processId"),
		ExecutorIDs:    intListQuery(c, "executorId"),
		QCStatusList:   intListQuery(c, "qcStatus"),
		Page:           intQuery(c, "page"),
		Size:           intQuery(c, "size"),
	}
	if len(q.TaskIDs) == 0 && len(q.WorkOrderIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either taskId or workOrderId is required"})
		return q, false
	}
	return q, true
}

// writeError maps the error taxonomy onto HTTP statuses. Nothing is
// swallowed: every failure is logged and surfaced.
func (h *Handler) writeError(c *gin.Context, err error) {
	var validationErr *report.ValidationError
	status := http.StatusInternalServerError

	switch {
	case report.IsValidationError(err):
		status = http.StatusBadRequest
	case report.IsDependencyNotFound(err):
		status = http.StatusUnprocessableEntity
	case mes.IsAuthError(err):
		status = http.StatusBadGateway
	case mes.IsNetworkError(err):
		status = http.StatusServiceUnavailable
	case mes.IsBusinessError(err):
		status = http.StatusBadGateway
	}

	h.logger.Warn("Request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err))

	body := gin.H{"error": err.Error()}
	if errors.As(err, &validationErr) {
		body["reasons"] = validationErr.Reasons
	}
	c.JSON(status, body)
}

func intQuery(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

func int64Query(c *gin.Context, name string) int64 {
	n, _ := strconv.ParseInt(c.Query(name), 10, 64)
	return n
}

// intListQuery parses a comma separated id list parameter
func intListQuery(c *gin.Context, name string) []int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	return ids
}
