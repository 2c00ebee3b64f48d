package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// recordsPath is the report record listing endpoint
const recordsPath = "/openapi/domain/web/v1/route/mfg/open/v1/progress_report/_list"

const defaultRecordsPageSize = 20

// RecordsQuery filters the report record listing. At least one of TaskIDs
// or WorkOrderIDs must be set.
type RecordsQuery struct {
	TaskIDs      []int64
	WorkOrderIDs []int64
	// Report time range: From is inclusive, To exclusive; epoch milliseconds
	ReportTimeFrom int64
	ReportTimeTo   int64
	ProcessIDs     []int64
	ExecutorIDs    []int64
	QCStatusList   []int64
	Page           int
	Size           int
}

// Record is one submitted report record
type Record struct {
	RecordID      int64   `json:"progressReportRecordId"`
	TaskID        int64   `json:"taskId"`
	WorkOrderID   int64   `json:"workOrderId"`
	WorkOrderCode string  `json:"workOrderCode"`
	ReportAmount  *Amount `json:"reportAmount"`
	QCStatus      int     `json:"qcStatus"`
	ReportTime    int64   `json:"reportTime"`
}

// Amount is a reported quantity with its display string
type Amount struct {
	Amount  float64 `json:"amount"`
	Display string  `json:"amountDisplay"`
}

// RecordPage is one page of report records
type RecordPage struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Size    int      `json:"size"`
}

// recordListData is the paged payload under the response envelope
type recordListData struct {
	List  []Record `json:"list"`
	Page  int      `json:"page"`
	Total int      `json:"total"`
}

// Records queries submitted report records
type Records struct {
	api    API
	logger *zap.Logger
}

// NewRecords creates a new record query service
func NewRecords(api API, logger *zap.Logger) *Records {
	return &Records{api: api, logger: logger}
}

// List fetches one page of report records matching the query
func (r *Records) List(ctx context.Context, q RecordsQuery) (*RecordPage, error) {
	if len(q.TaskIDs) == 0 && len(q.WorkOrderIDs) == 0 {
		return nil, fmt.Errorf("either task ids or work order ids are required")
	}

	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.Size
	if size <= 0 {
		size = defaultRecordsPageSize
	}

	req := map[string]interface{}{
		"page": page,
		"size": size,
	}
	if len(q.TaskIDs) > 0 {
		req["taskIds"] = q.TaskIDs
	}
	if len(q.WorkOrderIDs) > 0 {
		req["workOrderIdList"] = q.WorkOrderIDs
	}
	if q.ReportTimeFrom > 0 {
		req["reportTimeFrom"] = q.ReportTimeFrom
	}
	if q.ReportTimeTo > 0 {
		req["reportTimeTo"] = q.ReportTimeTo
	}
	if len(q.ProcessIDs) > 0 {
		req["processIdList"] = q.ProcessIDs
	}
	if len(q.ExecutorIDs) > 0 {
		req["executorIdList"] = q.ExecutorIDs
	}
	if len(q.QCStatusList) > 0 {
		req["qcStatusList"] = q.QCStatusList
	}

	env, err := r.api.Post(ctx, recordsPath, req)
	if err != nil {
		return nil, err
	}

	var data recordListData
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("malformed report record response: %w", err)
	}

	result := &RecordPage{
		Records: data.List,
		Total:   data.Total,
		Page:    data.Page,
		Size:    size,
	}
	if result.Records == nil {
		result.Records = []Record{}
	}
	if result.Page == 0 {
		result.Page = page
	}

	r.logger.Debug("Fetched report records",
		zap.Int("count", len(result.Records)),
		zap.Int("total", result.Total))
	return result, nil
}
