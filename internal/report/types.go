package report

import (
	"time"

	"github.com/chenyy/work-report/internal/workorder"
)

// Quality status codes accepted by the backend
const (
	QCStatusQualified      = 1
	QCStatusConcession     = 2
	QCStatusPendingCheck   = 3
	QCStatusDisqualified   = 4
)

// Report type codes: how the quantity was captured
const (
	ReportTypeScanQualified      = 1
	ReportTypeRecordQualified    = 2
	ReportTypeScanDisqualified   = 3
	ReportTypeRecordDisqualified = 4
	ReportTypeCodeQualified      = 5
	ReportTypeCodeDisqualified   = 6
)

// Key is the progress report material key: the (lineId, materialId,
// reportProcessId) triple every submission must reference.
type Key struct {
	LineID          int64 `json:"lineId"`
	MaterialID      int64 `json:"materialId"`
	ReportProcessID int64 `json:"reportProcessId"`
}

// Unit identifies a reporting unit
type Unit struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RequiredParams are the backend-derived fields a submission needs. They
// are computed fresh per submission and never cached: task and material
// state may change between reports.
type RequiredParams struct {
	TaskID      int64
	Key         Key
	Material    *workorder.MaterialInfo
	OutputUnit  *Unit
	ExecutorIDs []int64

	// Reporting-method metadata carried through for the form
	ReportTypes         []int
	MainFlag            bool
	WarehousingFlag     bool
	AutoWarehousingFlag bool
}

// FormData is the user-entered report form, ephemeral to the submission
type FormData struct {
	WorkOrderID       int64   `json:"workOrderId"`
	MaterialID        int64   `json:"materialId"`
	Quantity          float64 `json:"quantity"`
	AuxiliaryQuantity float64 `json:"auxiliaryQuantity"`
	Remark            string  `json:"remark"`
	// QCStatus and ReportType default to qualified / record-based when unset
	QCStatus   int `json:"qcStatus"`
	ReportType int `json:"reportType"`

	WorkHour     float64 `json:"workHour"`
	WorkHourUnit int     `json:"workHourUnit"`
	// Local date-time strings ("2006-01-02T15:04"), converted to epoch
	// milliseconds on the wire
	StartTime string `json:"reportStartTime"`
	EndTime   string `json:"reportEndTime"`

	EquipmentIDs    []int64 `json:"equipmentIds"`
	DefectReasonIDs []int64 `json:"qcDefectReasonIds"`
}

// SubmitResult is the normalized outcome of a successful submission
type SubmitResult struct {
	MessageTraceID string    `json:"messageTraceId"`
	RecordIDs      []int64   `json:"progressReportRecordIds"`
	Message        string    `json:"message"`
	ReportTime     time.Time `json:"reportTime"`
}

// taskItem is the raw wire shape of a production task
type taskItem struct {
	TaskID       int64 `json:"taskId"`
	ExecutorList []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"executorList"`
}

// taskListData is the paged task list payload
type taskListData struct {
	List  []taskItem `json:"list"`
	Total int        `json:"total"`
}

// wireKey is the raw progress report key; fields are pointers because each
// must be proven present, not defaulted.
type wireKey struct {
	LineID          *int64 `json:"lineId"`
	MaterialID      *int64 `json:"materialId"`
	ReportProcessID *int64 `json:"reportProcessId"`
}

// outputMaterial is the raw wire shape of one reportable output material
type outputMaterial struct {
	MainFlag            bool                    `json:"mainFlag"`
	WarehousingFlag     bool                    `json:"warehousingFlag"`
	AutoWarehousingFlag bool                    `json:"autoWarehousingFlag"`
	ReportType          []int                   `json:"reportType"`
	ProgressReportKey   *wireKey                `json:"progressReportKey"`
	MaterialInfo        *workorder.MaterialInfo `json:"materialInfo"`
	OutputMaterialUnit  *Unit                   `json:"outputMaterialUnit"`
}

// materialListData is the reportable-materials payload
type materialListData struct {
	OutputMaterials []outputMaterial `json:"outputMaterials"`
}

// submitData is the submission response payload
type submitData struct {
	MessageTraceID          string  `json:"messageTraceId"`
	ProgressReportRecordIDs []int64 `json:"progressReportRecordIds"`
}
