package report

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chenyy/work-report/internal/mes"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validForm() FormData {
	return FormData{
		WorkOrderID:       1,
		Quantity:          5,
		AuxiliaryQuantity: 2,
	}
}

func newTestHistory(t *testing.T) *HistoryRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	history, err := NewHistoryRepository(db, zap.NewNop())
	require.NoError(t, err)
	return history
}

func TestSubmitHappyPath(t *testing.T) {
	api := newStubAPI()
	oneTaskOneMaterial(api)
	api.on(submitPath, `{"messageTraceId": "trace-1", "progressReportRecordIds": [7001]}`)

	history := newTestHistory(t)
	submitter := NewSubmitter(api, NewResolver(api, zap.NewNop()), history, zap.NewNop())

	result, err := submitter.Submit(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, "trace-1", result.MessageTraceID)
	assert.Equal(t, []int64{7001}, result.RecordIDs)
	assert.Equal(t, "report submitted", result.Message)
	assert.WithinDuration(t, time.Now(), result.ReportTime, 5*time.Second)

	// The submitted body went through the resolver and the payload builder
	body := api.bodies[submitPath].(map[string]interface{})
	assert.Equal(t, int64(101), body["taskId"])
	assert.Equal(t, storageLocationID, body["storageLocationId"])

	// And the submission was logged locally
	entries, err := history.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].WorkOrderID)
	assert.Equal(t, int64(101), entries[0].TaskID)
	assert.Equal(t, "trace-1", entries[0].MessageTraceID)
}

func TestSubmitValidationIsJoint(t *testing.T) {
	api := newStubAPI()
	submitter := NewSubmitter(api, NewResolver(api, zap.NewNop()), nil, zap.NewNop())

	_, err := submitter.Submit(context.Background(), FormData{WorkOrderID: 1})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	// Both quantity violations reported together, not first-wins
	assert.Equal(t, []string{
		"quantity must be greater than 0",
		"auxiliary quantity must be greater than 0",
	}, verr.Reasons)
	assert.Empty(t, api.calls, "validation failure must not touch the backend")
}

func TestSubmitMissingWorkOrderID(t *testing.T) {
	api := newStubAPI()
	submitter := NewSubmitter(api, NewResolver(api, zap.NewNop()), nil, zap.NewNop())

	_, err := submitter.Submit(context.Background(), FormData{Quantity: 5, AuxiliaryQuantity: 2})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Reasons, "work order id is required")
}

func TestSubmitResolutionFailureStopsSubmission(t *testing.T) {
	api := newStubAPI()
	api.on(taskListPath, `{"total": 0, "list": []}`)

	submitter := NewSubmitter(api, NewResolver(api, zap.NewNop()), nil, zap.NewNop())
	_, err := submitter.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, IsDependencyNotFound(err))
	assert.Equal(t, 0, api.calls[submitPath])
}

func TestSubmitBusinessRejection(t *testing.T) {
	api := newStubAPI()
	oneTaskOneMaterial(api)
	api.onError(submitPath, &mes.BusinessError{Code: 500, Message: "quantity exceeds plan"})

	submitter := NewSubmitter(api, NewResolver(api, zap.NewNop()), nil, zap.NewNop())
	_, err := submitter.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, mes.IsBusinessError(err))
	assert.Contains(t, err.Error(), "quantity exceeds plan")
}

func TestSubmitNormalizesSparseResponse(t *testing.T) {
	api := newStubAPI()
	oneTaskOneMaterial(api)
	// Backend acknowledged but returned no data payload
	api.on(submitPath, `null`)

	submitter := NewSubmitter(api, NewResolver(api, zap.NewNop()), nil, zap.NewNop())
	result, err := submitter.Submit(context.Background(), validForm())
	require.NoError(t, err)

	assert.NotNil(t, result.RecordIDs)
	assert.Empty(t, result.RecordIDs)
	assert.Equal(t, "report submitted", result.Message)
}

func TestValidatePassesCompleteForm(t *testing.T) {
	assert.NoError(t, validate(validForm()))
}
