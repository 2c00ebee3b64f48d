package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordsListRequiresAFilter(t *testing.T) {
	records := NewRecords(newStubAPI(), zap.NewNop())

	_, err := records.List(context.Background(), RecordsQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task ids or work order ids")
}

func TestRecordsListBuildsConditionalRequest(t *testing.T) {
	api := newStubAPI()
	api.on(recordsPath, `{"page": 1, "total": 0, "list": []}`)
	records := NewRecords(api, zap.NewNop())

	_, err := records.List(context.Background(), RecordsQuery{
		WorkOrderIDs:   []int64{1},
		ReportTimeFrom: 100,
		QCStatusList:   []int64{1, 4},
	})
	require.NoError(t, err)

	req := api.bodies[recordsPath].(map[string]interface{})
	assert.Equal(t, []int64{1}, req["workOrderIdList"])
	assert.Equal(t, int64(100), req["reportTimeFrom"])
	assert.Equal(t, []int64{1, 4}, req["qcStatusList"])
	assert.Equal(t, 1, req["page"])
	assert.Equal(t, defaultRecordsPageSize, req["size"])
	assert.NotContains(t, req, "taskIds")
	assert.NotContains(t, req, "reportTimeTo")
	assert.NotContains(t, req, "processIdList")
}

func TestRecordsListNormalizesPage(t *testing.T) {
	api := newStubAPI()
	api.on(recordsPath, `{
		"total": 1,
		"list": [{"progressReportRecordId": 7001, "taskId": 101, "qcStatus": 1, "reportTime": 1700000000000}]
	}`)
	records := NewRecords(api, zap.NewNop())

	page, err := records.List(context.Background(), RecordsQuery{TaskIDs: []int64{101}})
	require.NoError(t, err)

	require.Len(t, page.Records, 1)
	assert.Equal(t, int64(7001), page.Records[0].RecordID)
	// Page omitted by the backend falls back to the requested page
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultRecordsPageSize, page.Size)
}

func TestRecordsListEmptyListStaysNonNil(t *testing.T) {
	api := newStubAPI()
	api.on(recordsPath, `{"total": 0}`)
	records := NewRecords(api, zap.NewNop())

	page, err := records.List(context.Background(), RecordsQuery{TaskIDs: []int64{101}})
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
}
