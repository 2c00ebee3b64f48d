package workorder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/chenyy/work-report/internal/mes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAPI lets each test script the backend reply
type stubAPI struct {
	fn func(endpoint string, body interface{}) (*mes.Envelope, error)

	lastEndpoint string
	lastBody     interface{}
}

func (s *stubAPI) Post(ctx context.Context, endpoint string, body interface{}) (*mes.Envelope, error) {
	s.lastEndpoint = endpoint
	s.lastBody = body
	return s.fn(endpoint, body)
}

func okEnvelope(t *testing.T, data string) *mes.Envelope {
	t.Helper()
	code := 200
	return &mes.Envelope{Code: &code, Data: json.RawMessage(data)}
}

func TestListProjectsItemsDefensively(t *testing.T) {
	api := &stubAPI{fn: func(endpoint string, body interface{}) (*mes.Envelope, error) {
		return okEnvelope(t, `{
			"page": 1, "size": 50, "total": 2,
			"list": [
				{
					"workOrderId": 11,
					"workOrderCode": "WO-11",
					"materialInfo": {
						"baseInfo": {"id": 7, "name": "Widget", "code": "WGT"},
						"unitConversions": [{"fromUnitId": 1, "toUnitId": 2, "toUnitName": "kg"}]
					},
					"qualifiedHoldAmount": {"amount": 3, "amountDisplay": "3"},
					"workOrderStatus": {"code": "running"}
				},
				{"workOrderId": 12}
			]
		}`), nil
	}}

	svc := NewService(api, zap.NewNop())
	page, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, page.WorkOrders, 2)

	full := page.WorkOrders[0]
	assert.Equal(t, "WO-11", full.ID)
	assert.Equal(t, "Widget", full.Name)
	assert.Equal(t, "running", full.Status)
	assert.Equal(t, int64(7), full.MaterialID)
	assert.Equal(t, 3.0, full.Qualified.Amount)
	require.Len(t, full.Material.UnitConversions, 1)
	assert.Equal(t, "kg", full.Material.UnitConversions[0].ToUnitName)

	// Everything nested was missing: defaults, not panics
	bare := page.WorkOrders[1]
	assert.Equal(t, "12", bare.ID)
	assert.Equal(t, "active", bare.Status)
	assert.Equal(t, int64(0), bare.MaterialID)
	assert.Equal(t, "0", bare.Qualified.Display)
}

func TestListBuildsRequestFromQuery(t *testing.T) {
	api := &stubAPI{fn: func(endpoint string, body interface{}) (*mes.Envelope, error) {
		return okEnvelope(t, `{"page":2,"size":10,"total":0,"list":[]}`), nil
	}}
	svc := NewService(api, zap.NewNop())

	pause := 1
	_, err := svc.List(context.Background(), Query{
		Search:     " WO-1 ",
		ExactCode:  "WO-1",
		StatusList: []int{2, 3},
		PauseFlag:  &pause,
		Page:       2,
		PageSize:   10,
	})
	require.NoError(t, err)

	req, ok := api.lastBody.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "WO-1", req["workOrderCode"], "search is trimmed")
	assert.Equal(t, "WO-1", req["exactWorkOrderCode"])
	assert.Equal(t, []int{2, 3}, req["workOrderStatusList"])
	assert.Equal(t, 1, req["pauseFlag"])
	assert.Equal(t, 2, req["page"])
	assert.Equal(t, 10, req["size"])
}

func TestListDefaultsPaging(t *testing.T) {
	api := &stubAPI{fn: func(endpoint string, body interface{}) (*mes.Envelope, error) {
		return okEnvelope(t, `{"total":0,"list":[]}`), nil
	}}
	svc := NewService(api, zap.NewNop())

	page, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)

	req := api.lastBody.(map[string]interface{})
	assert.Equal(t, 1, req["page"])
	assert.Equal(t, 50, req["size"])
	assert.NotContains(t, req, "workOrderCode")
	assert.NotContains(t, req, "pauseFlag")
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PageSize)
}

func TestListBusinessErrorPropagates(t *testing.T) {
	api := &stubAPI{fn: func(endpoint string, body interface{}) (*mes.Envelope, error) {
		return nil, &mes.BusinessError{Code: 500, Message: "listing rejected"}
	}}
	svc := NewService(api, zap.NewNop())

	_, err := svc.List(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, mes.IsBusinessError(err))
	assert.Contains(t, err.Error(), "listing rejected")
}

func TestListNetworkFailureFallsBackToSampleData(t *testing.T) {
	api := &stubAPI{fn: func(endpoint string, body interface{}) (*mes.Envelope, error) {
		return nil, &mes.NetworkError{Err: errors.New("connection refused")}
	}}
	svc := NewService(api, zap.NewNop())

	page, err := svc.List(context.Background(), Query{Search: "gd2510"})
	require.NoError(t, err)

	// Same result as filtering the fixed sample set directly
	want := samplePage(Query{Search: "gd2510"})
	assert.Equal(t, want, page)
	require.Len(t, page.WorkOrders, 3)
	for _, wo := range page.WorkOrders {
		assert.Contains(t, wo.ID, "gd2510")
	}
}

func TestListMalformedResponse(t *testing.T) {
	api := &stubAPI{fn: func(endpoint string, body interface{}) (*mes.Envelope, error) {
		return okEnvelope(t, `{"total": 1}`), nil
	}}
	svc := NewService(api, zap.NewNop())

	_, err := svc.List(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing list")
}
