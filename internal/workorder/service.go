package workorder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chenyy/work-report/internal/mes"
	"go.uber.org/zap"
)

// listPath is the work order listing endpoint
const listPath = "/openapi/domain/web/v1/route/med/open/v2/work_order/base/_list"

const defaultPageSize = 50

// API is the slice of the MES client the service needs
type API interface {
	Post(ctx context.Context, endpoint string, body interface{}) (*mes.Envelope, error)
}

// Service queries and projects work orders
type Service struct {
	api    API
	logger *zap.Logger
}

// NewService creates a new work order service
func NewService(api API, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// List fetches one page of work orders matching the query. A network-class
// failure (not a business error) degrades to the fixed sample set filtered
// by the same search predicate, so the demo stays usable offline.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	req := buildListRequest(q)

	env, err := s.api.Post(ctx, listPath, req)
	if err != nil {
		if mes.IsNetworkError(err) {
			s.logger.Warn("Work order listing unreachable, serving sample data",
				zap.Error(err))
			return samplePage(q), nil
		}
		return nil, err
	}

	var data listData
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("malformed work order list response: %w", err)
	}
	if data.List == nil {
		return nil, fmt.Errorf("malformed work order list response: missing list field")
	}

	page := &Page{
		WorkOrders: make([]WorkOrder, 0, len(data.List)),
		Total:      data.Total,
		Page:       data.Page,
		PageSize:   data.Size,
	}
	if page.Page == 0 {
		page.Page = req["page"].(int)
	}
	if page.PageSize == 0 {
		page.PageSize = req["size"].(int)
	}
	for _, item := range data.List {
		page.WorkOrders = append(page.WorkOrders, project(item))
	}
	return page, nil
}

// buildListRequest assembles the wire request, leaving unset filters out
func buildListRequest(q Query) map[string]interface{} {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	req := map[string]interface{}{
		"page": page,
		"size": size,
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		req["workOrderCode"] = search
	}
	if exact := strings.TrimSpace(q.ExactCode); exact != "" {
		req["exactWorkOrderCode"] = exact
	}
	if len(q.StatusList) > 0 {
		req["workOrderStatusList"] = q.StatusList
	}
	if q.PauseFlag != nil {
		req["pauseFlag"] = *q.PauseFlag
	}
	return req
}

// project maps one raw list item into the WorkOrder shape, defaulting every
// nested object the backend left out.
func project(item listItem) WorkOrder {
	material := MaterialInfo{}
	if item.MaterialInfo != nil {
		material = *item.MaterialInfo
	}

	qualified := Amount{Display: "0"}
	if item.QualifiedHoldAmount != nil {
		qualified = *item.QualifiedHoldAmount
	}
	disqualified := Amount{Display: "0"}
	if item.DisqualifiedAmount != nil {
		disqualified = *item.DisqualifiedAmount
	}
	total := Amount{Display: "0"}
	if item.TotalHoldAmount != nil {
		total = *item.TotalHoldAmount
	}

	status := "active"
	if item.WorkOrderStatus != nil && item.WorkOrderStatus.Code != "" {
		status = item.WorkOrderStatus.Code
	}

	id := item.WorkOrderCode
	if id == "" && item.WorkOrderID != 0 {
		id = strconv.FormatInt(item.WorkOrderID, 10)
	}

	name := material.BaseInfo.Name
	if name == "" {
		name = item.WorkOrderCode
	}

	return WorkOrder{
		ID:          id,
		WorkOrderID: item.WorkOrderID,
		Code:        item.WorkOrderCode,
		Name:        name,
		Status:      status,

		Material:     material,
		MaterialID:   material.BaseInfo.ID,
		MaterialName: material.BaseInfo.Name,
		MaterialCode: material.BaseInfo.Code,

		Qualified:    qualified,
		Disqualified: disqualified,
		Total:        total,

		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
		PlannedStartTime: item.PlannedStartTime,
		PlannedEndTime:   item.PlannedEndTime,
		PauseFlag:        item.PauseFlag,
	}
}
