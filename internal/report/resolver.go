package report

import (
	"context"
	"fmt"

	"github.com/chenyy/work-report/internal/mes"
	"go.uber.org/zap"
)

// Backend endpoints, relative to the API base URL
const (
	taskListPath     = "/openapi/domain/web/v1/route/mfg/open/v1/produce_task/_list"
	materialListPath = "/openapi/domain/web/v1/route/mfg/open/v1/progress_report/_list_progress_report_materials"
)

// API is the slice of the MES client the report services need
type API interface {
	Post(ctx context.Context, endpoint string, body interface{}) (*mes.Envelope, error)
}

// Resolver derives the mandatory submission parameters from two dependent
// backend lookups: task by work order, then reportable materials by task.
// Failure at either stage short-circuits with a message naming the missing
// entity.
type Resolver struct {
	api    API
	logger *zap.Logger
}

// NewResolver creates a new parameter resolver
func NewResolver(api API, logger *zap.Logger) *Resolver {
	return &Resolver{api: api, logger: logger}
}

// Resolve computes the required parameters for a submission against the
// given work order. materialID is the caller-supplied fallback for the key's
// material id when the backend omits it everywhere else.
func (r *Resolver) Resolve(ctx context.Context, workOrderID, materialID int64) (*RequiredParams, error) {
	if workOrderID == 0 {
		return nil, fmt.Errorf("work order id is required")
	}

	task, err := r.findTask(ctx, workOrderID)
	if err != nil {
		return nil, err
	}

	material, err := r.findMaterial(ctx, task.TaskID)
	if err != nil {
		return nil, err
	}

	key, err := buildKey(material, materialID)
	if err != nil {
		return nil, err
	}

	executorIDs := make([]int64, 0, len(task.ExecutorList))
	for _, executor := range task.ExecutorList {
		executorIDs = append(executorIDs, executor.ID)
	}

	params := &RequiredParams{
		TaskID:      task.TaskID,
		Key:         *key,
		Material:    material.MaterialInfo,
		OutputUnit:  material.OutputMaterialUnit,
		ExecutorIDs: executorIDs,

		ReportTypes:         material.ReportType,
		MainFlag:            material.MainFlag,
		WarehousingFlag:     material.WarehousingFlag,
		AutoWarehousingFlag: material.AutoWarehousingFlag,
	}

	r.logger.Debug("Resolved report parameters",
		zap.Int64("work_order_id", workOrderID),
		zap.Int64("task_id", params.TaskID),
		zap.Int64("line_id", params.Key.LineID),
		zap.Int64("report_process_id", params.Key.ReportProcessID))
	return params, nil
}

// findTask lists production tasks for the work order and takes the first.
// One work order maps to one primary task.
func (r *Resolver) findTask(ctx context.Context, workOrderID int64) (*taskItem, error) {
	req := map[string]interface{}{
		"page":            1,
		"size":            10,
		"workOrderIdList": []int64{workOrderID},
	}

	env, err := r.api.Post(ctx, taskListPath, req)
	if err != nil {
		if mes.IsBusinessError(err) {
			return nil, &DependencyNotFoundError{Message: "no production task found"}
		}
		return nil, err
	}

	var data taskListData
	if err := env.DecodeData(&data); err != nil || len(data.List) == 0 {
		return nil, &DependencyNotFoundError{Message: "no production task found"}
	}

	task := data.List[0]
	if task.TaskID == 0 {
		return nil, &DependencyNotFoundError{Message: "production task has no task id"}
	}
	return &task, nil
}

// findMaterial lists the task's reportable output materials and selects the
// main output, falling back to the first entry. When several materials are
// flagged main, the first flagged one wins; this tie-break is deliberate.
func (r *Resolver) findMaterial(ctx context.Context, taskID int64) (*outputMaterial, error) {
	req := map[string]interface{}{"taskId": taskID}

	env, err := r.api.Post(ctx, materialListPath, req)
	if err != nil {
		if mes.IsBusinessError(err) {
			return nil, &DependencyNotFoundError{Message: "no report material found"}
		}
		return nil, err
	}

	var data materialListData
	if err := env.DecodeData(&data); err != nil || len(data.OutputMaterials) == 0 {
		return nil, &DependencyNotFoundError{Message: "no report material found"}
	}

	selected := &data.OutputMaterials[0]
	for i := range data.OutputMaterials {
		if data.OutputMaterials[i].MainFlag {
			selected = &data.OutputMaterials[i]
			break
		}
	}
	return selected, nil
}

// buildKey extracts the progress report key triple. The material id falls
// back to the material's own base-info id, then to the caller-supplied id;
// each field still missing after fallbacks is a distinct fatal error.
func buildKey(material *outputMaterial, fallbackMaterialID int64) (*Key, error) {
	if material.ProgressReportKey == nil {
		return nil, &DependencyNotFoundError{Message: "report material has no progress report key"}
	}
	wire := material.ProgressReportKey

	key := &Key{}
	if wire.LineID != nil {
		key.LineID = *wire.LineID
	}
	if wire.MaterialID != nil {
		key.MaterialID = *wire.MaterialID
	} else if material.MaterialInfo != nil && material.MaterialInfo.BaseInfo.ID != 0 {
		key.MaterialID = material.MaterialInfo.BaseInfo.ID
	} else {
		key.MaterialID = fallbackMaterialID
	}
	if wire.ReportProcessID != nil {
		key.ReportProcessID = *wire.ReportProcessID
	}

	if key.LineID == 0 {
		return nil, &DependencyNotFoundError{Message: "report key missing lineId"}
	}
	if key.MaterialID == 0 {
		return nil, &DependencyNotFoundError{Message: "report key missing materialId"}
	}
	if key.ReportProcessID == 0 {
		return nil, &DependencyNotFoundError{Message: "report key missing reportProcessId"}
	}
	return key, nil
}
