package report

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// submitPath is the progress report submission endpoint
const submitPath = "/openapi/domain/web/v1/route/mfg/open/v1/progress_report/_progress_report"

// Submitter validates form data, resolves the mandatory parameters and
// posts the merged report. A submission references exactly one work order,
// one material and one report key; all are resolved before the request is
// built.
type Submitter struct {
	api      API
	resolver *Resolver
	history  *HistoryRepository
	logger   *zap.Logger
}

// NewSubmitter creates a new report submitter. history may be nil when no
// local log is wanted.
func NewSubmitter(api API, resolver *Resolver, history *HistoryRepository, logger *zap.Logger) *Submitter {
	return &Submitter{api: api, resolver: resolver, history: history, logger: logger}
}

// Submit runs the full submission flow: validate, resolve, build, post,
// classify. Validation fails fast before any network call.
func (s *Submitter) Submit(ctx context.Context, form FormData) (*SubmitResult, error) {
	if err := validate(form); err != nil {
		return nil, err
	}

	params, err := s.resolver.Resolve(ctx, form.WorkOrderID, form.MaterialID)
	if err != nil {
		return nil, err
	}

	payload, err := buildPayload(params, form)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submitting progress report",
		zap.Int64("work_order_id", form.WorkOrderID),
		zap.Int64("task_id", params.TaskID),
		zap.Float64("quantity", form.Quantity))

	env, err := s.api.Post(ctx, submitPath, payload)
	if err != nil {
		return nil, err
	}

	var data submitData
	if len(env.Data) > 0 {
		if err := env.DecodeData(&data); err != nil {
			s.logger.Warn("Unparseable submission response data", zap.Error(err))
		}
	}

	result := &SubmitResult{
		MessageTraceID: data.MessageTraceID,
		RecordIDs:      data.ProgressReportRecordIDs,
		Message:        env.Message,
		ReportTime:     time.Now(),
	}
	if result.RecordIDs == nil {
		result.RecordIDs = []int64{}
	}
	if result.Message == "" {
		result.Message = "report submitted"
	}

	if s.history != nil {
		entry := &HistoryEntry{
			WorkOrderID:    form.WorkOrderID,
			TaskID:         params.TaskID,
			Quantity:       form.Quantity,
			MessageTraceID: result.MessageTraceID,
			ReportedAt:     result.ReportTime.UnixMilli(),
		}
		// Local log only; a failed insert never fails the submission
		if err := s.history.Create(entry); err != nil {
			s.logger.Warn("Failed to record submission locally", zap.Error(err))
		}
	}

	s.logger.Info("Progress report accepted",
		zap.String("trace_id", result.MessageTraceID),
		zap.Int("record_count", len(result.RecordIDs)))
	return result, nil
}

// validate collects every form violation and raises them jointly
func validate(form FormData) error {
	var reasons []string

	if form.WorkOrderID == 0 {
		reasons = append(reasons, "work order id is required")
	}
	if form.Quantity <= 0 {
		reasons = append(reasons, "quantity must be greater than 0")
	}
	if form.AuxiliaryQuantity <= 0 {
		reasons = append(reasons, "auxiliary quantity must be greater than 0")
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}
