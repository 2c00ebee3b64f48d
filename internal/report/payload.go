package report

import (
	"fmt"
	"time"
)

// storageLocationID is the deployment's fixed storage location. It is a
// known constant of this installation, not user-configurable.
const storageLocationID int64 = 1716848012872791

// localTimeLayouts are the accepted form date-time formats, most precise
// first
var localTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// buildPayload merges resolved parameters with form data into the canonical
// request shape. Absent optional fields are left nil and stripped by
// pruneAbsent, so the wire payload never carries explicit nulls.
func buildPayload(params *RequiredParams, form FormData) (map[string]interface{}, error) {
	if params.OutputUnit == nil || params.OutputUnit.ID == 0 {
		return nil, &DependencyNotFoundError{Message: "report material has no report unit"}
	}

	qcStatus := form.QCStatus
	if qcStatus == 0 {
		qcStatus = QCStatusQualified
	}
	reportType := form.ReportType
	if reportType == 0 {
		reportType = ReportTypeRecordQualified
	}

	materialItem := map[string]interface{}{
		"reportAmount": form.Quantity,
		"reportUnitId": params.OutputUnit.ID,
		"remark":       optionalString(form.Remark),
	}

	executorIDs := params.ExecutorIDs
	if executorIDs == nil {
		executorIDs = []int64{}
	}

	payload := map[string]interface{}{
		"taskId": params.TaskID,
		"progressReportMaterial": map[string]interface{}{
			"lineId":          params.Key.LineID,
			"materialId":      params.Key.MaterialID,
			"reportProcessId": params.Key.ReportProcessID,
		},
		"qcStatus":   qcStatus,
		"reportType": reportType,

		"progressReportItems": []interface{}{
			map[string]interface{}{
				"executorIds":                 executorIDs,
				"progressReportMaterialItems": []interface{}{materialItem},
			},
		},

		"storageLocationId": storageLocationID,
		"actualExecutorIds": executorIDs,
		"actualEquipmentIds": append([]int64{}, form.EquipmentIDs...),
		"workHour":           optionalFloat(form.WorkHour),
		"workHourUnit":       optionalInt(form.WorkHourUnit),
		"qcDefectReasonIds":  append([]int64{}, form.DefectReasonIDs...),
	}

	start, err := optionalMillis(form.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid report start time: %w", err)
	}
	payload["reportStartTime"] = start

	end, err := optionalMillis(form.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid report end time: %w", err)
	}
	payload["reportEndTime"] = end

	return pruneAbsent(payload).(map[string]interface{}), nil
}

// pruneAbsent strips every nil value from the payload, recursing into maps
// and slices, so no key at any depth carries an absent value.
func pruneAbsent(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		cleaned := make(map[string]interface{}, len(value))
		for k, inner := range value {
			if inner == nil {
				continue
			}
			cleaned[k] = pruneAbsent(inner)
		}
		return cleaned
	case []interface{}:
		cleaned := make([]interface{}, 0, len(value))
		for _, inner := range value {
			if inner == nil {
				continue
			}
			cleaned = append(cleaned, pruneAbsent(inner))
		}
		return cleaned
	default:
		return v
	}
}

// optionalString maps the empty string to absent
func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// optionalFloat maps zero to absent
func optionalFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}

// optionalInt maps zero to absent
func optionalInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// optionalMillis converts a local date-time string to epoch milliseconds,
// or absent when the string is empty
func optionalMillis(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return nil, fmt.Errorf("unrecognized date-time %q", s)
}
