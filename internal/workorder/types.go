package workorder

// Amount is a quantity snapshot entry: the raw amount plus the display
// string the backend pre-formats.
type Amount struct {
	Amount  float64 `json:"amount"`
	Display string  `json:"amountDisplay"`
}

// UnitConversion maps a base unit to an auxiliary unit for a material
type UnitConversion struct {
	FromUnitID   int64  `json:"fromUnitId"`
	FromUnitName string `json:"fromUnitName"`
	ToUnitID     int64  `json:"toUnitId"`
	ToUnitName   string `json:"toUnitName"`
}

// MaterialBaseInfo identifies a material
type MaterialBaseInfo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	Specification string `json:"specification"`
}

// MaterialInfo is a material with its unit conversion list. The first
// conversion's target unit serves as the form's auxiliary unit.
type MaterialInfo struct {
	BaseInfo        MaterialBaseInfo `json:"baseInfo"`
	UnitConversions []UnitConversion `json:"unitConversions"`
}

// Status is the backend's coded work order status
type Status struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// WorkOrder is the projected work order shape consumed by the UI. Immutable
// once fetched; selection on the client side is single-select.
type WorkOrder struct {
	ID          string `json:"id"`
	WorkOrderID int64  `json:"workOrderId"`
	Code        string `json:"workOrderCode"`
	Name        string `json:"name"`
	Status      string `json:"status"`

	Material     MaterialInfo `json:"materialInfo"`
	MaterialID   int64        `json:"materialId"`
	MaterialName string       `json:"materialName"`
	MaterialCode string       `json:"materialCode"`

	Qualified    Amount `json:"qualified"`
	Disqualified Amount `json:"disqualified"`
	Total        Amount `json:"total"`

	CreatedAt        int64 `json:"createdAt,omitempty"`
	UpdatedAt        int64 `json:"updatedAt,omitempty"`
	PlannedStartTime int64 `json:"plannedStartTime,omitempty"`
	PlannedEndTime   int64 `json:"plannedEndTime,omitempty"`
	PauseFlag        int   `json:"pauseFlag"`
}

// Page is one page of work orders
type Page struct {
	WorkOrders []WorkOrder `json:"workOrders"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
}

// Query filters the work order listing
type Query struct {
	// Search is a fuzzy match on the work order code
	Search string
	// ExactCode matches a work order code exactly
	ExactCode  string
	StatusList []int
	// PauseFlag: 0 running, 1 paused; nil means no filter
	PauseFlag *int
	Page      int
	PageSize  int
}

// listItem is the raw wire shape of one work order in the list response.
// Nested objects are pointers: the backend omits them freely and projection
// must default instead of failing.
type listItem struct {
	WorkOrderID          int64         `json:"workOrderId"`
	WorkOrderCode        string        `json:"workOrderCode"`
	MaterialInfo         *MaterialInfo `json:"materialInfo"`
	QualifiedHoldAmount  *Amount       `json:"qualifiedHoldAmount"`
	DisqualifiedAmount   *Amount       `json:"disqualifiedHoldAmount"`
	TotalHoldAmount      *Amount       `json:"totalHoldAmount"`
	WorkOrderStatus      *Status       `json:"workOrderStatus"`
	CreatedAt            int64         `json:"createdAt"`
	UpdatedAt            int64         `json:"updatedAt"`
	PlannedStartTime     int64         `json:"plannedStartTime"`
	PlannedEndTime       int64         `json:"plannedEndTime"`
	PauseFlag            int           `json:"pauseFlag"`
}

// listData is the paged payload under the response envelope's data field
type listData struct {
	List  []listItem `json:"list"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Total int        `json:"total"`
}
