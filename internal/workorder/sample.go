package workorder

import "strings"

// sampleWorkOrders is the fixed offline fallback set. It exists purely for
// demo continuity when the backend is unreachable; it is not a correctness
// feature.
var sampleWorkOrders = []WorkOrder{
	{ID: "cyy-SOP", Code: "cyy-SOP", Name: "Sample work order - SOP", Status: "active",
		MaterialID: 1, MaterialName: "Material 1 / process a", MaterialCode: "wuliao1-gongxua-10"},
	{ID: "cyy-chengliangrenwu", Code: "cyy-chengliangrenwu", Name: "Sample work order - batch task", Status: "active",
		MaterialID: 2, MaterialName: "Material 2 / process b", MaterialCode: "wuliao2-gongxub-20"},
	{ID: "gd2510300131-", Code: "gd2510300131-", Name: "Work order 2510300131", Status: "active",
		MaterialID: 3, MaterialName: "Material 3 / process c", MaterialCode: "wuliao3-gongxuc-30"},
	{ID: "gd2510270130-", Code: "gd2510270130-", Name: "Work order 2510270130", Status: "active",
		MaterialID: 4, MaterialName: "Material 4 / process d", MaterialCode: "wuliao4-gongxud-40"},
	{ID: "gd2510210129-", Code: "gd2510210129-", Name: "Work order 2510210129", Status: "active",
		MaterialID: 5, MaterialName: "Material 5 / process e", MaterialCode: "wuliao5-gongxue-50"},
	{ID: "gd2509020128-", Code: "gd2509020128-", Name: "Work order 2509020128", Status: "active",
		MaterialID: 6, MaterialName: "Material 6 / process f", MaterialCode: "wuliao6-gongxuf-60"},
	{ID: "gd2509010126-", Code: "gd2509010126-", Name: "Work order 2509010126", Status: "active",
		MaterialID: 7, MaterialName: "Material 7 / process g", MaterialCode: "wuliao7-gongxug-70"},
	{ID: "gd2509010125-", Code: "gd2509010125-", Name: "Work order 2509010125", Status: "active",
		MaterialID: 8, MaterialName: "Material 8 / process h", MaterialCode: "wuliao8-gongxuh-80"},
	{ID: "gd2508260124-", Code: "gd2508260124-", Name: "Work order 2508260124", Status: "active",
		MaterialID: 9, MaterialName: "Material 9 / process i", MaterialCode: "wuliao9-gongxui-90"},
	{ID: "gd2507210123-", Code: "gd2507210123-", Name: "Work order 2507210123", Status: "active",
		MaterialID: 10, MaterialName: "Material 10 / process j", MaterialCode: "wuliao10-gongxuj-100"},
}

// samplePage returns the fallback set filtered by the same search predicate
// as the live listing: case-insensitive substring match on id or name.
func samplePage(q Query) *Page {
	filtered := make([]WorkOrder, 0, len(sampleWorkOrders))
	term := strings.ToLower(strings.TrimSpace(q.Search))
	for _, wo := range sampleWorkOrders {
		if term != "" &&
			!strings.Contains(strings.ToLower(wo.ID), term) &&
			!strings.Contains(strings.ToLower(wo.Name), term) {
			continue
		}
		filtered = append(filtered, wo)
	}

	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return &Page{WorkOrders: filtered, Total: len(filtered), Page: page, PageSize: size}
}
