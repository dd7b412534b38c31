package entity

// Record 单条岗位记录
// 所有字段都是可选的: 卡片中缺失的子元素记为nil,不做任何填充
type Record struct {
	Title          *string `json:"title,omitempty"`
	Organization   *string `json:"organization,omitempty"`
	OrganizationID *int64  `json:"organizationId,omitempty"`
	PostedAt       *string `json:"postedAt,omitempty"`
}

// Complete 四个字段是否全部存在
func (r Record) Complete() bool {
	return r.Title != nil && r.Organization != nil && r.OrganizationID != nil && r.PostedAt != nil
}

// Accumulator 只追加的有序记录序列,一次运行内由采集循环独占
type Accumulator struct {
	records []Record
}

// Append 按顺序追加,不去重
func (a *Accumulator) Append(records ...Record) {
	a.records = append(a.records, records...)
}

func (a *Accumulator) Len() int {
	return len(a.records)
}

// Snapshot 返回当前记录的副本,调用方修改不会影响累加器
func (a *Accumulator) Snapshot() []Record {
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return out
}
