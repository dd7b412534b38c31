package entity

import "fmt"

// Recency 发布时间筛选
type Recency string

const (
	RecencyAnyTime   Recency = "any"
	RecencyPastDay   Recency = "day"
	RecencyPastWeek  Recency = "week"
	RecencyPastMonth Recency = "month"
)

func ParseRecency(s string) (Recency, error) {
	switch r := Recency(s); r {
	case RecencyAnyTime, RecencyPastDay, RecencyPastWeek, RecencyPastMonth:
		return r, nil
	case "":
		return RecencyAnyTime, nil
	default:
		return "", fmt.Errorf("unknown recency filter %q", s)
	}
}

// SearchCriteria 在工作流开始时提供一次,之后只读
type SearchCriteria struct {
	Query    string  `json:"query"`
	Location string  `json:"location"`
	Recency  Recency `json:"recency"`
}
