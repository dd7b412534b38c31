package param

import "github.com/LouYuanbo1/jobcrawler/internal/domain/entity"

const (
	DefaultQuery    = "React"
	DefaultLocation = "Berlin"
	DefaultMaxPages = 2
)

// Search 一次运行的工作流参数,由入口按位置参数传入,核心不做解析
type Search struct {
	Criteria entity.SearchCriteria `json:"criteria"`
	// 最多采集的结果页数,至少为1
	MaxPages int `json:"max_pages"`
}

func NewSearch(query, location string, maxPages int, recency entity.Recency) *Search {
	return &Search{
		Criteria: entity.SearchCriteria{
			Query:    query,
			Location: location,
			Recency:  recency,
		},
		MaxPages: maxPages,
	}
}

func (s *Search) IsValid() bool {
	return s != nil &&
		s.Criteria.Query != "" &&
		s.MaxPages >= 1
}
