package model

import (
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// JobDoc 写入Elasticsearch的岗位文档
// 记录没有主键,文档ID由ES自动生成
type JobDoc struct {
	entity.Record
	Query    string `json:"query"`
	Location string `json:"location"`
}

func NewJobDocs(records []entity.Record, criteria entity.SearchCriteria) []*JobDoc {
	docs := make([]*JobDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, &JobDoc{
			Record:   r,
			Query:    criteria.Query,
			Location: criteria.Location,
		})
	}
	return docs
}

func (d *JobDoc) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"title":          types.NewTextProperty(),
			"organization":   types.NewKeywordProperty(),
			"organizationId": types.NewLongNumberProperty(),
			"postedAt":       types.NewKeywordProperty(),
			"query":          types.NewKeywordProperty(),
			"location":       types.NewKeywordProperty(),
		},
	}
}
