package es

import (
	"context"

	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
)

// JobEsClient 把岗位记录镜像写入Elasticsearch
type JobEsClient interface {
	CreateIndexWithMapping(ctx context.Context) error
	BulkIndexRecords(ctx context.Context, records []entity.Record) (int, error)
	CountDocs(ctx context.Context) (int64, error)
	// Save 满足persistence.Sink
	Save(ctx context.Context, records []entity.Record) error
}
