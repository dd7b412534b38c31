package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/model"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
)

type jobEsClient struct {
	client   *elasticsearch.TypedClient
	index    string
	criteria entity.SearchCriteria
	log      *logger.Logger
}

func InitJobEsClient(cfg *config.Config, criteria entity.SearchCriteria, log *logger.Logger) (JobEsClient, error) {
	typedClient, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Username: cfg.Output.Elasticsearch.Username,
		Password: cfg.Output.Elasticsearch.Password,
		Addresses: []string{
			cfg.Output.Elasticsearch.Address,
		},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			// 跳过TLS验证（仅在开发环境中使用）
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch client: %w", err)
	}
	return &jobEsClient{
		client:   typedClient,
		index:    cfg.Output.Elasticsearch.Index,
		criteria: criteria,
		log:      log,
	}, nil
}

func (jc *jobEsClient) CreateIndexWithMapping(ctx context.Context) error {
	exists, err := jc.client.Indices.Exists(jc.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index existence in es: %w", err)
	}
	if exists {
		jc.log.Debug("index already exists, skip create", "index", jc.index)
		return nil
	}
	var schema model.JobDoc
	if _, err := jc.client.Indices.Create(jc.index).Mappings(schema.GetTypeMapping()).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index in es: %w", err)
	}
	return nil
}

func (jc *jobEsClient) BulkIndexRecords(ctx context.Context, records []entity.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	var failed atomic.Int64
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         jc.index,
		Client:        jc.client,
		NumWorkers:    2,
		FlushBytes:    5 * 1024 * 1024,
		FlushInterval: 30 * time.Second,
		OnError: func(ctx context.Context, err error) {
			jc.log.Error("bulk indexer error", "err", err)
		},
	})
	if err != nil {
		return 0, fmt.Errorf("error creating bulk indexer: %w", err)
	}

	// 文档ID留空,由ES生成
	for _, doc := range model.NewJobDocs(records, jc.criteria) {
		data, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("error marshaling document: %w", err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					jc.log.Error("error indexing document", "err", err)
				} else {
					jc.log.Error("failed to index document", "reason", res.Error.Reason)
				}
			},
		})
		if err != nil {
			return 0, fmt.Errorf("unexpected bulk add error: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("error closing bulk indexer: %w", err)
	}
	stats := bi.Stats()
	if n := failed.Load(); n > 0 {
		return int(stats.NumIndexed), fmt.Errorf("%d documents failed to index", n)
	}
	return int(stats.NumIndexed), nil
}

func (jc *jobEsClient) CountDocs(ctx context.Context) (int64, error) {
	resp, err := jc.client.Count().Index(jc.index).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count docs in es: %w", err)
	}
	return resp.Count, nil
}

func (jc *jobEsClient) Save(ctx context.Context, records []entity.Record) error {
	if err := jc.CreateIndexWithMapping(ctx); err != nil {
		return err
	}
	n, err := jc.BulkIndexRecords(ctx, records)
	if err != nil {
		return err
	}
	jc.log.Info("records indexed", "index", jc.index, "count", n)
	return nil
}
