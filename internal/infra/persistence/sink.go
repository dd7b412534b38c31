package persistence

import (
	"context"
	"errors"

	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
)

// Sink 在运行结束时接收完整的有序记录序列
type Sink interface {
	Save(ctx context.Context, records []entity.Record) error
}

type multiSink []Sink

// Multi 依次写入所有sink,某一个失败不影响其余
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Save(ctx context.Context, records []entity.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
