package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/google/renameio/v2"
)

// Writer 把记录序列写成一个JSON数组
// 整个文件一次性替换,读者不会看到写了一半的内容
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Save(_ context.Context, records []entity.Record) error {
	if records == nil {
		records = []entity.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := renameio.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}
