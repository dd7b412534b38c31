package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrNavigation      = errors.New("navigation failed")
)

// EventKind 网络事件类型
type EventKind int

const (
	EventRequest EventKind = iota
	EventResponse
)

func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "request"
	case EventResponse:
		return "response"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NetworkEvent 页面上观察到的一次网络请求或响应
// 同一次交换的请求与响应有相同的RequestID
type NetworkEvent struct {
	Kind      EventKind
	RequestID string
	URL       string
	Method    string
	Status    int
}

// Page 被驱动的页面,chromedp与rod各有一个实现
// 所有查找都先检查元素是否存在,缺失时返回ErrElementNotFound而不是一直等待
type Page interface {
	Navigate(ctx context.Context, url string) error
	Has(ctx context.Context, selector string) (bool, error)
	WaitVisible(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	ClickAndWaitNavigation(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Eval(ctx context.Context, expression string, out any) error
	OuterHTML(ctx context.Context, selector string) (string, error)
	// Listen 注册网络事件监听,返回的函数用于注销
	Listen(kind EventKind, fn func(NetworkEvent)) (remove func())
	Screenshot(ctx context.Context, path string) error
	SetUserAgent(ctx context.Context, userAgent string) error
	Close() error
}

// Open 按配置启动对应的驱动
func Open(ctx context.Context, cfg *config.Config) (Page, error) {
	switch cfg.Driver {
	case config.DriverChromedp, "":
		return InitChromedpPage(ctx, cfg)
	case config.DriverRod:
		return InitRodPage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// JSString 把字符串编码为可以直接嵌入脚本的JS字面量
func JSString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func notFound(selector string) error {
	return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
}
