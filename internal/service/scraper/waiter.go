package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
)

// NetworkWait 一次性的网络事件订阅
// 第一次匹配后立即注销监听,之后的匹配事件不会再被观察到
type NetworkWait struct {
	ch    chan browser.NetworkEvent
	fired atomic.Bool

	mu        sync.Mutex
	remove    func()
	cancelled bool
}

// AwaitNetworkEvent 在调用时注册监听,等待URL包含urlSubstring的第一个事件
// 本身没有超时,需要限时的调用方在Wait的ctx上设置截止时间
func AwaitNetworkEvent(page browser.Page, kind browser.EventKind, urlSubstring string) *NetworkWait {
	return awaitMatch(page, kind, func(ev browser.NetworkEvent) bool {
		return strings.Contains(ev.URL, urlSubstring)
	})
}

func awaitMatch(page browser.Page, kind browser.EventKind, match func(browser.NetworkEvent) bool) *NetworkWait {
	w := &NetworkWait{ch: make(chan browser.NetworkEvent, 1)}
	remove := page.Listen(kind, func(ev browser.NetworkEvent) {
		if w.fired.Load() || !match(ev) {
			return
		}
		if !w.fired.CompareAndSwap(false, true) {
			return
		}
		w.ch <- ev
		w.Cancel()
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancelled {
		remove()
	} else {
		w.remove = remove
	}
	return w
}

// Wait 阻塞直到匹配事件到达或ctx结束
func (w *NetworkWait) Wait(ctx context.Context) (browser.NetworkEvent, error) {
	select {
	case ev := <-w.ch:
		return ev, nil
	case <-ctx.Done():
		w.Cancel()
		return browser.NetworkEvent{}, ctx.Err()
	}
}

// Cancel 注销监听,可重复调用
func (w *NetworkWait) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelled = true
	if w.remove != nil {
		w.remove()
		w.remove = nil
	}
}

// exchangeWait 等待同一次网络交换的请求与响应
// 响应必须与匹配到的请求有相同的RequestID,之前交换遗留的响应不算数
type exchangeWait struct {
	req  *NetworkWait
	resp *NetworkWait

	mu        sync.Mutex
	known     bool
	requestID string
	// 请求被确认之前到达的响应,按RequestID暂存
	// rod按监听分别投递事件,响应可能先于请求被观察到
	early map[string]browser.NetworkEvent
}

func awaitExchange(page browser.Page, urlSubstring string) *exchangeWait {
	x := &exchangeWait{early: map[string]browser.NetworkEvent{}}
	x.req = AwaitNetworkEvent(page, browser.EventRequest, urlSubstring)
	x.resp = awaitMatch(page, browser.EventResponse, func(ev browser.NetworkEvent) bool {
		x.mu.Lock()
		defer x.mu.Unlock()
		if x.known {
			return ev.RequestID == x.requestID
		}
		if strings.Contains(ev.URL, urlSubstring) {
			x.early[ev.RequestID] = ev
		}
		return false
	})
	return x
}

// Wait 先等待请求,再等待同一RequestID的响应
func (x *exchangeWait) Wait(ctx context.Context) (browser.NetworkEvent, error) {
	reqEv, err := x.req.Wait(ctx)
	if err != nil {
		return browser.NetworkEvent{}, fmt.Errorf("request: %w", err)
	}

	x.mu.Lock()
	x.known = true
	x.requestID = reqEv.RequestID
	early, ok := x.early[reqEv.RequestID]
	x.early = nil
	x.mu.Unlock()
	if ok {
		x.resp.Cancel()
		return early, nil
	}

	respEv, err := x.resp.Wait(ctx)
	if err != nil {
		return browser.NetworkEvent{}, fmt.Errorf("response to %s: %w", reqEv.RequestID, err)
	}
	return respEv, nil
}

func (x *exchangeWait) Cancel() {
	x.req.Cancel()
	x.resp.Cancel()
}

// bracket 先注册对同一次交换的等待,再执行action,最后等待该交换的响应
// 用来确认action触发的结果集已在服务端重新计算完毕
func bracket(ctx context.Context, page browser.Page, urlSubstring string, timeout time.Duration, action func(context.Context) error) error {
	x := awaitExchange(page, urlSubstring)
	defer x.Cancel()

	if err := action(ctx); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := x.Wait(waitCtx); err != nil {
		return fmt.Errorf("等待 %s 的网络事件: %w", urlSubstring, err)
	}
	return nil
}
