package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitNetworkEvent_FirstMatchOnly(t *testing.T) {
	cfg := testConfig(t)
	fp := newFakePage(t, cfg)

	w := AwaitNetworkEvent(fp, browser.EventResponse, "voyagerJobsDashJobCards")
	require.Equal(t, 1, fp.listenerCount())

	fp.emit(browser.EventResponse, "https://www.linkedin.com/voyager/api/other")
	fp.emit(browser.EventRequest, "https://www.linkedin.com/voyager/api/voyagerJobsDashJobCards?q=1")
	fp.emit(browser.EventResponse, "https://www.linkedin.com/voyager/api/voyagerJobsDashJobCards?start=0")
	// 第一次匹配后监听已注销
	assert.Equal(t, 0, fp.listenerCount())
	fp.emit(browser.EventResponse, "https://www.linkedin.com/voyager/api/voyagerJobsDashJobCards?start=25")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := w.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, browser.EventResponse, ev.Kind)
	assert.Contains(t, ev.URL, "start=0")
}

func TestAwaitNetworkEvent_EventBeforeWait(t *testing.T) {
	cfg := testConfig(t)
	fp := newFakePage(t, cfg)

	// 注册之后、Wait之前到达的事件不会丢失
	w := AwaitNetworkEvent(fp, browser.EventRequest, "jobs")
	fp.emit(browser.EventRequest, "https://example.com/jobs")

	ev, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jobs", ev.URL)
}

func TestAwaitNetworkEvent_Timeout(t *testing.T) {
	cfg := testConfig(t)
	fp := newFakePage(t, cfg)

	w := AwaitNetworkEvent(fp, browser.EventResponse, "never")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := w.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, fp.listenerCount())
}

func TestNetworkWait_CancelIdempotent(t *testing.T) {
	cfg := testConfig(t)
	fp := newFakePage(t, cfg)

	w := AwaitNetworkEvent(fp, browser.EventResponse, "x")
	w.Cancel()
	w.Cancel()
	assert.Equal(t, 0, fp.listenerCount())

	fp.emit(browser.EventResponse, "x")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := w.Wait(ctx)
	assert.Error(t, err)
}

func TestBracket(t *testing.T) {
	cfg := testConfig(t)

	t.Run("both events observed", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, time.Second, func(context.Context) error {
			fp.emitUpdate()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, fp.listenerCount())
	})

	t.Run("only request observed", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, 20*time.Millisecond, func(context.Context) error {
			fp.emit(browser.EventRequest, "https://x/"+cfg.Site.UpdateEventURL)
			return nil
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, 0, fp.listenerCount())
	})

	t.Run("stale response from an earlier exchange", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		url := "https://www.linkedin.com/voyager/api/" + cfg.Site.UpdateEventURL
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, 50*time.Millisecond, func(context.Context) error {
			// 搜索提交遗留的响应先到达,随后只有本次筛选的请求
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: "submit", URL: url + "?origin=submit"})
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventRequest, RequestID: "apply", URL: url + "?origin=apply"})
			return nil
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, 0, fp.listenerCount())
	})

	t.Run("own response after a stale one", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		url := "https://www.linkedin.com/voyager/api/" + cfg.Site.UpdateEventURL
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, time.Second, func(context.Context) error {
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: "submit", URL: url})
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventRequest, RequestID: "apply", URL: url})
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: "apply", URL: url})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, fp.listenerCount())
	})

	t.Run("response observed before its request", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		url := "https://www.linkedin.com/voyager/api/" + cfg.Site.UpdateEventURL
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, time.Second, func(context.Context) error {
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: "apply", URL: url})
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventRequest, RequestID: "apply", URL: url})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, fp.listenerCount())
	})

	t.Run("response arrives after the wait starts", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		url := "https://www.linkedin.com/voyager/api/" + cfg.Site.UpdateEventURL
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, time.Second, func(context.Context) error {
			fp.emitEvent(browser.NetworkEvent{Kind: browser.EventRequest, RequestID: "apply", URL: url})
			go func() {
				time.Sleep(20 * time.Millisecond)
				fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: "other", URL: url})
				fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: "apply", URL: url})
			}()
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("action error", func(t *testing.T) {
		fp := newFakePage(t, cfg)
		boom := errors.New("boom")
		err := bracket(context.Background(), fp, cfg.Site.UpdateEventURL, time.Second, func(context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, fp.listenerCount())
	})
}
