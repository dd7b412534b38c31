package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
	"github.com/stretchr/testify/require"
)

type fakeListener struct {
	kind browser.EventKind
	fn   func(browser.NetworkEvent)
}

// fakePage 内存中的页面,按选择器是否存在模拟DOM,按结果页切换容器HTML
type fakePage struct {
	mu sync.Mutex

	sel       config.Selectors
	updateURL string

	present     map[string]bool
	resultPages []string
	current     int
	// hasNext 决定第page页(从0开始)的"当前页"按钮后面是否还有按钮
	hasNext      func(page int) bool
	paginationOn func(page int) bool

	listeners map[int]fakeListener
	nextID    int
	exchanges int
	// blockNavigate 中的地址导航时一直等到ctx结束,模拟load事件不触发
	blockNavigate map[string]bool

	navigations []string
	typed       map[string]string
	clicks      []string
	scrolls     []int
	screenshots []string
	userAgent   string
	evals       int
}

func newFakePage(t *testing.T, cfg *config.Config, resultPages ...string) *fakePage {
	t.Helper()
	fp := &fakePage{
		sel:           cfg.Selectors,
		updateURL:     cfg.Site.UpdateEventURL,
		resultPages:   resultPages,
		hasNext:       func(int) bool { return false },
		paginationOn:  func(int) bool { return false },
		listeners:     map[int]fakeListener{},
		typed:         map[string]string{},
		present:       map[string]bool{},
		blockNavigate: map[string]bool{},
	}
	s := cfg.Selectors
	for _, sel := range []string{
		s.SearchTitleInput, s.SearchLocationInput, s.SearchSubmit,
		s.DatePostedButton, s.ApplyButton, s.JobsContainer, s.JobCard,
		s.CurrentPageBtn,
	} {
		fp.present[sel] = true
	}
	for _, sel := range s.RecencyOptions {
		fp.present[sel] = true
	}
	return fp
}

func (fp *fakePage) setPresent(sel string, ok bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.present[sel] = ok
}

func (fp *fakePage) isPresent(sel string) bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if sel == fp.sel.Pagination {
		return fp.paginationOn(fp.current)
	}
	return fp.present[sel]
}

func (fp *fakePage) emit(kind browser.EventKind, url string) {
	fp.emitEvent(browser.NetworkEvent{Kind: kind, URL: url})
}

// emitEvent 在锁外调用监听,一次性监听会在回调里注销自己
func (fp *fakePage) emitEvent(ev browser.NetworkEvent) {
	fp.mu.Lock()
	var fns []func(browser.NetworkEvent)
	for _, l := range fp.listeners {
		if l.kind == ev.Kind {
			fns = append(fns, l.fn)
		}
	}
	fp.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// emitUpdate 模拟一次结果列表接口的完整交换
func (fp *fakePage) emitUpdate() {
	fp.mu.Lock()
	fp.exchanges++
	id := fmt.Sprintf("req-%d", fp.exchanges)
	fp.mu.Unlock()
	url := "https://www.linkedin.com/voyager/api/" + fp.updateURL + "?start=25"
	fp.emitEvent(browser.NetworkEvent{Kind: browser.EventRequest, RequestID: id, URL: url})
	fp.emitEvent(browser.NetworkEvent{Kind: browser.EventResponse, RequestID: id, URL: url, Status: 200})
}

func (fp *fakePage) listenerCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.listeners)
}

func (fp *fakePage) Navigate(ctx context.Context, url string) error {
	fp.mu.Lock()
	fp.navigations = append(fp.navigations, url)
	block := fp.blockNavigate[url]
	fp.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (fp *fakePage) Has(_ context.Context, selector string) (bool, error) {
	return fp.isPresent(selector), nil
}

func (fp *fakePage) WaitVisible(_ context.Context, selector string) error {
	if !fp.isPresent(selector) {
		return notFoundErr(selector)
	}
	return nil
}

func (fp *fakePage) Click(_ context.Context, selector string) error {
	if !fp.isPresent(selector) {
		return notFoundErr(selector)
	}
	fp.mu.Lock()
	fp.clicks = append(fp.clicks, selector)
	fp.mu.Unlock()
	if selector == fp.sel.ApplyButton {
		fp.emitUpdate()
	}
	return nil
}

func (fp *fakePage) ClickAndWaitNavigation(ctx context.Context, selector string) error {
	return fp.Click(ctx, selector)
}

func (fp *fakePage) Type(_ context.Context, selector, text string) error {
	if !fp.isPresent(selector) {
		return notFoundErr(selector)
	}
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.typed[selector] = text
	return nil
}

func (fp *fakePage) Eval(_ context.Context, js string, out any) error {
	fp.mu.Lock()
	fp.evals++
	page := fp.current
	containerOK := fp.present[fp.sel.JobsContainer]
	currentOK := fp.present[fp.sel.CurrentPageBtn]
	fp.mu.Unlock()

	var result any
	switch {
	case strings.Contains(js, "hasNext"):
		result = pageProbe{Found: currentOK, HasNext: currentOK && fp.hasNext(page)}
	case strings.Contains(js, "btn.click()"):
		if !currentOK || !fp.hasNext(page) {
			result = false
			break
		}
		fp.mu.Lock()
		fp.current++
		fp.mu.Unlock()
		fp.emitUpdate()
		result = true
	case strings.Contains(js, "scrollTo"):
		var i int
		for _, line := range strings.Split(js, "\n") {
			if _, err := fmt.Sscanf(strings.TrimSpace(line), "const i = %d;", &i); err == nil {
				break
			}
		}
		fp.mu.Lock()
		fp.scrolls = append(fp.scrolls, i)
		fp.mu.Unlock()
		result = containerOK
	case strings.Contains(js, "querySelectorAll"):
		if !containerOK {
			result = -1
			break
		}
		recs, err := ExtractRecords(fp.pageHTML(page), fp.sel)
		if err != nil {
			return err
		}
		result = len(recs)
	default:
		return fmt.Errorf("unexpected script: %s", js)
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (fp *fakePage) pageHTML(page int) string {
	if page < len(fp.resultPages) {
		return fp.resultPages[page]
	}
	return `<div class="jobs-search-results--is-two-pane"></div>`
}

func (fp *fakePage) OuterHTML(_ context.Context, selector string) (string, error) {
	if !fp.isPresent(selector) {
		return "", notFoundErr(selector)
	}
	fp.mu.Lock()
	page := fp.current
	fp.mu.Unlock()
	return fp.pageHTML(page), nil
}

func (fp *fakePage) Listen(kind browser.EventKind, fn func(browser.NetworkEvent)) func() {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	id := fp.nextID
	fp.nextID++
	fp.listeners[id] = fakeListener{kind: kind, fn: fn}
	return func() {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		delete(fp.listeners, id)
	}
}

func (fp *fakePage) Screenshot(_ context.Context, path string) error {
	fp.mu.Lock()
	fp.screenshots = append(fp.screenshots, path)
	fp.mu.Unlock()
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (fp *fakePage) SetUserAgent(_ context.Context, userAgent string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.userAgent = userAgent
	return nil
}

func (fp *fakePage) Close() error {
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Credentials = config.Credentials{Login: "user@example.com", Password: "secret"}
	cfg.Timing.ScrollPauseMillis = 0
	cfg.Timing.SettleTimeoutSeconds = 2
	cfg.Timing.StepTimeoutSeconds = 2
	cfg.Output.SnapshotDir = t.TempDir()
	return cfg
}

func testLogger() *logger.Logger {
	return logger.Discard()
}

// cardHTML 生成一张卡片, withLink为false时公司名不是链接
func cardHTML(page, i int, withLink bool) string {
	company := fmt.Sprintf(`<a class="job-card-container__company-name" href="https://www.linkedin.com/company/%d%02d/life/">Company %d-%d</a>`, page+1, i, page, i)
	if !withLink {
		company = fmt.Sprintf(`<span class="job-card-container__company-name">Company %d-%d</span>`, page, i)
	}
	return fmt.Sprintf(`<li>
  <div class="job-card-container">
    <a class="job-card-list__title" href="/jobs/view/%d%02d"> React Developer %d-%d </a>
    %s
    <time datetime="2024-05-0%d">%d days ago</time>
  </div>
</li>`, page, i, page, i, company, 1+i%9, i)
}

func resultsHTML(cards ...string) string {
	return `<div class="jobs-search-results--is-two-pane"><ul>` + strings.Join(cards, "\n") + `</ul></div>`
}

func fullPage(page, n int) string {
	cards := make([]string, 0, n)
	for i := range n {
		cards = append(cards, cardHTML(page, i, true))
	}
	return resultsHTML(cards...)
}
