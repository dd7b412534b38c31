package scraper

import (
	"fmt"

	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
)

// 注入页面执行的脚本,均为单个表达式

// countCardsScript 容器内已渲染的卡片数,容器不存在时返回-1
func countCardsScript(container, card string) string {
	return fmt.Sprintf(`(() => {
	const div = document.querySelector(%s);
	if (!div) return -1;
	return div.querySelectorAll(%s).length;
})()`, browser.JSString(container), browser.JSString(card))
}

// scrollScript 把容器滚动到 scrollHeight/i, i为0时滚动到底部
func scrollScript(container string, i int) string {
	return fmt.Sprintf(`(() => {
	const div = document.querySelector(%s);
	if (!div) return false;
	const i = %d;
	div.scrollTo({
		top: i > 0 ? div.scrollHeight / i : div.scrollHeight,
		left: 0,
		behavior: 'smooth'
	});
	return true;
})()`, browser.JSString(container), i)
}

// pageProbeScript 定位"当前页"按钮,显式区分"未找到"与"没有下一页"
func pageProbeScript(current string) string {
	return fmt.Sprintf(`(() => {
	const cur = document.querySelector(%s);
	if (!cur) return {found: false, hasNext: false};
	return {found: true, hasNext: cur.nextElementSibling !== null};
})()`, browser.JSString(current))
}

// nextPageScript 点击"当前页"之后的兄弟按钮
func nextPageScript(current string) string {
	return fmt.Sprintf(`(() => {
	const cur = document.querySelector(%s);
	const next = cur ? cur.nextElementSibling : null;
	if (!next) return false;
	const btn = next.querySelector('button') || next.children[0] || next;
	btn.click();
	return true;
})()`, browser.JSString(current))
}
