package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/PuerkitoBio/goquery"
)

var digitsRe = regexp.MustCompile(`\d+`)

// ExtractRecords 从结果容器的HTML中按DOM顺序为每张卡片生成一条记录
// 卡片内缺失的子元素只会让对应字段为空,不会丢弃记录
func ExtractRecords(html string, sel config.Selectors) ([]entity.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	cards := doc.Find(sel.JobCard)
	records := make([]entity.Record, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		records = append(records, extractRecord(card, sel))
	})
	return records, nil
}

func extractRecord(card *goquery.Selection, sel config.Selectors) entity.Record {
	company := card.Find(sel.Company).First()
	return entity.Record{
		Title:          textOf(card.Find(sel.JobTitle).First()),
		Organization:   textOf(company),
		OrganizationID: organizationID(card, company, sel.CompanyLink),
		PostedAt:       postedAt(card.Find(sel.PostedTime).First()),
	}
}

func textOf(s *goquery.Selection) *string {
	if s.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return nil
	}
	return &text
}

// organizationID 取公司链接地址中的第一串数字
// 公司名元素本身是链接时直接使用它的href
func organizationID(card, company *goquery.Selection, linkSel string) *int64 {
	href, ok := company.Attr("href")
	if !ok {
		href, ok = card.Find(linkSel).First().Attr("href")
	}
	if !ok {
		return nil
	}
	digits := digitsRe.FindString(href)
	if digits == "" {
		return nil
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// postedAt 由datetime属性与可读文本组成, 形如 "2024-05-01: 2 days ago"
func postedAt(t *goquery.Selection) *string {
	if t.Length() == 0 {
		return nil
	}
	datetime := strings.TrimSpace(t.AttrOr("datetime", ""))
	text := strings.TrimSpace(t.Text())
	var out string
	switch {
	case datetime != "" && text != "":
		out = datetime + ": " + text
	case datetime != "":
		out = datetime
	case text != "":
		out = text
	default:
		return nil
	}
	return &out
}
