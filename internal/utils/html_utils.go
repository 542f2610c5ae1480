package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstImageSrc 返回 HTML 片段中第一张 http(s) 图片的地址
func FirstImageSrc(htmlStr string) string {
	if htmlStr == "" || !strings.Contains(htmlStr, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var src string
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		v, ok := s.Attr("src")
		if ok && (strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")) {
			src = v
			return false
		}
		return true
	})
	return src
}
