package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"clinicAgent/internal/staff"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxContainers = 500
	// nonContentSelectors не несут видимого текста страницы.
	nonContentSelectors = "script, style, noscript, template"
)

var spaceRe = regexp.MustCompile(`\s+`)

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// LinksFromHTML - исчерпывающий проход: все a[href] документа, включая скрытые меню.
func LinksFromHTML(html string) ([]staff.Candidate, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	var out []staff.Candidate
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		label := collapse(s.Text())
		if label == "" {
			label = attrOr(s, "aria-label", "title")
		}
		key := label + "|" + href
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, staff.Candidate{Label: label, Href: strings.TrimSpace(href)})
	})
	return out, nil
}

// SignalsFromHTML снимает с документа сигналы для staff.LooksLikeStaffListing.
func SignalsFromHTML(html string) (staff.PageSignals, error) {
	doc, err := parse(html)
	if err != nil {
		return staff.PageSignals{}, err
	}
	doc.Find(nonContentSelectors).Remove()

	var sig staff.PageSignals

	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			sig.Headings = append(sig.Headings, t)
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if t := attrOr(s, "alt", "title"); t != "" {
			sig.ImageTexts = append(sig.ImageTexts, t)
		}
	})

	doc.Find("section[class], section[id], div[class], div[id], ul[class], ul[id], article[class], article[id]").
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			cls, _ := s.Attr("class")
			id, _ := s.Attr("id")
			sig.Containers = append(sig.Containers, staff.Container{
				Name:       strings.TrimSpace(cls + " " + id),
				TextLength: len(collapse(s.Text())),
			})
			return len(sig.Containers) < maxContainers
		})

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	sig.BodyText = collapse(body.Text())

	return sig, nil
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func attrOr(s *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v, ok := s.Attr(n); ok {
			if v = collapse(v); v != "" {
				return v
			}
		}
	}
	return ""
}
