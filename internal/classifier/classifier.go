
package classifier

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"trendcrawl/internal/parser"
)

// Page labels.
const (
	LabelProduct = "product"
	LabelNews    = "news"
	LabelBlog    = "blog"
	LabelOther   = "other"
)

type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// simple stopword list (english + portuguese, the two languages the trend sources publish in)
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "a": {}, "for": {}, "is": {}, "on": {}, "with": {}, "as": {},
	"by": {}, "at": {}, "from": {}, "that": {}, "this": {}, "it": {}, "an": {}, "be": {}, "or": {}, "are": {}, "was": {},
	"will": {}, "has": {}, "have": {}, "had": {}, "but": {}, "not": {}, "your": {}, "you": {}, "we": {}, "our": {},
	"que": {}, "com": {}, "para": {}, "uma": {}, "dos": {}, "das": {}, "por": {}, "mais": {}, "como": {}, "seu": {},
	"sua": {}, "nos": {}, "nas": {}, "não": {}, "são": {}, "foi": {},
}

var priceRe = regexp.MustCompile(`[$€£₹]\s?\d|r\$\s?\d`)
var cartRe = regexp.MustCompile(`(?i)add\s+to\s+cart|buy\s+now|checkout|comprar\s+agora`)
var articleRe = regexp.MustCompile(`(?i)author|byline|published|updated|minutes\s+read|subscribe`)

// Classify labels a parsed page as product, news, blog or other.
func (c *Classifier) Classify(d parser.Document) string {
	text := strings.ToLower(d.Text + " " + strings.Join(d.Headings, " "))
	ogType := strings.ToLower(d.OGType)

	if priceRe.MatchString(text) || cartRe.MatchString(text) || strings.Contains(ogType, "product") {
		return LabelProduct
	}
	if strings.Contains(ogType, "article") || articleRe.MatchString(text) {
		return LabelNews
	}
	if strings.Contains(text, "blog") || strings.Contains(strings.ToLower(d.Title), "blog") {
		return LabelBlog
	}
	return LabelOther
}

// TopTopics returns top N keywords by normalized frequency, ignoring stopwords and short tokens.
func (c *Classifier) TopTopics(text string, n int) []string {
	freq := map[string]int{}
	token := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) }
	words := strings.FieldsFunc(strings.ToLower(text), token)

	for _, w := range words {
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
	}

	type kv struct {
		K string
		V int
	}
	list := make([]kv, 0, len(freq))
	for k, v := range freq {
		list = append(list, kv{k, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].V == list[j].V {
			return list[i].K < list[j].K
		}
		return list[i].V > list[j].V
	})
	if n > len(list) {
		n = len(list)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, list[i].K)
	}
	return out
}
