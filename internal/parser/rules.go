package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/NewsHound/internal/config"
)

// Page is a parsed document that extraction rules run against. The CSS
// and XPath trees are built lazily and at most once.
type Page struct {
	URL  string
	Body []byte

	doc     *goquery.Document
	node    *html.Node
	jsonld  []map[string]any
	ldReady bool
}

// NewPage wraps raw markup for rule evaluation.
func NewPage(pageURL string, body []byte) *Page {
	return &Page{URL: pageURL, Body: body}
}

// Document returns the goquery document for CSS rules.
func (p *Page) Document() (*goquery.Document, error) {
	if p.doc == nil {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(p.Body)))
		if err != nil {
			return nil, err
		}
		p.doc = doc
	}
	return p.doc, nil
}

// Node returns the x/net/html tree for XPath rules.
func (p *Page) Node() (*html.Node, error) {
	if p.node == nil {
		node, err := html.Parse(strings.NewReader(string(p.Body)))
		if err != nil {
			return nil, err
		}
		p.node = node
	}
	return p.node, nil
}

// RuleEvaluator applies config.ParseRule values to a Page.
type RuleEvaluator struct {
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// NewRuleEvaluator creates a RuleEvaluator.
func NewRuleEvaluator(logger *slog.Logger) *RuleEvaluator {
	return &RuleEvaluator{
		logger: logger.With("component", "rule_evaluator"),
		cache:  make(map[string]*regexp.Regexp),
	}
}

// Values returns every non-empty value rule yields on page, in document
// order. An invalid rule yields nothing and is logged.
func (e *RuleEvaluator) Values(page *Page, rule config.ParseRule) []string {
	var (
		values []string
		err    error
	)
	switch rule.Type {
	case "", "css":
		values, err = e.css(page, rule)
	case "xpath":
		values, err = e.xpath(page, rule)
	case "meta":
		values, err = e.meta(page, rule)
	case "jsonld":
		values, err = e.jsonLD(page, rule)
	case "regex":
		values, err = e.regex(page, rule)
	default:
		err = fmt.Errorf("unsupported rule type %q", rule.Type)
	}
	if err != nil {
		e.logger.Warn("rule failed", "rule", rule.Name, "url", page.URL, "error", err)
		return nil
	}
	return values
}

// css applies a CSS selector. Attribute "" or "text" takes the trimmed
// text, "html" the inner HTML, anything else names an attribute.
func (e *RuleEvaluator) css(page *Page, rule config.ParseRule) ([]string, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	var values []string
	doc.Find(rule.Selector).Each(func(i int, sel *goquery.Selection) {
		var val string
		switch rule.Attribute {
		case "", "text":
			val = strings.TrimSpace(sel.Text())
		case "html", "innerHTML":
			val, _ = sel.Html()
		default:
			val, _ = sel.Attr(rule.Attribute)
		}
		if val = strings.TrimSpace(val); val != "" {
			values = append(values, val)
		}
	})
	return values, nil
}

// xpath applies an XPath expression with htmlquery.
func (e *RuleEvaluator) xpath(page *Page, rule config.ParseRule) ([]string, error) {
	doc, err := page.Node()
	if err != nil {
		return nil, err
	}

	nodes, err := htmlquery.QueryAll(doc, rule.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", rule.Selector, err)
	}

	var values []string
	for _, node := range nodes {
		var val string
		switch rule.Attribute {
		case "", "text":
			val = htmlquery.InnerText(node)
		case "html", "innerHTML":
			val = htmlquery.OutputHTML(node, false)
		default:
			val = htmlquery.SelectAttr(node, rule.Attribute)
		}
		if val = strings.TrimSpace(val); val != "" {
			values = append(values, val)
		}
	}
	return values, nil
}

// meta reads <meta> content by property or name.
func (e *RuleEvaluator) meta(page *Page, rule config.ParseRule) ([]string, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	var values []string
	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		prop, _ := sel.Attr("property")
		name, _ := sel.Attr("name")
		itemprop, _ := sel.Attr("itemprop")
		if !strings.EqualFold(prop, rule.Selector) &&
			!strings.EqualFold(name, rule.Selector) &&
			!strings.EqualFold(itemprop, rule.Selector) {
			return
		}
		if content := strings.TrimSpace(sel.AttrOr("content", "")); content != "" {
			values = append(values, content)
		}
	})
	return values, nil
}

// jsonLD reads a dotted key path (e.g. "author.name") from every JSON-LD
// object on the page, descending into arrays and @graph lists.
func (e *RuleEvaluator) jsonLD(page *Page, rule config.ParseRule) ([]string, error) {
	objects, err := page.jsonLDObjects()
	if err != nil {
		return nil, err
	}
	path := strings.Split(rule.Selector, ".")

	var values []string
	for _, obj := range objects {
		values = append(values, lookupPath(obj, path)...)
	}
	return values, nil
}

func (p *Page) jsonLDObjects() ([]map[string]any, error) {
	if p.ldReady {
		return p.jsonld, nil
	}
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		p.jsonld = append(p.jsonld, flattenJSONLD(data)...)
	})
	p.ldReady = true
	return p.jsonld, nil
}

func flattenJSONLD(data any) []map[string]any {
	switch v := data.(type) {
	case map[string]any:
		out := []map[string]any{v}
		if graph, ok := v["@graph"]; ok {
			out = append(out, flattenJSONLD(graph)...)
		}
		return out
	case []any:
		var out []map[string]any
		for _, el := range v {
			out = append(out, flattenJSONLD(el)...)
		}
		return out
	}
	return nil
}

func lookupPath(v any, path []string) []string {
	if len(path) == 0 {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return []string{s}
			}
		case []any:
			var out []string
			for _, el := range t {
				out = append(out, lookupPath(el, nil)...)
			}
			return out
		}
		return nil
	}

	switch t := v.(type) {
	case map[string]any:
		return lookupPath(t[path[0]], path[1:])
	case []any:
		var out []string
		for _, el := range t {
			out = append(out, lookupPath(el, path)...)
		}
		return out
	}
	return nil
}

// regex applies a pattern to the visible text of the page. The first
// capture group is returned when present, the whole match otherwise.
func (e *RuleEvaluator) regex(page *Page, rule config.ParseRule) ([]string, error) {
	re, err := e.compile(rule.Pattern)
	if err != nil {
		return nil, err
	}
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	text := doc.Find("body").Text()
	var values []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		val := m[0]
		if len(m) > 1 {
			val = m[1]
		}
		if val = strings.TrimSpace(val); val != "" {
			values = append(values, val)
		}
	}
	return values, nil
}

func (e *RuleEvaluator) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if re, ok := e.cache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	e.cache[pattern] = re
	return re, nil
}
