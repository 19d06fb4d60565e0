package stock

import (
	"context"
	"regexp"

	"trendlens-backend/internal/components/transport"
)

// Locator finds the text holding a result count on a loaded page. Locators of a source are
// tried in order and the first that matches wins, so a source keeps working while one of
// its markups is being rolled out.
type Locator interface {
	Name() string
	// Locate returns false when nothing on the page matched. An error means the page itself
	// could not be queried.
	Locate(ctx context.Context, page transport.Page) (string, bool, error)
}

var digitRegex = regexp.MustCompile(`\d`)

type selectorLocator struct {
	name     string
	selector string
}

// Selector matches the first element under `selector` whose text contains a digit.
func Selector(name, selector string) Locator {
	return selectorLocator{name: name, selector: selector}
}

func (l selectorLocator) Name() string {
	return l.name
}

func (l selectorLocator) Locate(ctx context.Context, page transport.Page) (string, bool, error) {
	texts, err := page.Find(ctx, l.selector)
	if err != nil {
		return "", false, err
	}
	for _, text := range texts {
		if digitRegex.MatchString(text) {
			return text, true, nil
		}
	}
	return "", false, nil
}

type patternLocator struct {
	name     string
	selector string
	pattern  *regexp.Regexp
}

// SelectorPattern matches the first element under `selector` whose text matches `pattern`,
// yielding the pattern's first capture group (or the whole match when it has none).
func SelectorPattern(name, selector string, pattern *regexp.Regexp) Locator {
	return patternLocator{name: name, selector: selector, pattern: pattern}
}

// TextPattern searches the text of the whole document body.
func TextPattern(name string, pattern *regexp.Regexp) Locator {
	return patternLocator{name: name, selector: "body", pattern: pattern}
}

func (l patternLocator) Name() string {
	return l.name
}

func (l patternLocator) Locate(ctx context.Context, page transport.Page) (string, bool, error) {
	texts, err := page.Find(ctx, l.selector)
	if err != nil {
		return "", false, err
	}
	for _, text := range texts {
		groups := l.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		if len(groups) > 1 {
			return groups[1], true, nil
		}
		return groups[0], true, nil
	}
	return "", false, nil
}

// locate runs locators in order, returning the name of the one that matched.
func locate(ctx context.Context, page transport.Page, locators []Locator) (text, name string, err error) {
	for _, l := range locators {
		text, ok, err := l.Locate(ctx, page)
		if err != nil {
			return "", l.Name(), err
		}
		if ok {
			return text, l.Name(), nil
		}
	}
	return "", "", nil
}
