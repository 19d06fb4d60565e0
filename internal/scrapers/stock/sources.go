package stock

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"trendlens-backend/internal/components/transport"
)

type SourceID string

const (
	Shutterstock  SourceID = "shutterstock"
	AdobeStock    SourceID = "adobestock"
	Depositphotos SourceID = "depositphotos"
)

const (
	ShutterstockBaseUrl  = "https://www.shutterstock.com"
	AdobeStockBaseUrl    = "https://stock.adobe.com"
	DepositphotosBaseUrl = "https://depositphotos.com"
)

// Definition describes how a marketplace is searched and where its result count lives.
type Definition struct {
	ID          SourceID
	Description string
	Transport   transport.Kind
	SearchUrl   func(keyword string) string
	Locators    []Locator
}

// joinPath escapes each word of the keyword and joins them with `sep`.
func joinPath(keyword, sep string) string {
	words := strings.Fields(keyword)
	for i, w := range words {
		words[i] = url.PathEscape(w)
	}
	return strings.Join(words, sep)
}

func ShutterstockSource(baseUrl string) Definition {
	baseUrl = strings.TrimRight(baseUrl, "/")
	return Definition{
		ID:          Shutterstock,
		Description: "Shutterstock image search, static html",
		Transport:   transport.KindHTML,
		SearchUrl: func(keyword string) string {
			return fmt.Sprintf("%s/search/%s", baseUrl, joinPath(keyword, "+"))
		},
		Locators: []Locator{
			Selector("mui-typography", `span[class^="MuiTypography-root MuiTypography-body1"]`),
			Selector("image-paragraph", `p[class*="image" i]`),
		},
	}
}

var adobeCountRegex = regexp.MustCompile(`(?i)([\d.,]+)\s*(results|Ergebnisse)`)

func AdobeStockSource(baseUrl string) Definition {
	baseUrl = strings.TrimRight(baseUrl, "/")
	return Definition{
		ID:          AdobeStock,
		Description: "Adobe Stock search, rendered in a headless browser",
		Transport:   transport.KindBrowser,
		SearchUrl: func(keyword string) string {
			return fmt.Sprintf("%s/search?k=%s", baseUrl, url.QueryEscape(strings.TrimSpace(keyword)))
		},
		Locators: []Locator{
			Selector("results-count-attr", `[data-t="search-results-count"]`),
			Selector("results-count-class", `.search-results-count`),
			TextPattern("results-text", adobeCountRegex),
		},
	}
}

var depositCountRegex = regexp.MustCompile(`(?i)([\d.,]+)\s*(royalty-free\s+)?(images|photos|results)`)

func DepositphotosSource(baseUrl string) Definition {
	baseUrl = strings.TrimRight(baseUrl, "/")
	return Definition{
		ID:          Depositphotos,
		Description: "Depositphotos photo search, static html",
		Transport:   transport.KindHTML,
		SearchUrl: func(keyword string) string {
			return fmt.Sprintf("%s/photos/%s.html", baseUrl, joinPath(strings.ToLower(keyword), "-"))
		},
		Locators: []Locator{
			Selector("results-count-attr", `[data-qa="search-results-count"]`),
			SelectorPattern("heading-sibling", `h1 + span`, depositCountRegex),
			TextPattern("results-text", depositCountRegex),
		},
	}
}

// BaseUrls overrides the base url of built-in sources, keyed by source id.
type BaseUrls map[SourceID]string

func (b BaseUrls) get(id SourceID, fallback string) string {
	if u, ok := b[id]; ok && u != "" {
		return u
	}
	return fallback
}

// DefaultSources returns the built-in marketplaces.
func DefaultSources(overrides BaseUrls) []Definition {
	return []Definition{
		ShutterstockSource(overrides.get(Shutterstock, ShutterstockBaseUrl)),
		AdobeStockSource(overrides.get(AdobeStock, AdobeStockBaseUrl)),
		DepositphotosSource(overrides.get(Depositphotos, DepositphotosBaseUrl)),
	}
}
