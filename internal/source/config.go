package source

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/glamapp/product-recs/internal/extract"
	"github.com/glamapp/product-recs/pkg/serpapi"
	"github.com/glamapp/product-recs/pkg/tavily"
)

// DefaultOrder is the priority order used when no config file is given.
// Marketplace engines come first because their results are structured;
// the LLM-backed web search is the fallback of last resort.
var DefaultOrder = []string{"amazon", "google_shopping", "ebay", "walmart", "websearch"}

// Config is the fetcher priority configuration.
type Config struct {
	Order []string `yaml:"order"`
}

// LoadConfig reads the fetcher priority order from a YAML file. An empty
// path yields the default order.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{Order: DefaultOrder}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read config %s", path)
	}

	// The YAML has a top-level "sources" key.
	var wrapper struct {
		Sources Config `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "source: parse config")
	}

	cfg := &wrapper.Sources
	if len(cfg.Order) == 0 {
		cfg.Order = DefaultOrder
	}
	return cfg, nil
}

// Build instantiates fetchers in the configured order. Unknown names are
// an error so typos in config fail fast rather than silently dropping a
// source.
func Build(cfg *Config, serp serpapi.Client, search tavily.Client, extractor *extract.Extractor) ([]Fetcher, error) {
	fetchers := make([]Fetcher, 0, len(cfg.Order))
	for _, name := range cfg.Order {
		switch name {
		case "amazon":
			fetchers = append(fetchers, NewAmazonFetcher(serp))
		case "google_shopping":
			fetchers = append(fetchers, NewShoppingFetcher(serp))
		case "ebay":
			fetchers = append(fetchers, NewEbayFetcher(serp))
		case "walmart":
			fetchers = append(fetchers, NewWalmartFetcher(serp))
		case "websearch":
			fetchers = append(fetchers, NewWebSearchFetcher(search, extractor))
		default:
			return nil, eris.Errorf("source: unknown fetcher %q in config", name)
		}
	}
	return fetchers, nil
}
