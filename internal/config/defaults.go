package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "sqlite"
	}
	if cfg.Index.DatabasePath == "" {
		cfg.Index.DatabasePath = "/usr/local/var/grokiwiki/data/slugs.db"
	}
	if cfg.Index.BleveIndexPath == "" {
		cfg.Index.BleveIndexPath = "/usr/local/var/grokiwiki/data/slugs.bleve"
	}
	if cfg.Index.LinksDir == "" {
		cfg.Index.LinksDir = "/usr/local/var/grokiwiki/data/links"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 8
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 50
	}
	if cfg.Fetch.WikipediaAPIBase == "" {
		cfg.Fetch.WikipediaAPIBase = "https://en.wikipedia.org"
	}
	if cfg.Fetch.GrokipediaBase == "" {
		cfg.Fetch.GrokipediaBase = "https://grokipedia.com"
	}
	if cfg.Fetch.SitemapIndexURL == "" {
		cfg.Fetch.SitemapIndexURL = "https://grokipedia.com/sitemap.xml"
	}
	if cfg.Fetch.FirecrawlAPIURL == "" {
		cfg.Fetch.FirecrawlAPIURL = "https://api.firecrawl.dev/v1/scrape"
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "grokiwiki/1.0 (article comparator)"
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 30
	}
	if cfg.LLM.APIURL == "" {
		cfg.LLM.APIURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "x-ai/grok-4-fast"
	}
	if cfg.LLM.AppTitle == "" {
		cfg.LLM.AppTitle = "Article Comparator"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
}
