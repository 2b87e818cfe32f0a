package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Catalog.Driver == "" {
		cfg.Catalog.Driver = "memory"
	}
	if cfg.Catalog.Driver == "sqlite" && cfg.Catalog.SQLitePath == "" {
		cfg.Catalog.SQLitePath = "/usr/local/var/nexsearch/data/catalog.db"
	}
	if cfg.Catalog.Driver == "bleve" && cfg.Catalog.BlevePath == "" {
		cfg.Catalog.BlevePath = "/usr/local/var/nexsearch/data/indices/bleve"
	}

	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 50
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 1000
	}
	if cfg.Search.TypoThreshold == 0 {
		cfg.Search.TypoThreshold = 60
	}
	if cfg.Search.MaxTypoWordLength == 0 {
		cfg.Search.MaxTypoWordLength = 64
	}
	if cfg.Search.TitleSampleSize == 0 {
		cfg.Search.TitleSampleSize = 500
	}
	if cfg.Search.PairLimit == 0 {
		cfg.Search.PairLimit = 20
	}
	if cfg.Search.RelatedLimit == 0 {
		cfg.Search.RelatedLimit = 3
	}
	if cfg.Search.CategoryTopN == 0 {
		cfg.Search.CategoryTopN = 10
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 30 * time.Second
	}

	cfg.Ranking.ApplyDefaults()

	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "none"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 1000
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
