package config

import (
	"github.com/goel7054/swagger-bot/internal/search"
	"github.com/goel7054/swagger-bot/internal/specdoc"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.RequestTimeoutSec == 0 {
		cfg.Server.RequestTimeoutSec = 30
	}
	if len(cfg.Specs.Paths) == 0 {
		cfg.Specs.Paths = []string{"./swagger.yaml"}
	}
	if cfg.Specs.Extensions == nil {
		cfg.Specs.Extensions = append([]string(nil), specdoc.DefaultExtensions...)
	}
	if cfg.Specs.ParseWorkers == 0 {
		cfg.Specs.ParseWorkers = specdoc.DefaultWorkers
	}
	if cfg.Search.Threshold == nil {
		th := search.DefaultThreshold
		cfg.Search.Threshold = &th
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = search.DefaultTopK
	}
	if cfg.Search.Weights.IsZero() {
		cfg.Search.Weights = search.DefaultFieldWeights()
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/swaggerbot/data/catalog.db"
	}
}
