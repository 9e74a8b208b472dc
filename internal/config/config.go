package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the maturity engine. Values come from
// environment variables prefixed with MATURITY_ (e.g. MATURITY_PORT), with
// sensible defaults for local development.
type Config struct {
	Port     string
	DataDir  string
	ModelDir string

	// Trainer settings
	TestFraction float64
	SplitSeed    int64
	NumTrees     int
	MaxDepth     int

	// Transport settings
	RateLimitPerMin int
	CacheTTL        time.Duration
	RequestTimeout  time.Duration

	// SeedDemo populates the database with synthetic survey results when the
	// record table is empty. Development only.
	SeedDemo bool
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("port", "8080")
	v.SetDefault("dataDir", "./data")
	v.SetDefault("modelDir", "./data/ml_models")
	v.SetDefault("testFraction", 0.2)
	v.SetDefault("splitSeed", 42)
	v.SetDefault("numTrees", 100)
	v.SetDefault("maxDepth", 10)
	v.SetDefault("rateLimitPerMin", 60)
	v.SetDefault("cacheTTL", 5*time.Minute)
	v.SetDefault("requestTimeout", 30*time.Second)
	v.SetDefault("seedDemo", false)

	v.SetEnvPrefix("MATURITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Port:            v.GetString("port"),
		DataDir:         v.GetString("dataDir"),
		ModelDir:        v.GetString("modelDir"),
		TestFraction:    v.GetFloat64("testFraction"),
		SplitSeed:       v.GetInt64("splitSeed"),
		NumTrees:        v.GetInt("numTrees"),
		MaxDepth:        v.GetInt("maxDepth"),
		RateLimitPerMin: v.GetInt("rateLimitPerMin"),
		CacheTTL:        v.GetDuration("cacheTTL"),
		RequestTimeout:  v.GetDuration("requestTimeout"),
		SeedDemo:        v.GetBool("seedDemo"),
	}
}
