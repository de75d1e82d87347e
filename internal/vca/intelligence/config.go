// internal/vca/intelligence/config.go
package intelligence

import "time"

type Config struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int

	// IncludeRelatedRecords adds the vehicle and customer records to the
	// prompt. Off by default so customer details stay with the shop.
	IncludeRelatedRecords bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     60 * time.Second,
		Temperature: 0.2,
		MaxTokens:   1500,
	}
}
