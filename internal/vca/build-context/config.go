// internal/vca/build-context/config.go
package buildcontext

type Config struct {
	// ExpandJobs fetches the jobs listing when the repair order carries none.
	ExpandJobs bool
}

func LoadConfig() *Config {
	return &Config{}
}
