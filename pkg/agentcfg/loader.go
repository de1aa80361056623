package agentcfg

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config document from path, applies defaults, expands
// ${VAR} references against the environment (after optionally loading a
// .env file alongside it), and validates the result.
//
// This is intentionally the entire "config file parsing" story the core
// needs; a deployment's own file-watching, secret-vault integration, and
// CLI-flag overlay live in the host process, not here.
func Load(path string) (*Config, error) {
	if envPath := dotenvPath(path); envPath != "" {
		_ = godotenv.Load(envPath) // best-effort; absence is not an error
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agentcfg: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("agentcfg: parse %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agentcfg: %s: %w", path, err)
	}
	return &cfg, nil
}

func dotenvPath(configPath string) string {
	dir := "."
	if idx := lastSlash(configPath); idx >= 0 {
		dir = configPath[:idx]
	}
	candidate := dir + "/.env"
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
