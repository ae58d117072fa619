package connector

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// MapConfig is an in-memory ConfigProvider. Section and key names are
// matched case-insensitively.
type MapConfig map[string]map[string]string

// Section implements ConfigProvider
func (m MapConfig) Section(name string) (map[string]string, error) {
	out := map[string]string{}
	for sectionName, section := range m {
		if !strings.EqualFold(sectionName, name) {
			continue
		}
		for k, v := range section {
			out[strings.ToLower(k)] = v
		}
	}
	return out, nil
}

// EnvConfig reads sections from environment variables named SECTION_KEY,
// so key server of section Database is DATABASE_SERVER.
type EnvConfig struct {
	vars map[string]string
}

// NewEnvConfig over an explicit variable set.
func NewEnvConfig(vars map[string]string) *EnvConfig {
	return &EnvConfig{vars: vars}
}

// LoadEnvConfig takes the process environment and fills in the variables
// the dotenv files define. As with godotenv.Load, the environment wins.
func LoadEnvConfig(files ...string) (*EnvConfig, error) {
	vars := map[string]string{}
	if len(files) > 0 {
		fileVars, err := godotenv.Read(files...)
		if err != nil {
			return nil, newError(ErrConfiguration, "load env", "", err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		vars[k] = v
	}
	return NewEnvConfig(vars), nil
}

// Section implements ConfigProvider
func (e *EnvConfig) Section(name string) (map[string]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty section name", ErrConfiguration)
	}
	prefix := strings.ToUpper(name) + "_"
	out := map[string]string{}
	for k, v := range e.vars {
		if len(k) > len(prefix) && strings.EqualFold(k[:len(prefix)], prefix) {
			out[strings.ToLower(k[len(prefix):])] = v
		}
	}
	return out, nil
}
