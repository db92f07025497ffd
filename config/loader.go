package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding and resolving config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for a service.
// Returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.firstExisting(configSearchPaths(serviceName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.firstExisting(envSearchPaths(serviceName))
	}
	return resolved
}

func (cr *Resolver) firstExisting(paths []string) string {
	for _, p := range paths {
		if cr.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func configSearchPaths(serviceName string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../../cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
}

func envSearchPaths(serviceName string) []string {
	var paths []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		paths = append(paths,
			fmt.Sprintf("./cmd/%s/%s", serviceName, name),
			fmt.Sprintf("../cmd/%s/%s", serviceName, name),
			"./"+name,
			"../"+name,
		)
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	EnvPrefix  string // Prefix of bound environment variables (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// Defaulter is implemented by configs that fill zero values after loading.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by configs that check themselves after loading.
type Validator interface {
	Validate() error
}

// LoadConfig loads configuration for a service into the provided cfg struct.
//
// Sources, lowest precedence first: config.yml, config.<environment>.yml next
// to it, the .env file, then environment variables named
// <PREFIX>_<SECTION>_<KEY> where PREFIX defaults to the upper-cased service
// name (LICENSE_SERVICE_DATABASE_DSN sets database.dsn). When cfg implements
// Defaulter and Validator they run after unmarshalling.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.EnvPrefix == "" {
		lc.EnvPrefix = EnvPrefix(serviceName)
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	if err := loadFromResolvedFiles(serviceName, cfg, files, lc); err != nil {
		return err
	}

	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config for service %s: %w", serviceName, err)
		}
	}
	return nil
}

// EnvPrefix derives the environment variable prefix for a service name.
func EnvPrefix(serviceName string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(serviceName))
}

func loadFromResolvedFiles(serviceName string, cfg interface{}, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", files.ConfigFile, err)
		}
		if overlay := environmentOverlay(files.ConfigFile, v.GetString("environment")); overlay != "" && lc.FileSystem.Exists(overlay) {
			v.SetConfigFile(overlay)
			if err := v.MergeInConfig(); err != nil {
				return fmt.Errorf("failed to merge config file %s: %w", overlay, err)
			}
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", files.EnvFile, err)
		}
	}
	bindEnvVars(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// environmentOverlay returns config.<env>.yml beside base, or "".
func environmentOverlay(base, environment string) string {
	if environment == "" {
		return ""
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + environment + ext
}

// bindEnvVars overrides the keys already known to v with PREFIX_ variables.
func bindEnvVars(v *viper.Viper, prefix string, environ []string) {
	p := prefix + "_"
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, p) {
			continue
		}
		name := strings.TrimPrefix(key, p)
		variants := envKeyVariants(name)
		matched := false
		for _, variant := range variants {
			if v.IsSet(variant) {
				v.Set(variant, value)
				matched = true
			}
		}
		if !matched {
			// Keys absent from the config files nest at every underscore.
			v.Set(strings.ToLower(strings.ReplaceAll(name, "_", ".")), value)
		}
	}
}

// envKeyVariants creates the nested key candidates for an environment key.
//
//	RESILIENCE_DEFAULT_RETRY_MAX_ATTEMPTS -> [resilience_default_retry_max_attempts,
//	    resilience.default_retry_max_attempts, resilience.default.retry_max_attempts, ...]
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	seen := make(map[string]bool)
	var variants []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			variants = append(variants, s)
		}
	}

	add(lowerKey)
	add(strings.Join(parts, "."))
	// Every split of parts into dotted sections, keeping underscores inside a section.
	var walk func(prefix []string, rest []string)
	walk = func(prefix []string, rest []string) {
		if len(rest) == 0 {
			add(strings.Join(prefix, "."))
			return
		}
		for i := 1; i <= len(rest); i++ {
			walk(append(append([]string{}, prefix...), strings.Join(rest[:i], "_")), rest[i:])
		}
	}
	if len(parts) <= 8 {
		walk(nil, parts)
	}
	return variants
}
