package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType is the expected type of a configuration value.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeDuration OptionType = "duration"
)

// ConfigOption declares a single configuration option.
type ConfigOption struct {
	// Key is the option name as it appears in the config file.
	Key         string
	Type        OptionType
	Default     string
	Description string
	// Section is "" for global options, or a command section name.
	Section string
	// EnvVar overrides the file value when set, or "".
	EnvVar string
}

// ConfigSchema declares the known options. It drives validation, typed
// resolution, env var mapping and the "config schema" help output.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds opt; a later registration of the same key replaces it.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := &opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the option for key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown reports whether key may appear in section. Global keys are valid
// in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	return s.Lookup(section, key) != nil || s.byKey[key] != nil
}

// SectionOptions returns the options of one section, in registration order.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted non-global section names.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value of a global key: env var, then config
// file, then schema default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.GetGlobalOption(key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveDuration resolves key and parses it as a duration. Unparseable
// values fall back to the schema default.
func (s *ConfigSchema) ResolveDuration(c *Config, key string) time.Duration {
	if d, err := time.ParseDuration(s.Resolve(c, key)); err == nil {
		return d
	}
	if opt := s.Lookup("", key); opt != nil {
		d, _ := time.ParseDuration(opt.Default)
		return d
	}
	return 0
}

// ResolveInt resolves key and parses it as an int, with the same fallback
// rule as ResolveDuration.
func (s *ConfigSchema) ResolveInt(c *Config, key string) int {
	if i, err := strconv.Atoi(s.Resolve(c, key)); err == nil {
		return i
	}
	if opt := s.Lookup("", key); opt != nil {
		i, _ := strconv.Atoi(opt.Default)
		return i
	}
	return 0
}

// ValidateConfig returns sorted, human-readable issues: unknown options and
// type mismatches.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
		if d < 0 {
			return fmt.Errorf("expected non-negative duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// FormatHelp renders every option, global first, then per section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder
	if globals := s.SectionOptions(""); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}
	for _, sec := range s.Sections() {
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range s.SectionOptions(sec) {
			writeOptionHelp(&b, o)
		}
	}
	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-28s %s", o.Key, o.Description)
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, "type: "+string(o.Type))
	}
	if o.Default != "" {
		parts = append(parts, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		parts = append(parts, "env: "+o.EnvVar)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// Option keys.
const (
	KeyDRMTimeout           = "drm.timeout"
	KeyNetworkTimeout       = "network.timeout"
	KeyDecoderTimeout       = "decoder.timeout"
	KeyAdaptationTimeout    = "adaptation.timeout"
	KeyFullscreenTimeout    = "fullscreen.timeout"
	KeyCustomMessageTimeout = "custom-message.timeout"
	KeySyncTimeout          = "runtime.sync-timeout"
	KeyLogLevel             = "log.level"
	KeyLogFile              = "log.file"
	KeyLogBufferSize        = "log.buffer-size"
	KeySimulatorTick        = "simulator.tick"
	KeyMetricsAddr          = "metrics.addr"
)

// DefaultSchema returns the schema of every option the bridge understands.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: KeyDRMTimeout, Type: TypeDuration, Default: "5s", Description: "Wait for a JS answer to a DRM hook", EnvVar: "BMP_DRM_TIMEOUT"},
		{Key: KeyNetworkTimeout, Type: TypeDuration, Default: "5s", Description: "Wait for a JS answer to a network preprocessing hook", EnvVar: "BMP_NETWORK_TIMEOUT"},
		{Key: KeyDecoderTimeout, Type: TypeDuration, Default: "1s", Description: "Wait for a JS decoder priority answer", EnvVar: "BMP_DECODER_TIMEOUT"},
		{Key: KeyAdaptationTimeout, Type: TypeDuration, Default: "1s", Description: "Wait for a JS video adaptation answer", EnvVar: "BMP_ADAPTATION_TIMEOUT"},
		{Key: KeyFullscreenTimeout, Type: TypeDuration, Default: "250ms", Description: "Wait for a JS fullscreen handler answer", EnvVar: "BMP_FULLSCREEN_TIMEOUT"},
		{Key: KeyCustomMessageTimeout, Type: TypeDuration, Default: "250ms", Description: "Wait for a JS synchronous custom message answer", EnvVar: "BMP_CUSTOM_MESSAGE_TIMEOUT"},
		{Key: KeySyncTimeout, Type: TypeDuration, Default: "5s", Description: "Maximum wait for synchronous work on the JS loop"},
		{Key: KeyLogLevel, Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "BMP_LOG_LEVEL"},
		{Key: KeyLogFile, Type: TypeString, Description: "Mirror logs to this file as JSON lines", EnvVar: "BMP_LOG_FILE"},
		{Key: KeyLogBufferSize, Type: TypeInt, Default: "1000", Description: "In-memory log buffer size (entries)"},
		{Key: KeySimulatorTick, Type: TypeDuration, Default: "100ms", Description: "Simulated player time-changed cadence"},
		{Key: KeyMetricsAddr, Type: TypeString, Description: "Serve Prometheus metrics on this address", EnvVar: "BMP_METRICS_ADDR"},

		{Key: "timeout", Section: "run", Type: TypeDuration, Default: "30s", Description: "Abort a script that has not settled after this long"},
	})
	return s
}

// Timeouts are the per-feature round trip bounds.
type Timeouts struct {
	DRM           time.Duration
	Network       time.Duration
	Decoder       time.Duration
	Adaptation    time.Duration
	Fullscreen    time.Duration
	CustomMessage time.Duration
}

// DefaultTimeouts returns the schema defaults.
func DefaultTimeouts() Timeouts {
	return ResolveTimeouts(nil)
}

// ResolveTimeouts resolves every round trip bound from c (which may be nil),
// the environment and the schema defaults.
func ResolveTimeouts(c *Config) Timeouts {
	s := DefaultSchema()
	return Timeouts{
		DRM:           s.ResolveDuration(c, KeyDRMTimeout),
		Network:       s.ResolveDuration(c, KeyNetworkTimeout),
		Decoder:       s.ResolveDuration(c, KeyDecoderTimeout),
		Adaptation:    s.ResolveDuration(c, KeyAdaptationTimeout),
		Fullscreen:    s.ResolveDuration(c, KeyFullscreenTimeout),
		CustomMessage: s.ResolveDuration(c, KeyCustomMessageTimeout),
	}
}
