// Package config resolves the engine's global configuration: the
// environment variables and config-file keys named in spec.md §6. It is a
// producer-thread-only concern — never touched from the mixer.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Env variable names consumed at first use (spec.md §6).
const (
	EnvLogLevel        = "ALSOFT_LOGLEVEL"
	EnvLogFile         = "ALSOFT_LOGFILE"
	EnvDrivers         = "ALSOFT_DRIVERS"
	EnvTrapALError     = "ALSOFT_TRAP_AL_ERROR"
	EnvTrapALCError    = "ALSOFT_TRAP_ALC_ERROR"
	EnvDefaultReverb   = "ALSOFT_DEFAULT_REVERB"
	EnvDisableCPUExts  = "ALSOFT_DISABLE_CPU_EXTS"
	EnvSuspendBehavior = "ALSOFT_SUSPEND_BEHAVIOR"
)

// Global holds the resolved, priority-collapsed configuration used by
// spec.md §4.F step 3 (non-loopback configuration overrides).
type Global struct {
	Drivers        []string
	Frequency      int
	Periods        int
	PeriodSize     int
	Sources        int
	Slots          int
	Sends          int
	HRTF           string
	Dither         bool
	DitherDepth    int
	OutputLimiter  string // "true", "false", "" (don't-care)
	VolumeAdjustDB float64
	ReverbBoost    float64
	ExcludeFX      []string
	DefaultReverb  string
	Channels       string
	SampleType     string
	AmbiFormat     string // "fuma", "acn+sn3d", "acn+n3d"
	TrapALError    bool
	TrapALCError   bool
	RTPriority     bool
}

// Load reads the global config file (if present) plus environment
// variables, using viper the way the wider ecosystem does it, and
// collapses both into a Global. Missing keys keep their zero value, which
// callers treat as unset; an explicit zero reads the same. Only "dither"
// tells an absent key apart from an explicit false (see below).
func Load(configPaths ...string) (*Global, error) {
	v := viper.New()
	v.SetConfigName("alsoft")
	v.SetConfigType("ini")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("ALSOFT")
	v.AutomaticEnv()

	// A missing config file is not an error: spec.md's config keys are all
	// optional, defaulting per §4.F.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// alc.cpp:1961 defaults dithering on (GetConfigValueBool(..., "dither", 1))
	// unless the key is explicitly set; viper's GetBool alone can't tell
	// "absent" from "explicitly false", so IsSet gates the override.
	dither := true
	if v.IsSet("dither") {
		dither = v.GetBool("dither")
	}

	g := &Global{
		Drivers:        splitNonEmpty(v.GetString("drivers")),
		Frequency:      v.GetInt("frequency"),
		Periods:        v.GetInt("periods"),
		PeriodSize:     v.GetInt("period_size"),
		Sources:        v.GetInt("sources"),
		Slots:          v.GetInt("slots"),
		Sends:          v.GetInt("sends"),
		HRTF:           v.GetString("hrtf"),
		Dither:         dither,
		DitherDepth:    v.GetInt("dither-depth"),
		OutputLimiter:  v.GetString("output-limiter"),
		VolumeAdjustDB: v.GetFloat64("volume-adjust"),
		ReverbBoost:    v.GetFloat64("reverb.boost"),
		ExcludeFX:      splitNonEmpty(v.GetString("excludefx")),
		DefaultReverb:  v.GetString("default-reverb"),
		Channels:       v.GetString("channels"),
		SampleType:     v.GetString("sample-type"),
		AmbiFormat:     v.GetString("ambi-format"),
		TrapALError:    v.GetBool("trap-al-error"),
		TrapALCError:   v.GetBool("trap-alc-error"),
		RTPriority:     v.GetBool("rt-prio"),
	}

	if drivers := os.Getenv(EnvDrivers); drivers != "" {
		g.Drivers = ApplyDriverOverride(g.Drivers, drivers)
	}
	if v := os.Getenv(EnvTrapALError); v != "" {
		g.TrapALError, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv(EnvTrapALCError); v != "" {
		g.TrapALCError, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv(EnvDefaultReverb); v != "" {
		g.DefaultReverb = v
	}

	return g, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyDriverOverride reorders/deletes backend table entries per spec.md
// §4.C: a "-name" prefix removes an entry, and a trailing comma means "do
// not truncate the tail"; otherwise entries not named are dropped.
func ApplyDriverOverride(defaultOrder []string, spec string) []string {
	truncateTail := !strings.HasSuffix(strings.TrimSpace(spec), ",")
	tokens := splitNonEmpty(spec)

	remove := make(map[string]bool)
	var wanted []string
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "-") {
			remove[strings.TrimPrefix(tok, "-")] = true
			continue
		}
		wanted = append(wanted, tok)
	}

	seen := make(map[string]bool, len(wanted))
	ordered := make([]string, 0, len(wanted))
	for _, name := range wanted {
		if remove[name] || seen[name] {
			continue
		}
		seen[name] = true
		ordered = append(ordered, name)
	}

	if !truncateTail {
		for _, name := range defaultOrder {
			if remove[name] || seen[name] {
				continue
			}
			seen[name] = true
			ordered = append(ordered, name)
		}
	}

	return ordered
}

// DeviceOverride is the per-device configuration fragment layered between
// the attribute list and the global config in spec.md §4.F step 3's
// priority chain.
type DeviceOverride struct {
	Frequency     int    `yaml:"frequency"`
	Periods       int    `yaml:"periods"`
	PeriodSize    int    `yaml:"period_size"`
	Sends         int    `yaml:"sends"`
	OutputLimiter string `yaml:"output-limiter"`
}

// LoadDeviceOverride parses a small per-device YAML fragment. A missing
// file yields a zero-value override (nothing to apply), not an error.
func LoadDeviceOverride(path string) (*DeviceOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &DeviceOverride{}, nil
		}
		return nil, err
	}
	var out DeviceOverride
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
