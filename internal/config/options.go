// Package config holds the launcher's persisted settings and its
// command line and environment options.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by multijdk,
// e.g. MULTIJDK_PICKER or MULTIJDK_LOG_FORMAT
const EnvPrefix = "MULTIJDK"

// Option keys, also the names of the flags they bind to
const (
	KeyPicker     = "picker"
	KeyLogFormat  = "log-format"
	KeyLogFile    = "log-file"
	KeySettings   = "settings"
	KeyGrace      = "grace"
	KeyUpdateRepo = "update-repo"
)

// DefaultUpdateRepo is the GitHub slug releases are fetched from
const DefaultUpdateRepo = "multijdk/multijdk"

// Options are the launcher options that may come from flags or environment
type Options struct {
	Picker       string
	LogFormat    string
	LogFile      string
	SettingsFile string
	Grace        time.Duration
	UpdateRepo   string
}

// NewViper returns a viper instance reading MULTIJDK_* variables with
// defaults for every option
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyPicker, "auto")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeySettings, "")
	v.SetDefault(KeyGrace, 2*time.Second)
	v.SetDefault(KeyUpdateRepo, DefaultUpdateRepo)
	return v
}

// BindFlags binds every option key that has a flag in flags. A flag set on
// the command line wins over the environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyPicker, KeyLogFormat, KeyLogFile, KeySettings, KeyGrace, KeyUpdateRepo} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding flag --%s", key)
		}
	}
	return nil
}

// ReadOptions resolves the options from v
func ReadOptions(v *viper.Viper) (Options, error) {
	opts := Options{
		Picker:       v.GetString(KeyPicker),
		LogFormat:    v.GetString(KeyLogFormat),
		LogFile:      v.GetString(KeyLogFile),
		SettingsFile: v.GetString(KeySettings),
		Grace:        v.GetDuration(KeyGrace),
		UpdateRepo:   v.GetString(KeyUpdateRepo),
	}
	if opts.Grace <= 0 {
		return Options{}, errors.Newf("grace period must be positive, got %q", v.GetString(KeyGrace))
	}
	if opts.SettingsFile == "" {
		opts.SettingsFile = DefaultPath()
	}
	return opts, nil
}
