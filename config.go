package lambdakit

import (
	"io/ioutil"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Options controls a build and the sessions that run it.
// 設定ファイルはYAML。CLIのフラグが上書きする。
type Options struct {
	// Strict rejects references to unbound names instead of treating them
	// as implicit binding sites.
	Strict bool `yaml:"strict"`
	// MaxSteps bounds Session.Run. Zero means no bound.
	MaxSteps int `yaml:"max_steps"`
	// Trace records every executed step in the session's TraceLog.
	Trace bool `yaml:"trace"`
	// CacheSize is the capacity of the CLI's program cache.
	CacheSize int `yaml:"cache_size"`
}

// DefaultOptions returns the options used when no file is given.
func DefaultOptions() Options {
	return Options{MaxSteps: 1000000, CacheSize: 16}
}

// ParseOptions decodes YAML over the defaults. Unknown keys are an error.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.UnmarshalStrict(data, &opts); err != nil {
		return Options{}, errors.Wrap(err, "decoding options")
	}
	if opts.MaxSteps < 0 {
		return Options{}, errors.Errorf("max_steps must not be negative, got %d", opts.MaxSteps)
	}
	if opts.CacheSize < 0 {
		return Options{}, errors.Errorf("cache_size must not be negative, got %d", opts.CacheSize)
	}
	return opts, nil
}

// LoadOptions reads an options file.
func LoadOptions(path string) (Options, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "reading options from %s", path)
	}
	opts, err := ParseOptions(data)
	if err != nil {
		return Options{}, errors.Wrap(err, path)
	}
	return opts, nil
}
