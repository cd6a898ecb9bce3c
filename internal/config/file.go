package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML settings file. Only tool and observability settings
// live here; actions always come from the command line.
//
//	tools:
//	  lsof: /usr/sbin/lsof
//	  ps: /bin/ps
//	  kill: /bin/kill
//	  timeout: 3s
//	log:
//	  format: json
//	  level: info
//	listen: 127.0.0.1:17092
type FileConfig struct {
	Tools struct {
		Lsof    string        `yaml:"lsof"`
		Ps      string        `yaml:"ps"`
		Kill    string        `yaml:"kill"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"tools"`
	Log struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"log"`
	Listen string `yaml:"listen"`
}

// LoadFile reads a settings file. Unknown keys are rejected.
func LoadFile(path string) (*FileConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var fc FileConfig
	if err := decoder.Decode(&fc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	return &fc, nil
}

// Apply copies every non-zero setting onto cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	setString(&cfg.LsofPath, fc.Tools.Lsof)
	setString(&cfg.PsPath, fc.Tools.Ps)
	setString(&cfg.KillPath, fc.Tools.Kill)
	if fc.Tools.Timeout != 0 {
		cfg.CommandTimeout = fc.Tools.Timeout
	}
	setString(&cfg.LogFormat, fc.Log.Format)
	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.ListenAddr, fc.Listen)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = os.ExpandEnv(v)
	}
}

// configArg finds the value of -config in args without parsing the rest,
// so the file can seed flag defaults.
func configArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
