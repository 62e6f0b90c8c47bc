package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional on-disk configuration loaded via
// --config, letting a deployment pin credentials and gateway mode
// once instead of repeating flags on every invocation.
type fileConfig struct {
	CertPath    string `yaml:"certPath"`
	KeyPath     string `yaml:"keyPath"`
	KeyPassword string `yaml:"keyPassword"`
	PKCS12Path  string `yaml:"pkcs12Path"`
	PKCS12Pass  string `yaml:"pkcs12Password"`
	Sandbox     bool   `yaml:"sandbox"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &fileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
