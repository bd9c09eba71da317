package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. Keys absent
// from the file keep their defaults.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return parseYAML(cfgFile)
}

func parseYAML(data []byte) (*ConfigData, error) {
	config := Defaults()
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsReadOnly returns true since YAML files are treated as read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
