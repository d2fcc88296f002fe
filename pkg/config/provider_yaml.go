package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{}
	if err := yaml.Unmarshal(cfgFile, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML config: %w", err)
	}

	y.config = config
	return config, nil
}

// GetDevices returns device configurations
func (y *YAMLProvider) GetDevices() ([]DeviceData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Devices, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
