package config

import (
	"os"
	"path/filepath"
)

// GetConfigPath returns $BMP_CONFIG when set, otherwise ~/.bmpbridge/config.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv("BMP_CONFIG"); configPath != "" {
		return configPath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".bmpbridge", "config"), nil
}
