package worker

import (
	"context"
	"filescanner/internal/config"
)

// ConfigFileSettings loads the rescan settings from the config file on every
// call, so edits to the file apply from the next scheduler cycle.
type ConfigFileSettings struct {
	Path string
}

// RescanSettings implements SettingsSource.
func (s ConfigFileSettings) RescanSettings(context.Context) (RescanSettings, error) {
	cfg, err := config.Load(s.Path)
	if err != nil {
		return RescanSettings{}, err //nolint: wrapcheck
	}

	return SettingsFromConfig(cfg), nil
}

// SettingsFromConfig extracts the rescan settings of cfg.
func SettingsFromConfig(cfg *config.Config) RescanSettings {
	interval, enabled := cfg.RescanInterval()

	return RescanSettings{
		Enabled:      enabled,
		Interval:     interval,
		HistoryLimit: cfg.Scanner.ScanHistoryLimit,
	}
}
