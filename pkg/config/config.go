package config

import (
	"errors"
	"fmt"

	"github.com/macropower/autolabeler/api/v1beta1/labelconfigs"
)

// ErrConfiguration marks fatal configuration errors. Anything wrapped in it
// aborts the run before any target is touched.
var ErrConfiguration = errors.New("invalid configuration")

// LoadLabelConfig reads, validates, and decodes a label configuration file.
func LoadLabelConfig(path string) (*labelconfigs.Config, error) {
	loader, err := NewLoaderFromFile(path, labelconfigs.New, labelconfigs.DefaultValidator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	cfg, err := load(loader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, path, err)
	}

	return cfg, nil
}

// LoadLabelConfigFromBytes validates and decodes a label configuration
// document.
func LoadLabelConfigFromBytes(data []byte) (*labelconfigs.Config, error) {
	loader := NewLoaderFromBytes(data, labelconfigs.New, labelconfigs.DefaultValidator)

	cfg, err := load(loader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return cfg, nil
}

func load(loader *Loader[*labelconfigs.Config]) (*labelconfigs.Config, error) {
	err := loader.Validate()
	if err != nil {
		return nil, err
	}

	return loader.Load()
}
