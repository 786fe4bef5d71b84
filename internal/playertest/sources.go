package playertest

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// SourceConfig is a source as passed to Player.load from JS.
type SourceConfig struct {
	URL   string     `yaml:"url" json:"url"`
	Type  string     `yaml:"type" json:"type"`
	Title string     `yaml:"title,omitempty" json:"title,omitempty"`
	DRM   *DrmConfig `yaml:"drm,omitempty" json:"drmConfig,omitempty"`
}

// DrmConfig is the hook-free part of a DRM configuration.
type DrmConfig struct {
	Widevine *DrmSystem `yaml:"widevine,omitempty" json:"widevine,omitempty"`
	Fairplay *DrmSystem `yaml:"fairplay,omitempty" json:"fairplay,omitempty"`
}

type DrmSystem struct {
	LicenseURL     string `yaml:"licenseUrl" json:"licenseUrl"`
	CertificateURL string `yaml:"certificateUrl,omitempty" json:"certificateUrl,omitempty"`
}

type catalogue struct {
	Sources map[string]SourceConfig `yaml:"sources"`
}

//go:embed sources.yaml
var sourcesYAML []byte

var loadCatalogue = sync.OnceValues(func() (catalogue, error) {
	var c catalogue
	if err := yaml.Unmarshal(sourcesYAML, &c); err != nil {
		return c, fmt.Errorf("parsing sources.yaml: %w", err)
	}
	return c, nil
})

// Source returns the named source from the built-in catalogue.
func Source(name string) (SourceConfig, error) {
	c, err := loadCatalogue()
	if err != nil {
		return SourceConfig{}, err
	}
	s, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, fmt.Errorf("unknown source %q", name)
	}
	return s, nil
}

// SourceNames lists the catalogue, sorted.
func SourceNames() []string {
	c, err := loadCatalogue()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
