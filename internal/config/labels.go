package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ZoneLabels maps a zone id to a human readable name.
type ZoneLabels map[string]string

type zoneLabelsFile struct {
	Zones map[string]string `yaml:"zones"`
}

// LoadZoneLabels reads a YAML file of the form
//
//	zones:
//	  "1": Lobby
//	  "2": Server room
//
// An empty path returns an empty set of labels.
func LoadZoneLabels(path string) (ZoneLabels, error) {
	if path == "" {
		return ZoneLabels{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone labels: %w", err)
	}
	var f zoneLabelsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse zone labels %s: %w", path, err)
	}
	out := make(ZoneLabels, len(f.Zones))
	for id, label := range f.Zones {
		out[strings.TrimSpace(id)] = strings.TrimSpace(label)
	}
	return out, nil
}

// Label returns the display label for a zone, e.g. "3 (Lobby)", or the bare
// id when no label is configured.
func (l ZoneLabels) Label(zone string) string {
	if name, ok := l[zone]; ok && name != "" {
		return fmt.Sprintf("%s (%s)", zone, name)
	}
	return zone
}
