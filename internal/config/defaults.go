package config

import (
	"embed"
	"path"
	"sort"
	"strings"
)

// DefaultMapID is loaded when no map is named.
const DefaultMapID = "meadow"

//go:embed defaults/*.yaml
var defaultMaps embed.FS

// embeddedMap returns the bundled YAML for a map id.
func embeddedMap(id string) ([]byte, bool) {
	data, err := defaultMaps.ReadFile(path.Join("defaults", id+".yaml"))
	if err != nil {
		return nil, false
	}
	return data, true
}

// EmbeddedMapIDs lists the maps bundled with the binary, sorted.
func EmbeddedMapIDs() []string {
	entries, err := defaultMaps.ReadDir("defaults")
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if name := e.Name(); strings.HasSuffix(name, ".yaml") {
			ids = append(ids, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(ids)
	return ids
}
