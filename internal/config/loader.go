package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapSource tells where a map was found.
type MapSource string

const (
	SourceCustom   MapSource = "custom"
	SourceUser     MapSource = "user"
	SourceLocal    MapSource = "local"
	SourceEmbedded MapSource = "embedded"
)

// MapInfo describes a map available to load.
type MapInfo struct {
	ID     string
	Title  string
	Source MapSource
	Path   string // Empty for embedded maps
}

// ParseMap decodes a map file. Unknown keys are rejected.
func ParseMap(data []byte) (MapFile, error) {
	var m MapFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return MapFile{}, err
	}
	return m, nil
}

// LoadMap loads a stage map.
// Search order: customPath -> ~/.stagemap/maps/<id>.yaml -> ./maps/<id>.yaml -> embedded default
func LoadMap(id, customPath string) (MapFile, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return MapFile{}, fmt.Errorf("config: failed to read map %s: %w", customPath, err)
		}
		m, err := ParseMap(data)
		if err != nil {
			return MapFile{}, fmt.Errorf("config: failed to parse map %s: %w", customPath, err)
		}
		return m, nil
	}

	if id == "" {
		id = DefaultMapID
	}
	filename := id + ".yaml"

	// Try user map directory
	if p := userMapPath(filename); p != "" {
		if data, err := os.ReadFile(p); err == nil {
			if m, err := ParseMap(data); err == nil {
				return m, nil
			}
		}
	}

	// Try local maps directory
	if data, err := os.ReadFile(filepath.Join("maps", filename)); err == nil {
		if m, err := ParseMap(data); err == nil {
			return m, nil
		}
	}

	// Use embedded map
	data, ok := embeddedMap(id)
	if !ok {
		return MapFile{}, fmt.Errorf("config: unknown map %q", id)
	}
	m, err := ParseMap(data)
	if err != nil {
		return MapFile{}, fmt.Errorf("config: embedded map %q is invalid: %w", id, err)
	}
	return m, nil
}

// ListMaps returns every loadable map. A map found in several places is
// listed once, from the location LoadMap would use.
func ListMaps() []MapInfo {
	found := make(map[string]MapInfo)

	for _, id := range EmbeddedMapIDs() {
		data, _ := embeddedMap(id)
		info := MapInfo{ID: id, Source: SourceEmbedded}
		if m, err := ParseMap(data); err == nil {
			info.Title = m.Title
		}
		found[id] = info
	}
	scanMapDir(filepath.Join("maps"), SourceLocal, found)
	if p := userMapPath(""); p != "" {
		scanMapDir(p, SourceUser, found)
	}

	out := make([]MapInfo, 0, len(found))
	for _, info := range found {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// scanMapDir adds the maps in dir, replacing entries of lower precedence.
func scanMapDir(dir string, source MapSource, found map[string]MapInfo) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		m, err := ParseMap(data)
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(name, ".yaml")
		found[id] = MapInfo{ID: id, Title: m.Title, Source: source, Path: p}
	}
}

// userMapPath returns the path to a user map file, or empty if home is unavailable.
func userMapPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".stagemap", "maps", filename)
}
