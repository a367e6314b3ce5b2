package config

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
)

// DefaultModelMapFile is looked up in the working directory unless
// MODEL_MAP_FILE overrides it.
const DefaultModelMapFile = "model-map.yml"

var (
	modelMapMu     sync.RWMutex
	modelMapCache  map[string]interface{}
	modelMapLoaded bool
)

// ModelMapFile returns the configured model-map path.
func ModelMapFile() string {
	if path := os.Getenv("MODEL_MAP_FILE"); path != "" {
		return path
	}
	return DefaultModelMapFile
}

// ResetModelMapCache discards the cached model map so the next resolution
// re-reads the file. Tests and the file watcher call this.
func ResetModelMapCache() {
	modelMapMu.Lock()
	modelMapCache = nil
	modelMapLoaded = false
	modelMapMu.Unlock()
}

// ResolveModel applies the model map to an incoming model name. Precedence:
// exact key, then the most specific matching wildcard pattern, then the
// catch-all "*". The returned extras are deep-merged into the outgoing
// request by the caller; plain string values carry no extras.
func ResolveModel(model string) (string, map[string]interface{}) {
	if model == "" {
		return model, nil
	}
	mapping := loadModelMap()
	if len(mapping) == 0 {
		return model, nil
	}

	if v, ok := mapping[model]; ok {
		return entryValue(model, v)
	}
	if pattern := bestWildcard(mapping, model); pattern != "" {
		return entryValue(model, mapping[pattern])
	}
	if v, ok := mapping["*"]; ok {
		return entryValue(model, v)
	}
	return model, nil
}

// bestWildcard returns the matching wildcard pattern with the highest
// specificity: (count of non-wildcard characters, pattern length), compared
// lexicographically. The bare catch-all is handled separately.
func bestWildcard(mapping map[string]interface{}, model string) string {
	patterns := make([]string, 0, len(mapping))
	for pattern := range mapping {
		if pattern == "*" || !strings.ContainsAny(pattern, "*?") {
			continue
		}
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	best := ""
	bestLiteral, bestLen := -1, -1
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			logrus.Warnf("model map: invalid pattern %q: %v", pattern, err)
			continue
		}
		if !g.Match(model) {
			continue
		}
		literal := len(pattern) - strings.Count(pattern, "*") - strings.Count(pattern, "?")
		if literal > bestLiteral || (literal == bestLiteral && len(pattern) > bestLen) {
			best = pattern
			bestLiteral, bestLen = literal, len(pattern)
		}
	}
	return best
}

// entryValue splits a map entry into (model, extras). String entries replace
// the model outright; object entries take the "model" key and treat the rest
// as request extras.
func entryValue(model string, v interface{}) (string, map[string]interface{}) {
	switch entry := v.(type) {
	case string:
		if entry != "" {
			return entry, nil
		}
	case map[string]interface{}:
		resolved := model
		if m, ok := entry["model"].(string); ok && m != "" {
			resolved = m
		}
		extras := make(map[string]interface{}, len(entry))
		for k, val := range entry {
			if k != "model" {
				extras[k] = val
			}
		}
		if len(extras) == 0 {
			extras = nil
		}
		return resolved, extras
	}
	return model, nil
}

func loadModelMap() map[string]interface{} {
	modelMapMu.RLock()
	if modelMapLoaded {
		cached := modelMapCache
		modelMapMu.RUnlock()
		return cached
	}
	modelMapMu.RUnlock()

	modelMapMu.Lock()
	defer modelMapMu.Unlock()
	if modelMapLoaded {
		return modelMapCache
	}
	modelMapCache = readModelMap(ModelMapFile())
	modelMapLoaded = true
	return modelMapCache
}

// readModelMap parses the YAML file, unwrapping the optional model_map /
// api_transformer_config.model_map nesting. A missing or malformed file
// resolves to an empty map.
func readModelMap(path string) map[string]interface{} {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("model map: read %s: %v", path, err)
		}
		return nil
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		logrus.Warnf("model map: parse %s: %v", path, err)
		return nil
	}
	if nested, ok := doc["api_transformer_config"].(map[string]interface{}); ok {
		if m, ok := nested["model_map"].(map[string]interface{}); ok {
			return m
		}
	}
	if m, ok := doc["model_map"].(map[string]interface{}); ok {
		return m
	}
	return doc
}
