package ingest

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mena-signal/server/app/database"
)

type sourcesFile struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Enabled  *bool  `yaml:"enabled"`
}

// SyncSources loads the YAML source catalog and registers any sources not
// yet present in the database. Existing sources (matched by URL) are left
// untouched so runtime enable/disable changes survive restarts. Returns the
// number of newly registered sources.
func SyncSources(path string, repo database.SourceRepository) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Warn("Source catalog not found, skipping sync", "path", path)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read source catalog: %w", err)
	}

	var catalog sourcesFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return 0, fmt.Errorf("failed to parse source catalog: %w", err)
	}

	added := 0
	for i, entry := range catalog.Sources {
		if entry.URL == "" || entry.Name == "" {
			return added, fmt.Errorf("source at index %d: name and url are required", i)
		}

		existing, err := repo.GetSourceByURL(entry.URL)
		if err != nil {
			return added, fmt.Errorf("failed to check source %q: %w", entry.Name, err)
		}
		if existing != nil {
			continue
		}

		source := database.Source{
			Name:     entry.Name,
			Type:     database.SourceType(entry.Type),
			URL:      entry.URL,
			Category: entry.Category,
			Enabled:  entry.Enabled == nil || *entry.Enabled,
		}
		if source.Type == "" {
			source.Type = database.SourceTypeRSS
		}

		if err := repo.CreateSource(&source); err != nil {
			return added, fmt.Errorf("failed to register source %q: %w", entry.Name, err)
		}

		slog.Info("Registered source", "name", source.Name, "id", source.ID, "url", source.URL)
		added++
	}

	return added, nil
}
