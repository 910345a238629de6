package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/edgar"
	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
)

// registryEntry is one tracked entity in TOML format.
// Format:
//
//	[[entity]]
//	cik = "1067983"
//	name = "Berkshire Hathaway"
//	policy = "full-history"
type registryEntry struct {
	CIK    string `toml:"cik"`
	Name   string `toml:"name"`
	Policy string `toml:"policy"`
}

type registryFile struct {
	Entities []registryEntry `toml:"entity"`
}

// LoadRegistryFromFile seeds the entity registry from a TOML file. Entries
// already in the registry are updated in place, preserving their collection
// state (creation time and last filing date survive a reload). Malformed
// entries are skipped with a warning; a missing file is not an error.
func LoadRegistryFromFile(ctx context.Context, registry interfaces.RegistryStorage, filePath string, logger arbor.ILogger) error {
	logger.Debug().Str("file", filePath).Msg("Loading entity registry from file")

	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("file", filePath).Msg("Registry file does not exist, skipping")
			return nil
		}
		return fmt.Errorf("failed to read registry file: %w", err)
	}

	var file registryFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return fmt.Errorf("failed to parse registry file: %w", err)
	}

	loadedCount := 0
	skippedCount := 0

	for _, entry := range file.Entities {
		cik, err := edgar.NormalizeCIK(entry.CIK)
		if err != nil {
			logger.Warn().
				Str("cik", entry.CIK).
				Str("name", entry.Name).
				Err(err).
				Msg("Skipping registry entry: invalid CIK")
			skippedCount++
			continue
		}

		policy := models.HistoryPolicy(entry.Policy)
		if !policy.Valid() {
			logger.Warn().
				Str("cik", cik).
				Str("policy", entry.Policy).
				Msg("Skipping registry entry: unknown policy, valid policies are: latest-only, full-history, skip")
			skippedCount++
			continue
		}

		entity := &models.TrackedEntity{
			CIK:    cik,
			Name:   entry.Name,
			Policy: policy,
		}

		existing, err := registry.GetEntity(ctx, cik)
		if err != nil && !errors.Is(err, interfaces.ErrEntityNotFound) {
			return fmt.Errorf("failed to check existing entity %s: %w", cik, err)
		}
		if existing != nil {
			entity.CreatedAt = existing.CreatedAt
			entity.LastFilingDate = existing.LastFilingDate
		}

		if err := registry.SaveEntity(ctx, entity); err != nil {
			logger.Warn().Str("cik", cik).Err(err).Msg("Failed to save registry entry")
			skippedCount++
			continue
		}
		loadedCount++
	}

	logger.Info().
		Int("loaded", loadedCount).
		Int("skipped", skippedCount).
		Msg("Finished loading entity registry")
	return nil
}
