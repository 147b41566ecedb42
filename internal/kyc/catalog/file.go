package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"talentkyc/internal/kyc/models"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/platform/strings"
)

type fileGroup struct {
	ID            string   `json:"id"`
	DocumentTypes []string `json:"document_types"`
	Mode          string   `json:"mode"`
	Optional      bool     `json:"optional"`
}

type fileCatalog struct {
	Version      string                 `json:"version"`
	Purposes     map[string][]fileGroup `json:"purposes"`
	ValidityDays map[string]int         `json:"validity_days"`
}

// LoadFile reads a catalog version from a JSON file. Type names are trimmed,
// lower-cased and de-duplicated within a group.
func LoadFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a JSON catalog document.
func Parse(raw []byte) (Catalog, error) {
	var fc fileCatalog
	if err := json.Unmarshal(raw, &fc); err != nil {
		return Catalog{}, dErrors.Wrap(err, dErrors.CodeValidation, "malformed catalog document")
	}

	c := Catalog{
		Version:  fc.Version,
		Purposes: make(map[models.Purpose][]models.RequirementGroup, len(fc.Purposes)),
		Validity: make(map[models.DocumentType]time.Duration, len(fc.ValidityDays)),
	}
	for purpose, groups := range fc.Purposes {
		out := make([]models.RequirementGroup, 0, len(groups))
		for _, g := range groups {
			types := strings.DedupeAndTrimLower(g.DocumentTypes)
			docTypes := make([]models.DocumentType, len(types))
			for i, t := range types {
				docTypes[i] = models.DocumentType(t)
			}
			out = append(out, models.RequirementGroup{
				ID:            g.ID,
				DocumentTypes: docTypes,
				Mode:          models.RequirementMode(g.Mode),
				Optional:      g.Optional,
			})
		}
		c.Purposes[models.Purpose(purpose)] = out
	}
	for t, days := range fc.ValidityDays {
		c.Validity[models.DocumentType(t)] = time.Duration(days) * 24 * time.Hour
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}
