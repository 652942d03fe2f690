// Package normalizer turns raw Medicina Legal records into the canonical
// death-record dataset.
package normalizer

import (
	"context"
	"fmt"
	"time"

	"deathmap/internal/config"
	"deathmap/internal/logger"
	"deathmap/internal/models"
	"deathmap/internal/validator"
)

// Loader resolves a configured source into raw records.
type Loader interface {
	Load(ctx context.Context, src config.SourceConfig) ([]models.RawRecord, error)
}

// Batch is one source's raw records with the category that governs them.
type Batch struct {
	Name string
	// Label names the batch in the artifact metadata. Empty means Name.
	Label    string
	Category Category
	Records  []models.RawRecord
}

func (b Batch) label() string {
	if b.Label == "" {
		return b.Name
	}

	return b.Label
}

// DatasetInfo carries the artifact-level descriptive fields.
type DatasetInfo struct {
	Source      string
	SourceURL   string
	Description string
	Year        int
}

// Processor handles data processing and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	checker     *validator.DatasetValidator
	log         *logger.Logger
	now         func() time.Time
}

// NewProcessor creates a new processor instance.
func NewProcessor(rng Rand, log *logger.Logger) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(rng),
		checker:     validator.NewDatasetValidator(),
		log:         log,
		now:         time.Now,
	}
}

// NewCategory builds the category for src: the built-in mechanism table for
// its type with src.Subtypes layered on top.
func NewCategory(src config.SourceConfig, year int) Category {
	subtypes := DefaultSubtypes(src.DeathType())
	for mechanism, subtype := range src.Subtypes {
		subtypes[mechanism] = models.Subtype(subtype)
	}

	prefix := src.IDPrefix
	if prefix == "" {
		prefix = DefaultPrefix(src.DeathType())
	}

	return Category{
		Type:     src.DeathType(),
		IDPrefix: prefix,
		Subtypes: subtypes,
		Year:     year,
	}
}

// Run loads every enabled source of cfg in order and processes them into one
// dataset. The first load error aborts the run.
func (p *Processor) Run(ctx context.Context, cfg *config.Config, loader Loader) (*models.Dataset, error) {
	sources := cfg.GetEnabledSources()
	batches := make([]Batch, 0, len(sources))

	for _, src := range sources {
		p.log.Info("loading source", "source", src.Name, "from", src.GetSource())

		raws, err := loader.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}

		batches = append(batches, Batch{
			Name:     src.Name,
			Label:    src.DatasetLabel(),
			Category: NewCategory(src, cfg.SourceYear(src)),
			Records:  raws,
		})
	}

	info := DatasetInfo{
		Source:      cfg.Dataset.Source,
		SourceURL:   cfg.Dataset.SourceURL,
		Description: cfg.Dataset.Description,
		Year:        cfg.Dataset.Year,
	}

	return p.Process(info, batches)
}

// Process normalizes batches in order and merges them into one dataset.
// Ids continue across batches that share a prefix so they never collide.
func (p *Processor) Process(info DatasetInfo, batches []Batch) (*models.Dataset, error) {
	next := make(map[string]int)
	data := []models.DeathRecord{}
	names := make([]string, 0, len(batches))
	total := Fallbacks{}

	for _, b := range batches {
		if err := p.validator.Validate(b.Category); err != nil {
			return nil, fmt.Errorf("validation failed for %q: %w", b.Name, err)
		}

		records, fallbacks := p.transformer.Normalize(b.Records, b.Category, next[b.Category.IDPrefix])
		next[b.Category.IDPrefix] += len(records)

		data = append(data, records...)
		names = append(names, b.label())
		total.Add(fallbacks)

		p.log.Info("normalized source", "source", b.Name, "type", b.Category.Type, "records", len(records))

		if fallbacks.Total() > 0 {
			p.log.Warn("defaults applied", append([]any{"source", b.Name}, fallbacks.LogArgs()...)...)
		}
	}

	byType := models.CountByType(data)

	ds := &models.Dataset{
		Year:   info.Year,
		Total:  len(data),
		ByType: byType,
		Data:   data,
		Metadata: models.Metadata{
			Source:      info.Source,
			SourceURL:   info.SourceURL,
			Datasets:    names,
			LastUpdated: p.now().UTC().Format(time.RFC3339),
			Description: info.Description,
			Approximations: []string{
				models.ApproxDateDay,
				models.ApproxLocationLat,
				models.ApproxLocationLng,
			},
		},
	}

	if err := p.checker.Validate(ds); err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	p.log.Debug("dataset assembled", "total", ds.Total, "types", len(byType), "defaults", total.Total())

	return ds, nil
}
