package config

import (
	"strconv"
	"strings"

	"photobatch/types"
)

const (
	MinMaxSize = 100
	MaxMaxSize = 4000
	MinQuality = 50
	MaxQuality = 100
)

// Each option is accepted under its form name, snake_case and kebab-case
var optionKeys = map[string][]string{
	"max_size":      {"maxSize", "max_size", "max-size"},
	"quality":       {"quality"},
	"progressive":   {"progressive"},
	"preserve_exif": {"preserveExif", "preserve_exif", "preserve-exif"},
	"sort_by":       {"sortBy", "sort_by", "sort-by"},
	"sort_order":    {"sortOrder", "sort_order", "sort-order"},
	"auto_rotate":   {"autoRotate", "auto_rotate", "auto-rotate"},
	"keep_original": {"keepOriginal", "keep_original", "keep-original"},
	"output_format": {"outputFormat", "output_format", "output-format"},
}

// DefaultProcessingConfig converts the configured defaults into a normalized ProcessingConfig
func (d ProcessingDefaults) DefaultProcessingConfig() types.ProcessingConfig {
	cfg := types.ProcessingConfig{
		MaxSize:      d.MaxSize,
		Quality:      d.Quality,
		Progressive:  d.Progressive,
		PreserveExif: d.PreserveExif,
		SortBy:       types.SortKey(d.SortBy),
		SortOrder:    types.SortOrder(d.SortOrder),
		AutoRotate:   d.AutoRotate,
		KeepOriginal: d.KeepOriginal,
		OutputFormat: types.OutputFormat(d.OutputFormat),
	}
	return Normalize(cfg)
}

// ParseProcessingConfig builds a ProcessingConfig from request values.
// Missing or unparsable values take the default, numbers are clamped and unknown enum values
// fall back to their defaults. It never fails.
func ParseProcessingConfig(values map[string]string, defaults ProcessingDefaults) types.ProcessingConfig {
	cfg := defaults.DefaultProcessingConfig()

	if v, ok := lookup(values, "max_size"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSize = n
		}
	}
	if v, ok := lookup(values, "quality"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quality = n
		}
	}
	cfg.Progressive = parseBool(values, "progressive", cfg.Progressive)
	cfg.PreserveExif = parseBool(values, "preserve_exif", cfg.PreserveExif)
	cfg.AutoRotate = parseBool(values, "auto_rotate", cfg.AutoRotate)
	cfg.KeepOriginal = parseBool(values, "keep_original", cfg.KeepOriginal)

	if v, ok := lookup(values, "sort_by"); ok {
		cfg.SortBy = types.SortKey(v)
	}
	if v, ok := lookup(values, "sort_order"); ok {
		cfg.SortOrder = types.SortOrder(v)
	}
	if v, ok := lookup(values, "output_format"); ok {
		cfg.OutputFormat = types.OutputFormat(v)
	}

	return Normalize(cfg)
}

// Normalize clamps numeric options and replaces unknown enum values with the built-in defaults
func Normalize(cfg types.ProcessingConfig) types.ProcessingConfig {
	cfg.MaxSize = clamp(cfg.MaxSize, MinMaxSize, MaxMaxSize)
	cfg.Quality = clamp(cfg.Quality, MinQuality, MaxQuality)

	switch cfg.SortBy {
	case types.SortByExifDate, types.SortByFileDate, types.SortByFilename:
	default:
		cfg.SortBy = types.SortByExifDate
	}

	switch cfg.SortOrder {
	case types.SortAsc, types.SortDesc:
	default:
		cfg.SortOrder = types.SortAsc
	}

	switch cfg.OutputFormat {
	case types.OutputOriginal, types.OutputNumbered, types.OutputDated:
	default:
		cfg.OutputFormat = types.OutputOriginal
	}

	return cfg
}

func lookup(values map[string]string, option string) (string, bool) {
	for _, key := range optionKeys[option] {
		if v, ok := values[key]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func parseBool(values map[string]string, option string, def bool) bool {
	v, ok := lookup(values, option)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "on", "yes":
		return true
	case "off", "no":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
