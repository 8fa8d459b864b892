// Package preferences converts raw partner expectation documents into
// canonical, validated criteria sets.
package preferences

import (
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/jasmine/pkg/fingerprint"
	"github.com/Ramsey-B/jasmine/pkg/metrics"
	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/normalizers"
)

// Config bounds the normalized age range. The bounds mirror the ones the
// profile form enforces, so normalized preferences never exceed them.
type Config struct {
	AgeMin int
	AgeMax int
}

// DefaultConfig returns the form's age bounds
func DefaultConfig() Config {
	return Config{AgeMin: 18, AgeMax: 40}
}

// Normalizer canonicalizes preference documents. Malformed fields are treated
// as missing, never as fatal errors; each one increments a diagnostics
// counter so drift in upstream form data stays observable.
type Normalizer struct {
	logger ectologger.Logger
	config Config
}

// NewNormalizer creates a new preference normalizer
func NewNormalizer(logger ectologger.Logger, config Config) *Normalizer {
	if config.AgeMin <= 0 {
		config.AgeMin = DefaultConfig().AgeMin
	}
	if config.AgeMax <= 0 || config.AgeMax < config.AgeMin {
		config.AgeMax = DefaultConfig().AgeMax
	}
	return &Normalizer{
		logger: logger,
		config: config,
	}
}

// Normalize converts a raw preference document into a canonical set. A nil
// document yields a fully-wildcard set: a user without stated expectations
// still receives candidates.
func (n *Normalizer) Normalize(doc *models.PreferenceDocument) *models.PreferenceSet {
	set := &models.PreferenceSet{
		AgeFrom:         n.config.AgeMin,
		AgeTo:           n.config.AgeMax,
		MaritalStatuses: models.WildcardSet(),
		Countries:       models.WildcardSet(),
		States:          models.WildcardSet(),
		Communities:     models.WildcardSet(),
		Diets:           models.WildcardSet(),
		Educations:      models.WildcardSet(),
		Professions:     models.WildcardSet(),
		Alcohol:         models.HabitToleranceAny,
		Tobacco:         models.HabitToleranceAny,
	}

	if doc == nil {
		return set
	}

	set.AgeFrom, set.AgeTo = n.normalizeAgeRange(doc.AgeFrom, doc.AgeTo)
	set.MaritalStatuses = n.normalizeSet(doc.MaritalStatuses, "marital_statuses")
	set.Countries = n.normalizeSet(doc.Countries, "countries")
	set.States = n.normalizeSet(doc.States, "states")
	set.Communities = n.normalizeSet(doc.Communities, "communities")
	set.Diets = n.normalizeSet(doc.Diets, "diets")
	set.Educations = n.normalizeSet(doc.Educations, "educations")
	set.Professions = n.normalizeSet(doc.Professions, "professions")
	set.Alcohol = n.normalizeTolerance(doc.Alcohol, "alcohol")
	set.Tobacco = n.normalizeTolerance(doc.Tobacco, "tobacco")

	return set
}

// Fingerprint digests a canonical set for cache keying
func (n *Normalizer) Fingerprint(set *models.PreferenceSet) string {
	return fingerprint.Generate(map[string]any{
		"age_from":         set.AgeFrom,
		"age_to":           set.AgeTo,
		"marital_statuses": sorted(set.MaritalStatuses),
		"countries":        sorted(set.Countries),
		"states":           sorted(set.States),
		"communities":      sorted(set.Communities),
		"diets":            sorted(set.Diets),
		"educations":       sorted(set.Educations),
		"professions":      sorted(set.Professions),
		"alcohol":          string(set.Alcohol),
		"tobacco":          string(set.Tobacco),
	})
}

func (n *Normalizer) normalizeAgeRange(from, to *int) (int, int) {
	lo, hi := n.config.AgeMin, n.config.AgeMax

	if from != nil {
		if *from >= n.config.AgeMin && *from <= n.config.AgeMax {
			lo = *from
		} else {
			metrics.MalformedPreferenceFields.WithLabelValues("age_from").Inc()
		}
	}
	if to != nil {
		if *to >= n.config.AgeMin && *to <= n.config.AgeMax {
			hi = *to
		} else {
			metrics.MalformedPreferenceFields.WithLabelValues("age_to").Inc()
		}
	}

	// An inverted range is malformed as a whole; fall back to the full band
	if lo > hi {
		metrics.MalformedPreferenceFields.WithLabelValues("age_range").Inc()
		return n.config.AgeMin, n.config.AgeMax
	}

	return lo, hi
}

// normalizeSet parses a raw set-valued field. Accepted shapes are a JSON
// array of strings, a single JSON string, or null/absent. Anything else is
// malformed and defaults to wildcard for that field only.
func (n *Normalizer) normalizeSet(raw json.RawMessage, field string) models.CriterionSet {
	if len(raw) == 0 {
		return models.WildcardSet()
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			metrics.MalformedPreferenceFields.WithLabelValues(field).Inc()
			return models.WildcardSet()
		}
		values = []string{single}
	}

	set := make(models.CriterionSet, len(values))
	for _, v := range values {
		normalized := normalizers.NormalizeCriterion(v)
		if normalized == "" {
			metrics.MalformedPreferenceFields.WithLabelValues(field).Inc()
			continue
		}
		if normalized == models.Wildcard {
			// A wildcard entry anywhere in the list makes the field unconstrained
			return models.WildcardSet()
		}
		set[normalized] = struct{}{}
	}

	// Empty after cleanup means no usable constraint was stated
	if len(set) == 0 {
		return models.WildcardSet()
	}

	return set
}

func (n *Normalizer) normalizeTolerance(raw *string, field string) models.HabitTolerance {
	if raw == nil {
		return models.HabitToleranceAny
	}

	switch normalizers.NormalizeCriterion(*raw) {
	case "yes":
		return models.HabitToleranceYes
	case "no":
		return models.HabitToleranceNo
	case "occasional", "occasionally":
		return models.HabitToleranceOccasional
	case models.Wildcard:
		return models.HabitToleranceAny
	default:
		metrics.MalformedPreferenceFields.WithLabelValues(field).Inc()
		return models.HabitToleranceAny
	}
}

func sorted(set models.CriterionSet) []string {
	values := set.Values()
	// insertion sort keeps the fingerprint input deterministic without
	// pulling sort into the hot path for tiny sets
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j] < values[j-1]; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
	return values
}
