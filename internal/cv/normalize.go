package cv

import "github.com/google/uuid"

// Normalization happens at the data-model boundary: any item arriving
// without a stable identifier (older records, hand-built payloads) is
// assigned one exactly once, and the identifier is immutable afterwards.

// NormalizeExperiences assigns missing identifiers in place and returns the
// slice for convenience.
func NormalizeExperiences(items []Experience) []Experience {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return items
}

// NormalizeEducation assigns missing identifiers in place.
func NormalizeEducation(items []Education) []Education {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return items
}

// NormalizeSkills assigns missing identifiers in place.
func NormalizeSkills(items []Skill) []Skill {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return items
}

// NormalizeLanguages assigns missing identifiers in place.
func NormalizeLanguages(items []Language) []Language {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return items
}

// NormalizeDocument normalizes every collection of the document.
func NormalizeDocument(d *Document) {
	NormalizeExperiences(d.Experiences)
	NormalizeEducation(d.Education)
	NormalizeSkills(d.Skills)
	NormalizeLanguages(d.Languages)
}
