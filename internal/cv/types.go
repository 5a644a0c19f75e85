// Package cv defines the curriculum-vitae document model shared by the
// wizard, the submission gateway and the API layer.
package cv

import "fmt"

// SkillLevel is the ordered proficiency scale for skills.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

var skillLevelOrder = []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert}

// ParseSkillLevel converts a raw string to a SkillLevel, returning an error
// for unknown values.
func ParseSkillLevel(s string) (SkillLevel, error) {
	l := SkillLevel(s)
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return l, nil
	}
	return "", fmt.Errorf("unknown skill level %q", s)
}

// Rank returns the position of the level in the ordered scale, or -1 for
// unknown values.
func (l SkillLevel) Rank() int {
	for i, v := range skillLevelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

// LanguageLevel is the ordered proficiency scale for languages. It is a
// distinct enumeration from SkillLevel.
type LanguageLevel string

const (
	LanguageBasic          LanguageLevel = "basic"
	LanguageConversational LanguageLevel = "conversational"
	LanguageFluent         LanguageLevel = "fluent"
	LanguageNative         LanguageLevel = "native"
)

var languageLevelOrder = []LanguageLevel{LanguageBasic, LanguageConversational, LanguageFluent, LanguageNative}

// ParseLanguageLevel converts a raw string to a LanguageLevel, returning an
// error for unknown values.
func ParseLanguageLevel(s string) (LanguageLevel, error) {
	l := LanguageLevel(s)
	switch l {
	case LanguageBasic, LanguageConversational, LanguageFluent, LanguageNative:
		return l, nil
	}
	return "", fmt.Errorf("unknown language level %q", s)
}

// Rank returns the position of the level in the ordered scale, or -1 for
// unknown values.
func (l LanguageLevel) Rank() int {
	for i, v := range languageLevelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

// PersonalInfo is the singleton slice of the document filled in on step one.
type PersonalInfo struct {
	FirstName         string `json:"firstName" validate:"required,min=2"`
	LastName          string `json:"lastName" validate:"required,min=2"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required,min=10"`
	Address           string `json:"address" validate:"required,min=5"`
	City              string `json:"city" validate:"required,min=2"`
	ZipCode           string `json:"zipCode" validate:"required,min=2"`
	Country           string `json:"country" validate:"required,min=2"`
	ProfessionalTitle string `json:"professionalTitle" validate:"required,min=3"`
	ProfileSummary    string `json:"profileSummary" validate:"required,min=50,max=500"`
	Photo             Photo  `json:"photo,omitempty"`
}

// Experience is one entry of the work-history list. EndDate is mandatory
// unless CurrentJob is set.
type Experience struct {
	ID          string `json:"id"`
	JobTitle    string `json:"jobTitle" validate:"required,min=2"`
	Company     string `json:"company" validate:"required,min=2"`
	Location    string `json:"location" validate:"required,min=2"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required_if=CurrentJob false"`
	CurrentJob  bool   `json:"currentJob"`
	Description string `json:"description" validate:"required,min=20"`
}

// Education mirrors Experience with degree/institution substituting job
// title/company and CurrentStudy keying the conditional end date.
type Education struct {
	ID           string `json:"id"`
	Degree       string `json:"degree" validate:"required,min=2"`
	Institution  string `json:"institution" validate:"required,min=2"`
	Location     string `json:"location" validate:"required,min=2"`
	StartDate    string `json:"startDate" validate:"required"`
	EndDate      string `json:"endDate" validate:"required_if=CurrentStudy false"`
	CurrentStudy bool   `json:"currentStudy"`
	Description  string `json:"description" validate:"required,min=10"`
}

// Skill is a named skill with a proficiency level.
type Skill struct {
	ID    string     `json:"id"`
	Name  string     `json:"name" validate:"required,min=2"`
	Level SkillLevel `json:"level" validate:"required,oneof=beginner intermediate advanced expert"`
}

// Language is a spoken language with a proficiency level.
type Language struct {
	ID    string        `json:"id"`
	Name  string        `json:"name" validate:"required,min=2"`
	Level LanguageLevel `json:"level" validate:"required,oneof=basic conversational fluent native"`
}

// Document is the aggregate CV record assembled by the wizard and submitted
// as a whole.
type Document struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Experiences  []Experience `json:"experiences"`
	Education    []Education  `json:"education"`
	Skills       []Skill      `json:"skills"`
	Languages    []Language   `json:"languages"`
}

// Complete reports whether the document can be submitted: valid personal
// info plus at least one experience, one education entry and one skill.
// Languages may be empty.
func (d Document) Complete() bool {
	if errs := ValidatePersonalInfo(d.PersonalInfo); errs != nil {
		return false
	}
	return len(d.Experiences) > 0 && len(d.Education) > 0 && len(d.Skills) > 0
}

// Clone returns a deep copy of the document so callers cannot mutate the
// owner's slices through a snapshot.
func (d Document) Clone() Document {
	out := d
	out.Experiences = append([]Experience(nil), d.Experiences...)
	out.Education = append([]Education(nil), d.Education...)
	out.Skills = append([]Skill(nil), d.Skills...)
	out.Languages = append([]Language(nil), d.Languages...)
	if d.PersonalInfo.Photo.Kind == PhotoLocalFile {
		out.PersonalInfo.Photo.Data = append([]byte(nil), d.PersonalInfo.Photo.Data...)
	}
	return out
}
