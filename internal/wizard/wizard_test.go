package wizard

import (
	"errors"
	"strings"
	"testing"

	"cvhub/internal/cv"
)

func testPersonalInfo() cv.PersonalInfo {
	return cv.PersonalInfo{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Email:             "ada@example.com",
		Phone:             "0123456789",
		Address:           "12 Analytical Row",
		City:              "London",
		ZipCode:           "EC1",
		Country:           "UK",
		ProfessionalTitle: "Engineer",
		ProfileSummary:    strings.Repeat("x", 50),
	}
}

func testExperience() cv.Experience {
	return cv.Experience{
		JobTitle:    "Engineer",
		Company:     "Acme",
		Location:    "Remote",
		StartDate:   "2020-01",
		EndDate:     "2022-06",
		Description: strings.Repeat("d", 20),
	}
}

func testEducation() cv.Education {
	return cv.Education{
		Degree:      "BSc",
		Institution: "MIT",
		Location:    "Cambridge",
		StartDate:   "2016-09",
		EndDate:     "2020-06",
		Description: strings.Repeat("e", 10),
	}
}

func advanceToPreview(t *testing.T) *Wizard {
	t.Helper()
	w := New()
	if errs := w.SubmitPersonalInfo(testPersonalInfo()); errs != nil {
		t.Fatalf("submit personal info: %v", errs)
	}
	if err := w.CommitExperiences([]cv.Experience{testExperience()}); err != nil {
		t.Fatalf("commit experiences: %v", err)
	}
	if err := w.CommitEducation([]cv.Education{testEducation()}); err != nil {
		t.Fatalf("commit education: %v", err)
	}
	err := w.CommitSkillsLanguages(
		[]cv.Skill{{Name: "Go", Level: cv.SkillExpert}},
		[]cv.Language{{Name: "English", Level: cv.LanguageNative}},
	)
	if err != nil {
		t.Fatalf("commit skills/languages: %v", err)
	}
	return w
}

func TestWizardHappyPath(t *testing.T) {
	w := advanceToPreview(t)
	if w.Step() != StepPreview {
		t.Fatalf("expected preview step, got %v", w.Step())
	}
	if !w.Document().Complete() {
		t.Fatal("document at preview should be complete")
	}
}

func TestWizardStartsAtStepOne(t *testing.T) {
	if New().Step() != StepPersonalInfo {
		t.Fatal("wizard must start at personal info")
	}
}

func TestSubmitPersonalInfo_InvalidKeepsState(t *testing.T) {
	w := New()
	info := testPersonalInfo()
	info.Email = "nope"

	errs := w.SubmitPersonalInfo(info)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if w.Step() != StepPersonalInfo {
		t.Fatalf("invalid submit must not advance, got %v", w.Step())
	}
	if w.Document().PersonalInfo.Email != "" {
		t.Fatal("invalid submit must not store the slice")
	}
}

func TestNext_GatesBlockEmptyCollections(t *testing.T) {
	w := New()

	// Step one gate: personal info not yet filled in.
	err := w.Next()
	var gate *GateError
	if !errors.As(err, &gate) || gate.Step != StepPersonalInfo {
		t.Fatalf("expected step-one gate error, got %v", err)
	}

	if errs := w.SubmitPersonalInfo(testPersonalInfo()); errs != nil {
		t.Fatalf("submit personal info: %v", errs)
	}

	// Step two gate: no experiences.
	if err := w.CommitExperiences(nil); !errors.As(err, &gate) || gate.Step != StepExperience {
		t.Fatalf("expected experience gate error, got %v", err)
	}
	if w.Step() != StepExperience {
		t.Fatalf("blocked gate must not advance, got %v", w.Step())
	}

	if err := w.CommitExperiences([]cv.Experience{testExperience()}); err != nil {
		t.Fatalf("commit experiences: %v", err)
	}

	// Step three gate: no education.
	if err := w.CommitEducation(nil); !errors.As(err, &gate) || gate.Step != StepEducation {
		t.Fatalf("expected education gate error, got %v", err)
	}

	if err := w.CommitEducation([]cv.Education{testEducation()}); err != nil {
		t.Fatalf("commit education: %v", err)
	}

	// Step four gate: no skills. Languages alone do not satisfy it.
	err = w.CommitSkillsLanguages(nil, []cv.Language{{Name: "English", Level: cv.LanguageNative}})
	if !errors.As(err, &gate) || gate.Step != StepSkillsLanguages {
		t.Fatalf("expected skills gate error, got %v", err)
	}
}

func TestNext_AtPreviewIsBlocked(t *testing.T) {
	w := advanceToPreview(t)
	var gate *GateError
	if err := w.Next(); !errors.As(err, &gate) || gate.Step != StepPreview {
		t.Fatalf("expected preview gate error, got %v", err)
	}
}

func TestBack_LosslessAndFloored(t *testing.T) {
	w := advanceToPreview(t)

	for expected := StepSkillsLanguages; expected >= StepPersonalInfo; expected-- {
		w.Back()
		if w.Step() != expected {
			t.Fatalf("expected step %v, got %v", expected, w.Step())
		}
	}

	// Back at step one stays put.
	w.Back()
	if w.Step() != StepPersonalInfo {
		t.Fatalf("back at step one must not move, got %v", w.Step())
	}

	doc := w.Document()
	if len(doc.Experiences) != 1 || len(doc.Education) != 1 || len(doc.Skills) != 1 {
		t.Fatalf("back lost accumulated data: %+v", doc)
	}
}

func TestEditFromPreview_PreservesDocument(t *testing.T) {
	w := advanceToPreview(t)
	before := w.Document()

	w.EditFromPreview()
	if w.Step() != StepPersonalInfo {
		t.Fatalf("expected step one, got %v", w.Step())
	}

	after := w.Document()
	if after.PersonalInfo.FirstName != before.PersonalInfo.FirstName ||
		after.PersonalInfo.Email != before.PersonalInfo.Email {
		t.Fatal("personal info changed on edit-from-preview")
	}
	if len(after.Experiences) != len(before.Experiences) ||
		len(after.Education) != len(before.Education) ||
		len(after.Skills) != len(before.Skills) ||
		len(after.Languages) != len(before.Languages) {
		t.Fatal("collections changed on edit-from-preview")
	}
}

func TestCommitStoresSliceEvenWhenGateBlocks(t *testing.T) {
	w := New()
	if errs := w.SubmitPersonalInfo(testPersonalInfo()); errs != nil {
		t.Fatalf("submit personal info: %v", errs)
	}
	if err := w.CommitExperiences([]cv.Experience{testExperience()}); err != nil {
		t.Fatalf("commit experiences: %v", err)
	}
	if err := w.CommitEducation(nil); err == nil {
		t.Fatal("expected gate error")
	}
	// The empty slice is still recorded; only the transition was refused.
	if len(w.Document().Education) != 0 {
		t.Fatal("commit should store the handed-back slice")
	}
}

func TestResume_NormalizesIDs(t *testing.T) {
	doc := cv.Document{
		PersonalInfo: testPersonalInfo(),
		Experiences:  []cv.Experience{testExperience()},
		Education:    []cv.Education{testEducation()},
		Skills:       []cv.Skill{{Name: "Go", Level: cv.SkillExpert}},
	}

	w := Resume(doc)
	resumed := w.Document()
	if resumed.Experiences[0].ID == "" || resumed.Education[0].ID == "" || resumed.Skills[0].ID == "" {
		t.Fatalf("resume must assign missing ids: %+v", resumed)
	}
	// The caller's document is untouched.
	if doc.Experiences[0].ID != "" {
		t.Fatal("resume must not mutate the input document")
	}
}
