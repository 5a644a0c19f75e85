// Package wizard drives the five-step CV builder.
//
// Step graph (forward transitions are gated, back transitions are free):
//
//	PersonalInfo ──► Experience ──► Education ──► SkillsLanguages ──► Preview
//	      ▲              │              │                 │             │
//	      └──────────────┴──────────────┴─────────────────┴──── edit ◄──┘
//
// The wizard exclusively owns the accumulating document. Editors receive
// and hand back only their own slice; nothing here touches the network.
package wizard

import "cvhub/internal/cv"

// Step numbers the wizard states 1 through 5.
type Step int

const (
	StepPersonalInfo Step = iota + 1
	StepExperience
	StepEducation
	StepSkillsLanguages
	StepPreview
)

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "personal-info"
	case StepExperience:
		return "experience"
	case StepEducation:
		return "education"
	case StepSkillsLanguages:
		return "skills-languages"
	case StepPreview:
		return "preview"
	}
	return "unknown"
}

// GateError reports a blocked forward transition. It carries the user-facing
// warning and leaves the wizard state untouched.
type GateError struct {
	Step    Step
	Message string
}

func (e *GateError) Error() string { return e.Message }

// Wizard sequences the steps and accumulates the document.
type Wizard struct {
	step Step
	doc  cv.Document
}

// New starts a wizard at step one with an empty document.
func New() *Wizard {
	return &Wizard{step: StepPersonalInfo}
}

// Resume starts a wizard at step one pre-filled with an existing document,
// normalizing item identifiers at the boundary. Used when editing a
// previously submitted CV.
func Resume(doc cv.Document) *Wizard {
	doc = doc.Clone()
	cv.NormalizeDocument(&doc)
	return &Wizard{step: StepPersonalInfo, doc: doc}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Document returns a deep-copy snapshot of the accumulated document.
func (w *Wizard) Document() cv.Document { return w.doc.Clone() }

// SubmitPersonalInfo validates and stores the step-one slice. On success the
// wizard advances to the experience step; on failure the field errors are
// returned and the state does not change.
func (w *Wizard) SubmitPersonalInfo(info cv.PersonalInfo) cv.FieldErrors {
	if errs := cv.ValidatePersonalInfo(info); errs != nil {
		return errs
	}
	w.doc.PersonalInfo = info
	w.step = StepExperience
	return nil
}

// Experiences returns a copy of the experience slice for seeding an editor.
func (w *Wizard) Experiences() []cv.Experience {
	return append([]cv.Experience(nil), w.doc.Experiences...)
}

// Education returns a copy of the education slice for seeding an editor.
func (w *Wizard) Education() []cv.Education {
	return append([]cv.Education(nil), w.doc.Education...)
}

// Skills returns a copy of the skills slice for seeding an editor.
func (w *Wizard) Skills() []cv.Skill {
	return append([]cv.Skill(nil), w.doc.Skills...)
}

// Languages returns a copy of the languages slice for seeding an editor.
func (w *Wizard) Languages() []cv.Language {
	return append([]cv.Language(nil), w.doc.Languages...)
}

// CommitExperiences stores the slice handed back by the editor and attempts
// the forward transition. The slice is stored even when the gate blocks, so
// no work is lost.
func (w *Wizard) CommitExperiences(items []cv.Experience) error {
	w.doc.Experiences = append([]cv.Experience(nil), items...)
	return w.Next()
}

// CommitEducation stores the slice and attempts the forward transition.
func (w *Wizard) CommitEducation(items []cv.Education) error {
	w.doc.Education = append([]cv.Education(nil), items...)
	return w.Next()
}

// CommitSkillsLanguages stores both step-four slices and attempts the
// forward transition. Languages may be empty.
func (w *Wizard) CommitSkillsLanguages(skills []cv.Skill, languages []cv.Language) error {
	w.doc.Skills = append([]cv.Skill(nil), skills...)
	w.doc.Languages = append([]cv.Language(nil), languages...)
	return w.Next()
}

// Next advances one step if the current step's gate allows it. A blocked
// gate returns a *GateError and leaves the state unchanged.
func (w *Wizard) Next() error {
	switch w.step {
	case StepPersonalInfo:
		if errs := cv.ValidatePersonalInfo(w.doc.PersonalInfo); errs != nil {
			return &GateError{Step: w.step, Message: "complete your personal information before continuing"}
		}
	case StepExperience:
		if len(w.doc.Experiences) == 0 {
			return &GateError{Step: w.step, Message: "add at least one experience before continuing"}
		}
	case StepEducation:
		if len(w.doc.Education) == 0 {
			return &GateError{Step: w.step, Message: "add at least one education entry before continuing"}
		}
	case StepSkillsLanguages:
		if len(w.doc.Skills) == 0 {
			return &GateError{Step: w.step, Message: "add at least one skill before continuing"}
		}
	case StepPreview:
		return &GateError{Step: w.step, Message: "already at the last step"}
	}
	w.step++
	return nil
}

// Back moves one step back. It is always allowed from steps 2-5 and loses no
// accumulated data.
func (w *Wizard) Back() {
	if w.step > StepPersonalInfo {
		w.step--
	}
}

// EditFromPreview returns to step one while preserving every accumulated
// slice, so the user can revise before submitting.
func (w *Wizard) EditFromPreview() {
	w.step = StepPersonalInfo
}
