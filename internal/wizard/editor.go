package wizard

import (
	"github.com/google/uuid"

	"cvhub/internal/cv"
)

// Notifier receives the transient user-visible messages editors emit on
// add/update/delete and validation outcomes.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

// Confirmer asks the user to confirm a destructive action. A nil Confirmer
// means deletes proceed immediately.
type Confirmer func(prompt string) bool

// Editor manages one step's in-memory collection. The four concrete editors
// differ only in item type, validation and delete-confirmation policy, so a
// single generic implementation backs all of them.
type Editor[T any] struct {
	items    []T
	itemID   func(T) string
	withID   func(T, string) T
	validate func(T) cv.FieldErrors
	confirm  Confirmer
	notifier Notifier
	label    string
}

func newEditor[T any](
	seed []T,
	itemID func(T) string,
	withID func(T, string) T,
	validate func(T) cv.FieldErrors,
	confirm Confirmer,
	notifier Notifier,
	label string,
) *Editor[T] {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	items := append([]T(nil), seed...)
	// Seed items may predate identifier assignment; normalize once so ids
	// stay stable for the editor's lifetime.
	for i := range items {
		if itemID(items[i]) == "" {
			items[i] = withID(items[i], uuid.NewString())
		}
	}
	return &Editor[T]{
		items:    items,
		itemID:   itemID,
		withID:   withID,
		validate: validate,
		confirm:  confirm,
		notifier: notifier,
		label:    label,
	}
}

// Items returns a copy of the current collection in insertion order.
func (e *Editor[T]) Items() []T {
	return append([]T(nil), e.items...)
}

// Len returns the number of items.
func (e *Editor[T]) Len() int { return len(e.items) }

// Add validates the item and appends it with a freshly generated identifier.
// On failure the collection is unchanged and the field errors are returned.
func (e *Editor[T]) Add(item T) (T, cv.FieldErrors) {
	var zero T
	if errs := e.validate(item); errs != nil {
		e.notifier.Error("please correct the highlighted fields")
		return zero, errs
	}
	item = e.withID(item, uuid.NewString())
	e.items = append(e.items, item)
	e.notifier.Success(e.label + " added")
	return item, nil
}

// Edit validates the replacement and swaps it in place of the item matching
// id, preserving order and identifier. It reports false when no item carries
// the id; the collection is then untouched.
func (e *Editor[T]) Edit(id string, item T) (cv.FieldErrors, bool) {
	if errs := e.validate(item); errs != nil {
		e.notifier.Error("please correct the highlighted fields")
		return errs, false
	}
	for i := range e.items {
		if e.itemID(e.items[i]) == id {
			e.items[i] = e.withID(item, id)
			e.notifier.Success(e.label + " updated")
			return nil, true
		}
	}
	return nil, false
}

// Delete removes the item matching id. When a Confirmer is configured the
// user is prompted first and a decline leaves the collection unchanged.
// Deleting an unknown id is a no-op.
func (e *Editor[T]) Delete(id string) bool {
	for i := range e.items {
		if e.itemID(e.items[i]) != id {
			continue
		}
		if e.confirm != nil && !e.confirm("delete this "+e.label+"?") {
			return false
		}
		e.items = append(e.items[:i], e.items[i+1:]...)
		e.notifier.Success(e.label + " deleted")
		return true
	}
	return false
}

// Commit hands the current collection back to the caller, typically to feed
// one of the wizard's Commit* methods.
func (e *Editor[T]) Commit() []T { return e.Items() }

// NewExperienceEditor builds the step-two editor. Deleting an experience
// asks for confirmation.
func NewExperienceEditor(seed []cv.Experience, notifier Notifier, confirm Confirmer) *Editor[cv.Experience] {
	return newEditor(seed,
		func(x cv.Experience) string { return x.ID },
		func(x cv.Experience, id string) cv.Experience { x.ID = id; return x },
		cv.ValidateExperience,
		confirm, notifier, "experience")
}

// NewEducationEditor builds the step-three editor. Deleting an entry asks
// for confirmation.
func NewEducationEditor(seed []cv.Education, notifier Notifier, confirm Confirmer) *Editor[cv.Education] {
	return newEditor(seed,
		func(x cv.Education) string { return x.ID },
		func(x cv.Education, id string) cv.Education { x.ID = id; return x },
		cv.ValidateEducation,
		confirm, notifier, "education")
}

// NewSkillEditor builds the skills half of step four. Deletes are immediate.
func NewSkillEditor(seed []cv.Skill, notifier Notifier) *Editor[cv.Skill] {
	return newEditor(seed,
		func(x cv.Skill) string { return x.ID },
		func(x cv.Skill, id string) cv.Skill { x.ID = id; return x },
		cv.ValidateSkill,
		nil, notifier, "skill")
}

// NewLanguageEditor builds the languages half of step four. Deletes are
// immediate.
func NewLanguageEditor(seed []cv.Language, notifier Notifier) *Editor[cv.Language] {
	return newEditor(seed,
		func(x cv.Language) string { return x.ID },
		func(x cv.Language, id string) cv.Language { x.ID = id; return x },
		cv.ValidateLanguage,
		nil, notifier, "language")
}
