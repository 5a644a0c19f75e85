// Package role defines the account roles recognized across the API and the
// route-level allow sets derived from them.
package role

import "fmt"

const (
	Admin     = "admin"
	Recruiter = "recruiter"
	Candidate = "candidate"
)

// Route-level allow sets. Dashboard pages are deliberately permissive; the
// recruiter tooling set is stricter.
var (
	CandidateOnly = []string{Candidate}
	AnyRole       = []string{Admin, Candidate, Recruiter}
	RecruiterOnly = []string{Admin, Recruiter}
)

// Parse validates a raw role string.
func Parse(s string) (string, error) {
	switch s {
	case Admin, Recruiter, Candidate:
		return s, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ContainsAny reports whether have carries at least one of the wanted roles.
func ContainsAny(have, wanted []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
