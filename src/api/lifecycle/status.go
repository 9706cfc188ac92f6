package lifecycle

import "github.com/grantdesk/grantdesk/src/api/types"

// Status is a proposal's position in the review lifecycle.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusSubmitted          Status = "SUBMITTED"
	StatusUnderReview        Status = "UNDER_REVIEW"
	StatusAccepted           Status = "ACCEPTED"
	StatusRejected           Status = "REJECTED"
	StatusRevisionsRequested Status = "REVISIONS_REQUESTED"
)

// ValidStatus reports whether s is one of the six lifecycle statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusAccepted, StatusRejected, StatusRevisionsRequested:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func Terminal(s Status) bool {
	return s == StatusAccepted || s == StatusRejected
}

type edge struct {
	From, To Status
}

// rule describes one legal transition: who may request it and what the
// request must carry or the aggregate must do alongside the commit.
type rule struct {
	Role            string // types.RoleResearcher or types.RoleAdmin
	OwnerOnly       bool
	NeedsDocument   bool // proposal must already hold a document reference
	NeedsCallWindow bool // call must still be accepting submissions
	NeedsReason     bool // non-empty rejection reason
	NeedsNote       bool // non-empty revision requirements
	AppendsRevision bool // a revision record is appended atomically
}

// The whole authorization asymmetry of the system lives in this table:
// admins move proposals forward through review decisions, researchers
// only initiate or answer a revision request. Exhaustive over the six
// statuses; anything absent is illegal.
var transitions = map[edge]rule{
	{StatusDraft, StatusSubmitted}:                {Role: types.RoleResearcher, OwnerOnly: true, NeedsDocument: true, NeedsCallWindow: true},
	{StatusSubmitted, StatusUnderReview}:          {Role: types.RoleAdmin},
	{StatusUnderReview, StatusAccepted}:           {Role: types.RoleAdmin},
	{StatusUnderReview, StatusRejected}:           {Role: types.RoleAdmin, NeedsReason: true},
	{StatusUnderReview, StatusRevisionsRequested}: {Role: types.RoleAdmin, NeedsNote: true},
	{StatusRevisionsRequested, StatusUnderReview}: {Role: types.RoleResearcher, OwnerOnly: true, AppendsRevision: true},
}

// Rule returns the table entry for (from, to) if the transition is legal.
func Rule(from, to Status) (rule, bool) {
	r, ok := transitions[edge{from, to}]
	return r, ok
}

// requestable[role] is the set of target statuses that appear in the
// role's column of the table. The gate uses it to decide whether an
// actor may even name a target when the exact (from, to) pair is not in
// the table, so that the table can answer with ErrInvalidTransition.
var requestable = map[string]map[Status]bool{
	types.RoleAdmin: {
		StatusUnderReview:        true,
		StatusAccepted:           true,
		StatusRejected:           true,
		StatusRevisionsRequested: true,
	},
	types.RoleResearcher: {
		StatusSubmitted:   true,
		StatusUnderReview: true, // only via submit-revision
	},
}
