package lifecycle

import (
	"fmt"

	"github.com/grantdesk/grantdesk/src/api/types"
)

// Actor is the authenticated identity requesting an operation. The
// auth layer populates it from the verified token; the core trusts it.
type Actor struct {
	ID   string
	Role string
}

// Authorize decides whether the actor may request the (from, to)
// transition on the proposal. Ownership is checked before anything
// about the transition itself, so a non-owner learns nothing about
// which transitions would have been legal: they get the same
// ErrForbidden either way.
func Authorize(actor Actor, p *types.Proposal, from, to Status) error {
	if actor.Role == types.RoleResearcher && p.ResearcherID != actor.ID {
		return fmt.Errorf("%w: not the proposal owner", ErrForbidden)
	}

	if r, ok := Rule(from, to); ok {
		if r.Role != actor.Role {
			return fmt.Errorf("%w: role %s may not request %s -> %s", ErrForbidden, actor.Role, from, to)
		}
		return nil
	}

	// Unknown pair: let the actor through only when the target sits in
	// their own column, so the transition table reports the structural
	// error instead of the gate masking it.
	if !requestable[actor.Role][to] {
		return fmt.Errorf("%w: role %s may not request status %s", ErrForbidden, actor.Role, to)
	}
	return nil
}

// AuthorizeDelete gates physical deletion, which only the owning
// researcher may perform (state is checked separately).
func AuthorizeDelete(actor Actor, p *types.Proposal) error {
	if actor.Role != types.RoleResearcher || p.ResearcherID != actor.ID {
		return fmt.Errorf("%w: only the owning researcher may delete a proposal", ErrForbidden)
	}
	return nil
}
