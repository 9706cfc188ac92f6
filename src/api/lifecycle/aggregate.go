package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grantdesk/grantdesk/src/api/types"
	"gorm.io/gorm"
)

// Proposals is the aggregate root for the proposal lifecycle. It is the
// only code in the repository that writes a proposal's status, and it
// always does so through the gate and the transition table, inside one
// database transaction per request.
type Proposals struct {
	db     *gorm.DB
	ledger RevisionLedger
	window CallWindow
}

func NewProposals(db *gorm.DB) Proposals {
	return Proposals{
		db:     db,
		ledger: NewRevisionLedger(db),
		window: NewCallWindow(db),
	}
}

// Ledger exposes the read side of the revision history.
func (s Proposals) Ledger() RevisionLedger { return s.ledger }

type CreateInput struct {
	CallID      string
	Title       string
	Abstract    string
	Budget      float64
	DocumentRef string
}

// Create opens a new proposal in DRAFT for the acting researcher.
func (s Proposals) Create(actor Actor, in CreateInput) (types.Proposal, error) {
	if actor.Role != types.RoleResearcher {
		return types.Proposal{}, fmt.Errorf("%w: only researchers create proposals", ErrForbidden)
	}
	if strings.TrimSpace(in.Title) == "" {
		return types.Proposal{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if strings.TrimSpace(in.Abstract) == "" {
		return types.Proposal{}, fmt.Errorf("%w: abstract must not be empty", ErrValidation)
	}

	call, err := s.window.Check(nil, in.CallID, time.Now())
	if err != nil {
		return types.Proposal{}, err
	}
	if err := CheckBudget(call, in.Budget); err != nil {
		return types.Proposal{}, err
	}

	p := types.Proposal{
		ID:           uuid.NewString(),
		ResearcherID: actor.ID,
		CallID:       in.CallID,
		Title:        in.Title,
		Abstract:     in.Abstract,
		Budget:       in.Budget,
		DocumentRef:  in.DocumentRef,
		Status:       string(StatusDraft),
	}
	if err := s.db.Create(&p).Error; err != nil {
		return types.Proposal{}, err
	}
	return p, nil
}

type UpdateInput struct {
	Title       string
	Abstract    string
	Budget      float64
	DocumentRef string
}

// UpdateDraft replaces the editable fields of a proposal that is still
// in DRAFT. Once a proposal has been submitted its content only changes
// through the revision ledger.
func (s Proposals) UpdateDraft(actor Actor, proposalID string, in UpdateInput) (types.Proposal, error) {
	if strings.TrimSpace(in.Title) == "" {
		return types.Proposal{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if strings.TrimSpace(in.Abstract) == "" {
		return types.Proposal{}, fmt.Errorf("%w: abstract must not be empty", ErrValidation)
	}

	var out types.Proposal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposalID)
		if err != nil {
			return err
		}
		if actor.Role != types.RoleResearcher || p.ResearcherID != actor.ID {
			return fmt.Errorf("%w: only the owning researcher may edit a proposal", ErrForbidden)
		}
		if Status(p.Status) != StatusDraft {
			return fmt.Errorf("%w: proposals are editable only in %s (currently %s)", ErrWrongState, StatusDraft, p.Status)
		}

		call, err := s.window.Check(tx, p.CallID, time.Now())
		if err != nil {
			return err
		}
		if err := CheckBudget(call, in.Budget); err != nil {
			return err
		}

		res := tx.Model(&types.Proposal{}).
			Where("id = ? AND status = ?", p.ID, string(StatusDraft)).
			Updates(map[string]any{
				"title":        in.Title,
				"abstract":     in.Abstract,
				"budget":       in.Budget,
				"document_ref": in.DocumentRef,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: proposal left %s during edit", ErrStaleState, StatusDraft)
		}
		out, err = loadProposal(tx, proposalID)
		return err
	})
	return out, err
}

// TransitionRequest carries the caller's observed status alongside the
// requested target. If the proposal has moved on since the caller last
// read it, the request fails with ErrStaleState and nothing changes.
type TransitionRequest struct {
	From Status
	To   Status

	// Payload, interpreted per the transition table entry.
	RejectionReason      string
	RevisionRequirements string
	Changes              string // revision description (submit-revision path)
	DocumentRef          string // optional new document on a revision
}

// RequestTransition applies one status change. Order of checks:
// existence, authorization (ownership before anything else), structural
// legality of the named (from, to) pair, staleness of the observed
// status, then the payload the table demands. The commit is
// write-if-unchanged on status, so two racing requests from the same
// observed status can never both succeed.
func (s Proposals) RequestTransition(actor Actor, proposalID string, req TransitionRequest) (types.Proposal, error) {
	p, _, err := s.requestTransition(actor, proposalID, req)
	return p, err
}

// requestTransition additionally returns the revision record created on
// an appending edge, captured inside the transaction so a concurrent
// append to the same ledger can never be handed back in its place.
func (s Proposals) requestTransition(actor Actor, proposalID string, req TransitionRequest) (types.Proposal, types.ProposalRevision, error) {
	var out types.Proposal
	var rev types.ProposalRevision
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposalID)
		if err != nil {
			return err
		}

		if err := Authorize(actor, &p, req.From, req.To); err != nil {
			return err
		}

		r, ok := Rule(req.From, req.To)
		if !ok {
			return fmt.Errorf("%w: no transition from %s to %s", ErrInvalidTransition, req.From, req.To)
		}

		if Status(p.Status) != req.From {
			if r.AppendsRevision {
				// The ledger contract dominates here: appending a
				// revision outside REVISIONS_REQUESTED is a wrong-state
				// error, not a concurrency artifact.
				return fmt.Errorf("%w: revisions may only be submitted while status is %s (currently %s)",
					ErrWrongState, StatusRevisionsRequested, p.Status)
			}
			return fmt.Errorf("%w: proposal is %s, not %s", ErrStaleState, p.Status, req.From)
		}

		updates := map[string]any{"status": string(req.To)}

		if r.NeedsDocument && p.DocumentRef == "" {
			return fmt.Errorf("%w: a document reference is required before submission", ErrValidation)
		}
		if r.NeedsCallWindow {
			if _, err := s.window.Check(tx, p.CallID, time.Now()); err != nil {
				return err
			}
		}
		if r.NeedsReason {
			if strings.TrimSpace(req.RejectionReason) == "" {
				return fmt.Errorf("%w: a rejection reason is required", ErrValidation)
			}
			updates["rejection_reason"] = req.RejectionReason
		}
		if r.NeedsNote {
			if strings.TrimSpace(req.RevisionRequirements) == "" {
				return fmt.Errorf("%w: revision requirements are required", ErrValidation)
			}
			updates["revision_requirements"] = req.RevisionRequirements
		}
		if r.AppendsRevision {
			rec, err := s.ledger.appendTx(tx, &p, req.Changes, req.DocumentRef)
			if err != nil {
				return err
			}
			rev = rec
			if req.DocumentRef != "" {
				// A fresh document replaces the submitted one; without
				// one the prior reference carries forward untouched.
				updates["document_ref"] = req.DocumentRef
			}
		}

		res := tx.Model(&types.Proposal{}).
			Where("id = ? AND status = ?", p.ID, string(req.From)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: proposal is no longer %s", ErrStaleState, req.From)
		}

		out, err = loadProposal(tx, proposalID)
		return err
	})
	return out, rev, err
}

// SubmitRevision is the researcher's answer to a revision request: one
// revision record appended and the proposal handed back to review, as a
// single atomic unit. The returned record is the one inserted by this
// call, not whatever happens to be newest in the ledger afterwards.
func (s Proposals) SubmitRevision(actor Actor, proposalID, changes, documentRef string) (types.Proposal, types.ProposalRevision, error) {
	p, rec, err := s.requestTransition(actor, proposalID, TransitionRequest{
		From:        StatusRevisionsRequested,
		To:          StatusUnderReview,
		Changes:     changes,
		DocumentRef: documentRef,
	})
	if err != nil {
		return types.Proposal{}, types.ProposalRevision{}, err
	}
	return p, rec, nil
}

// Delete removes a proposal that never left DRAFT. Anything that has
// been submitted stays on the books forever.
func (s Proposals) Delete(actor Actor, proposalID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposalID)
		if err != nil {
			return err
		}
		if err := AuthorizeDelete(actor, &p); err != nil {
			return err
		}
		if Status(p.Status) != StatusDraft {
			return fmt.Errorf("%w: only %s proposals may be deleted (currently %s)", ErrWrongState, StatusDraft, p.Status)
		}

		res := tx.Where("id = ? AND status = ?", p.ID, string(StatusDraft)).Delete(&types.Proposal{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: proposal left %s before deletion", ErrStaleState, StatusDraft)
		}
		return nil
	})
}

// Get returns the proposal, visible to its owner and to admins.
func (s Proposals) Get(actor Actor, proposalID string) (types.Proposal, error) {
	p, err := loadProposal(s.db, proposalID)
	if err != nil {
		return types.Proposal{}, err
	}
	if actor.Role != types.RoleAdmin && p.ResearcherID != actor.ID {
		return types.Proposal{}, fmt.Errorf("%w: not your proposal", ErrForbidden)
	}
	return p, nil
}

func loadProposal(tx *gorm.DB, id string) (types.Proposal, error) {
	var p types.Proposal
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return types.Proposal{}, fmt.Errorf("%w: proposal %s", ErrNotFound, id)
		}
		return types.Proposal{}, err
	}
	return p, nil
}
