package lifecycle

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/grantdesk/grantdesk/src/api/types"
	"gorm.io/gorm"
)

// RevisionLedger is the append-only history of researcher amendments.
// Records are never updated or deleted; List returns them oldest-first.
type RevisionLedger struct {
	db *gorm.DB
}

func NewRevisionLedger(db *gorm.DB) RevisionLedger {
	return RevisionLedger{db: db}
}

// appendTx inserts a revision record inside the caller's transaction.
// The proposal row must already be loaded (and therefore current within
// the transaction); appending is only legal while revisions are being
// requested. The status change that accompanies the append commits in
// the same transaction, keyed off the same row.
func (l RevisionLedger) appendTx(tx *gorm.DB, p *types.Proposal, changes, documentRef string) (types.ProposalRevision, error) {
	if Status(p.Status) != StatusRevisionsRequested {
		return types.ProposalRevision{}, fmt.Errorf("%w: revisions may only be appended while status is %s (currently %s)",
			ErrWrongState, StatusRevisionsRequested, p.Status)
	}
	if strings.TrimSpace(changes) == "" {
		return types.ProposalRevision{}, fmt.Errorf("%w: changes description must not be empty", ErrValidation)
	}

	rec := types.ProposalRevision{
		ID:          uuid.NewString(),
		ProposalID:  p.ID,
		Changes:     changes,
		DocumentRef: documentRef,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return types.ProposalRevision{}, err
	}
	return rec, nil
}

// List returns the proposal's revision records ordered by creation
// time ascending. It never mutates anything.
func (l RevisionLedger) List(proposalID string) ([]types.ProposalRevision, error) {
	var recs []types.ProposalRevision
	err := l.db.Where("proposal_id = ?", proposalID).
		Order("created_at asc").
		Find(&recs).Error
	return recs, err
}

// Latest returns the most recent revision record, if any.
func (l RevisionLedger) Latest(proposalID string) (types.ProposalRevision, bool, error) {
	var rec types.ProposalRevision
	err := l.db.Where("proposal_id = ?", proposalID).
		Order("created_at desc").
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return types.ProposalRevision{}, false, nil
	}
	if err != nil {
		return types.ProposalRevision{}, false, err
	}
	return rec, true, nil
}
