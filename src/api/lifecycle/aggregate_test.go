package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grantdesk/grantdesk/src/api/types"
)

func TestCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposals(db)
	call := seedCall(t, db, types.CallPublished, time.Now().Add(48*time.Hour))

	base := CreateInput{
		CallID:   call.ID,
		Title:    "Coral reef acoustics",
		Abstract: "Passive monitoring of reef health.",
		Budget:   12000,
	}

	t.Run("opens in DRAFT", func(t *testing.T) {
		p, err := svc.Create(researcher, base)
		require.NoError(t, err)
		require.Equal(t, string(StatusDraft), p.Status)
		require.Equal(t, researcher.ID, p.ResearcherID)
		require.NotEmpty(t, p.ID)
		require.Empty(t, p.RejectionReason)
	})

	t.Run("admins do not create proposals", func(t *testing.T) {
		_, err := svc.Create(admin, base)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty title", func(t *testing.T) {
		in := base
		in.Title = "  "
		_, err := svc.Create(researcher, in)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty abstract", func(t *testing.T) {
		in := base
		in.Abstract = ""
		_, err := svc.Create(researcher, in)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown call", func(t *testing.T) {
		in := base
		in.CallID = "nope"
		_, err := svc.Create(researcher, in)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unpublished call", func(t *testing.T) {
		closed := seedCall(t, db, types.CallClosed, time.Now().Add(48*time.Hour))
		in := base
		in.CallID = closed.ID
		_, err := svc.Create(researcher, in)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("deadline passed", func(t *testing.T) {
		expired := seedCall(t, db, types.CallPublished, time.Now().Add(-time.Hour))
		in := base
		in.CallID = expired.ID
		_, err := svc.Create(researcher, in)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("budget outside call range", func(t *testing.T) {
		for _, amount := range []float64{999, 50001} {
			in := base
			in.Budget = amount
			_, err := svc.Create(researcher, in)
			require.ErrorIs(t, err, ErrValidation, "budget %v", amount)
		}
	})
}

// Scenario: researcher submits a draft with a document attached.
func TestSubmitDraft(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	got, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.NoError(t, err)
	require.Equal(t, string(StatusSubmitted), got.Status)
}

func TestSubmitWithoutDocument(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "")

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, string(StatusDraft), reload(t, db, p.ID).Status)
}

func TestSubmitAfterDeadline(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	// Deadline passes between create and submit.
	require.NoError(t, db.Model(&types.Call{}).Where("id = ?", p.CallID).
		Update("deadline", time.Now().Add(-time.Minute)).Error)

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.ErrorIs(t, err, ErrValidation)
}

// Scenario: admin drives SUBMITTED through UNDER_REVIEW to REJECTED.
func TestRejectionFlow(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.NoError(t, err)
	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusSubmitted, To: StatusUnderReview})
	require.NoError(t, err)

	t.Run("rejection requires a reason", func(t *testing.T) {
		_, err := svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusUnderReview, To: StatusRejected})
		require.ErrorIs(t, err, ErrValidation)
	})

	got, err := svc.RequestTransition(admin, p.ID, TransitionRequest{
		From: StatusUnderReview, To: StatusRejected, RejectionReason: "insufficient novelty",
	})
	require.NoError(t, err)
	require.Equal(t, string(StatusRejected), got.Status)
	require.Equal(t, "insufficient novelty", got.RejectionReason)

	t.Run("terminal", func(t *testing.T) {
		_, err := svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusRejected, To: StatusUnderReview})
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

// Scenario: revision round trip. Admin asks for revisions, researcher
// answers with one revision record, proposal returns to review.
func TestRevisionFlow(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.NoError(t, err)
	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusSubmitted, To: StatusUnderReview})
	require.NoError(t, err)

	t.Run("revision note required", func(t *testing.T) {
		_, err := svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusUnderReview, To: StatusRevisionsRequested})
		require.ErrorIs(t, err, ErrValidation)
	})

	got, err := svc.RequestTransition(admin, p.ID, TransitionRequest{
		From: StatusUnderReview, To: StatusRevisionsRequested, RevisionRequirements: "add methodology section",
	})
	require.NoError(t, err)
	require.Equal(t, "add methodology section", got.RevisionRequirements)

	t.Run("changes description required", func(t *testing.T) {
		_, _, err := svc.SubmitRevision(researcher, p.ID, "  ", "")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only the owner may revise", func(t *testing.T) {
		_, _, err := svc.SubmitRevision(intruder, p.ID, "added methodology", "")
		require.ErrorIs(t, err, ErrForbidden)
	})

	got, rec, err := svc.SubmitRevision(researcher, p.ID, "added methodology", "")
	require.NoError(t, err)
	require.Equal(t, string(StatusUnderReview), got.Status)
	require.Equal(t, "added methodology", rec.Changes)

	recs, err := svc.Ledger().List(p.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, rec.ID, recs[0].ID)

	t.Run("document carries forward when the revision has none", func(t *testing.T) {
		require.Equal(t, "/v1/documents/doc.pdf", reload(t, db, p.ID).DocumentRef)
	})

	t.Run("append outside REVISIONS_REQUESTED is a wrong-state error", func(t *testing.T) {
		_, _, err := svc.SubmitRevision(researcher, p.ID, "more changes", "")
		require.ErrorIs(t, err, ErrWrongState)
	})
}

func TestRevisionReplacesDocument(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/v1.pdf")

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.NoError(t, err)
	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusSubmitted, To: StatusUnderReview})
	require.NoError(t, err)
	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{
		From: StatusUnderReview, To: StatusRevisionsRequested, RevisionRequirements: "shorter document please",
	})
	require.NoError(t, err)

	got, rec, err := svc.SubmitRevision(researcher, p.ID, "trimmed to 10 pages", "/v1/documents/v2.pdf")
	require.NoError(t, err)
	require.Equal(t, "/v1/documents/v2.pdf", got.DocumentRef)
	require.Equal(t, "/v1/documents/v2.pdf", rec.DocumentRef)
}

// SubmitRevision hands back the record it inserted, not whatever is
// newest in the ledger when it returns.
func TestSubmitRevisionReturnsOwnRecord(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.NoError(t, err)
	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusSubmitted, To: StatusUnderReview})
	require.NoError(t, err)

	var recs []types.ProposalRevision
	for round, changes := range []string{"first pass", "second pass"} {
		time.Sleep(5 * time.Millisecond) // distinct created_at ordering
		_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{
			From: StatusUnderReview, To: StatusRevisionsRequested, RevisionRequirements: "more detail",
		})
		require.NoError(t, err)

		_, rec, err := svc.SubmitRevision(researcher, p.ID, changes, "")
		require.NoError(t, err)
		require.Equal(t, changes, rec.Changes, "round %d", round)
		require.Equal(t, p.ID, rec.ProposalID)
		require.NotEmpty(t, rec.ID)
		recs = append(recs, rec)
	}
	require.NotEqual(t, recs[0].ID, recs[1].ID)

	listed, err := svc.Ledger().List(p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, recs[0].ID, listed[0].ID)
	require.Equal(t, recs[1].ID, listed[1].ID)
}

// Ownership isolation: a non-owner gets ErrForbidden with an identical
// shape whether or not the transition would have been legal.
func TestOwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	_, err1 := svc.RequestTransition(intruder, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	_, err2 := svc.RequestTransition(intruder, p.ID, TransitionRequest{From: StatusDraft, To: StatusAccepted})

	require.ErrorIs(t, err1, ErrForbidden)
	require.ErrorIs(t, err2, ErrForbidden)
	require.Equal(t, err1.Error(), err2.Error())
	require.Equal(t, string(StatusDraft), reload(t, db, p.ID).Status)
}

// Scenario: no DRAFT -> ACCEPTED edge exists, even for an admin.
func TestInvalidTransition(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	_, err := svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusDraft, To: StatusAccepted})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

// Conflict: two requests against the same observed status; exactly one
// wins, the other sees stale state.
func TestStaleState(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.NoError(t, err)

	_, err = svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
	require.ErrorIs(t, err, ErrStaleState)

	// Legal edge, outdated observation.
	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusUnderReview, To: StatusAccepted})
	require.ErrorIs(t, err, ErrStaleState)
}

// Same conflict under true concurrency: two goroutines race the same
// observed status; exactly one commits, the other sees stale state.
func TestConcurrentTransitionOneWins(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	start := make(chan struct{})
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
			errs <- err
		}()
	}
	close(start)

	var won, stale int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			won++
		case errors.Is(err, ErrStaleState):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, stale)
	require.Equal(t, string(StatusSubmitted), reload(t, db, p.ID).Status)
}

func TestRequestTransitionNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposals(db)

	_, err := svc.RequestTransition(admin, "missing", TransitionRequest{From: StatusSubmitted, To: StatusUnderReview})
	require.ErrorIs(t, err, ErrNotFound)
}

// Invariant: rejectionReason is non-empty iff status is REJECTED.
func TestRejectionReasonInvariant(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")

	for _, step := range []TransitionRequest{
		{From: StatusDraft, To: StatusSubmitted},
	} {
		_, err := svc.RequestTransition(researcher, p.ID, step)
		require.NoError(t, err)
		require.Empty(t, reload(t, db, p.ID).RejectionReason)
	}
	_, err := svc.RequestTransition(admin, p.ID, TransitionRequest{From: StatusSubmitted, To: StatusUnderReview})
	require.NoError(t, err)
	require.Empty(t, reload(t, db, p.ID).RejectionReason)

	_, err = svc.RequestTransition(admin, p.ID, TransitionRequest{
		From: StatusUnderReview, To: StatusRejected, RejectionReason: "out of scope",
	})
	require.NoError(t, err)
	require.Equal(t, "out of scope", reload(t, db, p.ID).RejectionReason)
}

func TestDelete(t *testing.T) {
	t.Run("owner deletes a draft", func(t *testing.T) {
		db := newTestDB(t)
		svc, p := seedProposal(t, db, "")
		require.NoError(t, svc.Delete(researcher, p.ID))
		_, err := svc.Get(researcher, p.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		db := newTestDB(t)
		svc, p := seedProposal(t, db, "")
		require.ErrorIs(t, svc.Delete(intruder, p.ID), ErrForbidden)
	})

	t.Run("admin is forbidden", func(t *testing.T) {
		db := newTestDB(t)
		svc, p := seedProposal(t, db, "")
		require.ErrorIs(t, svc.Delete(admin, p.ID), ErrForbidden)
	})

	t.Run("submitted proposals are permanent", func(t *testing.T) {
		db := newTestDB(t)
		svc, p := seedProposal(t, db, "/v1/documents/doc.pdf")
		_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
		require.NoError(t, err)
		require.ErrorIs(t, svc.Delete(researcher, p.ID), ErrWrongState)
	})
}

func TestUpdateDraft(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "")

	t.Run("owner edits draft", func(t *testing.T) {
		got, err := svc.UpdateDraft(researcher, p.ID, UpdateInput{
			Title:       "Coral reef acoustics, revisited",
			Abstract:    "Now with hydrophone arrays.",
			Budget:      15000,
			DocumentRef: "/v1/documents/doc.pdf",
		})
		require.NoError(t, err)
		require.Equal(t, "Coral reef acoustics, revisited", got.Title)
		require.Equal(t, float64(15000), got.Budget)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		_, err := svc.UpdateDraft(intruder, p.ID, UpdateInput{Title: "x", Abstract: "y", Budget: 2000})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("budget still bound by the call", func(t *testing.T) {
		_, err := svc.UpdateDraft(researcher, p.ID, UpdateInput{Title: "x", Abstract: "y", Budget: 999999})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("locked once submitted", func(t *testing.T) {
		_, err := svc.RequestTransition(researcher, p.ID, TransitionRequest{From: StatusDraft, To: StatusSubmitted})
		require.NoError(t, err)
		_, err = svc.UpdateDraft(researcher, p.ID, UpdateInput{Title: "x", Abstract: "y", Budget: 2000})
		require.ErrorIs(t, err, ErrWrongState)
	})
}

func TestGetVisibility(t *testing.T) {
	db := newTestDB(t)
	svc, p := seedProposal(t, db, "")

	if _, err := svc.Get(researcher, p.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(admin, p.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	_, err := svc.Get(intruder, p.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("intruder get: want ErrForbidden, got %v", err)
	}
}
