package webserver

import (
	"html"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/grantdesk/grantdesk/src/api/lifecycle"
	"github.com/grantdesk/grantdesk/src/api/notify"
	"github.com/grantdesk/grantdesk/src/api/types"
)

type Proposals struct {
	db        *gorm.DB
	svc       lifecycle.Proposals
	notifier  *notify.Service
	sanitizer *bluemonday.Policy
}

func NewProposals(db *gorm.DB, notifier *notify.Service) Proposals {
	// Strict sanitizer for free-text fields; abstracts and revision
	// notes are stored as markdown-ish plain text.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")

	return Proposals{
		db:        db,
		svc:       lifecycle.NewProposals(db),
		notifier:  notifier,
		sanitizer: sanitizer,
	}
}

func (h Proposals) clean(s string) string {
	return h.sanitizer.Sanitize(s)
}

func (h Proposals) Create(c *gin.Context) {
	var req struct {
		CallID      string  `json:"callId"      binding:"required,uuid"`
		Title       string  `json:"title"       binding:"required,max=255"`
		Abstract    string  `json:"abstract"    binding:"required,max=10000"`
		Budget      float64 `json:"budget"      binding:"required,gt=0"`
		DocumentRef string  `json:"documentRef" binding:"max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	title := html.EscapeString(req.Title)
	abstract := h.clean(req.Abstract)
	if !utf8.ValidString(title) || !utf8.ValidString(abstract) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid characters in input"})
		return
	}

	p, err := h.svc.Create(currentActor(c), lifecycle.CreateInput{
		CallID:      req.CallID,
		Title:       title,
		Abstract:    abstract,
		Budget:      req.Budget,
		DocumentRef: req.DocumentRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List returns the caller's own proposals. Admin listings live under
// /admin/proposals.
func (h Proposals) List(c *gin.Context) {
	var ps []types.Proposal
	h.db.Where("researcher_id = ?", c.GetString("uid")).
		Order("created_at desc").
		Find(&ps)
	c.JSON(http.StatusOK, ps)
}

func (h Proposals) Get(c *gin.Context) {
	p, err := h.svc.Get(currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Proposals) Update(c *gin.Context) {
	var req struct {
		Title       string  `json:"title"       binding:"required,max=255"`
		Abstract    string  `json:"abstract"    binding:"required,max=10000"`
		Budget      float64 `json:"budget"      binding:"required,gt=0"`
		DocumentRef string  `json:"documentRef" binding:"max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	p, err := h.svc.UpdateDraft(currentActor(c), c.Param("id"), lifecycle.UpdateInput{
		Title:       html.EscapeString(req.Title),
		Abstract:    h.clean(req.Abstract),
		Budget:      req.Budget,
		DocumentRef: req.DocumentRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Proposals) Delete(c *gin.Context) {
	if err := h.svc.Delete(currentActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Transition is the single mutation point for proposal status. The
// request names the status the caller last observed; a mismatch with
// the stored status comes back as a 409 stale_state.
func (h Proposals) Transition(c *gin.Context) {
	var req struct {
		From                 string `json:"from" binding:"required"`
		To                   string `json:"to"   binding:"required"`
		RejectionReason      string `json:"rejectionReason"      binding:"max=10000"`
		RevisionRequirements string `json:"revisionRequirements" binding:"max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	from, to := lifecycle.Status(req.From), lifecycle.Status(req.To)
	if !lifecycle.ValidStatus(from) || !lifecycle.ValidStatus(to) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown status"})
		return
	}

	actor := currentActor(c)
	p, err := h.svc.RequestTransition(actor, c.Param("id"), lifecycle.TransitionRequest{
		From:                 from,
		To:                   to,
		RejectionReason:      h.clean(req.RejectionReason),
		RevisionRequirements: h.clean(req.RevisionRequirements),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Transition(p, actor.ID)
	c.JSON(http.StatusOK, p)
}

// SubmitRevision appends a revision record and hands the proposal back
// to review in one shot.
func (h Proposals) SubmitRevision(c *gin.Context) {
	var req struct {
		Changes     string `json:"changes"     binding:"required,min=1,max=10000"`
		DocumentRef string `json:"documentRef" binding:"max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	actor := currentActor(c)
	p, rec, err := h.svc.SubmitRevision(actor, c.Param("id"), h.clean(req.Changes), req.DocumentRef)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Transition(p, actor.ID)
	c.JSON(http.StatusCreated, rec)
}

func (h Proposals) ListRevisions(c *gin.Context) {
	actor := currentActor(c)
	if _, err := h.svc.Get(actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	recs, err := h.svc.Ledger().List(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}
