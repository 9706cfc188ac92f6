package lifecycle

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grantdesk/grantdesk/src/api/data"
	"github.com/grantdesk/grantdesk/src/api/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, data.Migrate(db))
	return db
}

func seedCall(t *testing.T, db *gorm.DB, status string, deadline time.Time) types.Call {
	t.Helper()
	call := types.Call{
		ID:             uuid.NewString(),
		Title:          "Open Research Fund 2026",
		Deadline:       deadline,
		Status:         status,
		BudgetMin:      1000,
		BudgetMax:      50000,
		BudgetCurrency: "USD",
	}
	require.NoError(t, db.Create(&call).Error)
	return call
}

var (
	researcher = Actor{ID: "r1", Role: types.RoleResearcher}
	intruder   = Actor{ID: "r2", Role: types.RoleResearcher}
	admin      = Actor{ID: "a1", Role: types.RoleAdmin}
)

// seedProposal creates a DRAFT proposal owned by r1 against an open call.
func seedProposal(t *testing.T, db *gorm.DB, docRef string) (Proposals, types.Proposal) {
	t.Helper()
	svc := NewProposals(db)
	call := seedCall(t, db, types.CallPublished, time.Now().Add(48*time.Hour))
	p, err := svc.Create(researcher, CreateInput{
		CallID:      call.ID,
		Title:       "Coral reef acoustics",
		Abstract:    "Passive monitoring of reef health.",
		Budget:      12000,
		DocumentRef: docRef,
	})
	require.NoError(t, err)
	return svc, p
}

func reload(t *testing.T, db *gorm.DB, id string) types.Proposal {
	t.Helper()
	var p types.Proposal
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}
