package types

import "time"

// Actor roles
const (
	RoleResearcher = "RESEARCHER"
	RoleAdmin      = "ADMIN"
)

// Call statuses
const (
	CallDraft     = "DRAFT"
	CallPublished = "PUBLISHED"
	CallClosed    = "CLOSED"
)

// Users
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	FullName  string `gorm:"size:128;not null"`
	Email     string `gorm:"size:256;unique;not null"`
	Password  string `gorm:"size:128;not null"` // bcrypt hash
	Role      string `gorm:"size:16;not null;default:RESEARCHER"`
	Verified  bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Calls for proposals. The lifecycle core only reads these; call
// authoring happens out of band.
type Call struct {
	ID             string `gorm:"primaryKey;size:36"`
	Title          string `gorm:"size:255;not null"`
	Description    string `gorm:"type:text"`
	Deadline       time.Time
	Status         string `gorm:"size:16;not null;default:DRAFT"`
	Requirements   string `gorm:"type:text"` // one eligibility requirement per line
	BudgetMin      float64
	BudgetMax      float64
	BudgetCurrency string `gorm:"size:8;default:USD"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Proposals
type Proposal struct {
	ID                   string `gorm:"primaryKey;size:36"`
	ResearcherID         string `gorm:"size:36;index;not null"`
	CallID               string `gorm:"size:36;index;not null"`
	Title                string `gorm:"size:255;not null"`
	Abstract             string `gorm:"type:text;not null"`
	Budget               float64
	DocumentRef          string `gorm:"size:512"` // opaque storage reference
	Status               string `gorm:"size:32;index;not null;default:DRAFT"`
	RejectionReason      string `gorm:"type:text"`
	RevisionRequirements string `gorm:"type:text"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Revision records are append-only; there is deliberately no update or
// delete path anywhere in the codebase.
type ProposalRevision struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProposalID  string `gorm:"size:36;index;not null"`
	Changes     string `gorm:"type:text;not null"`
	DocumentRef string `gorm:"size:512"`
	CreatedAt   time.Time
}

// Notifications written after committed transitions
type Notification struct {
	ID         uint64 `gorm:"primaryKey"`
	UserID     string `gorm:"size:36;index;not null"`
	ProposalID string `gorm:"size:36;not null"`
	Status     string `gorm:"size:32;not null"`
	ActorID    string `gorm:"size:36;not null"`
	Message    string `gorm:"size:512"`
	Read       bool   `gorm:"column:is_read;default:false"`
	CreatedAt  time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
