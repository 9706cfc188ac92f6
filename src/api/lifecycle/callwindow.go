package lifecycle

import (
	"fmt"
	"time"

	"github.com/grantdesk/grantdesk/src/api/types"
	"gorm.io/gorm"
)

// CallWindow answers the one question the lifecycle asks of the call
// registry: is this call still accepting submissions? It reads the
// call, never writes it.
type CallWindow struct {
	db *gorm.DB
}

func NewCallWindow(db *gorm.DB) CallWindow {
	return CallWindow{db: db}
}

// Check loads the call and verifies it is published with a deadline in
// the future. All failures are validation errors: from the submitting
// researcher's point of view the request is simply not acceptable.
func (w CallWindow) Check(tx *gorm.DB, callID string, now time.Time) (types.Call, error) {
	if tx == nil {
		tx = w.db
	}
	var call types.Call
	if err := tx.First(&call, "id = ?", callID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return types.Call{}, fmt.Errorf("%w: call %s does not exist", ErrValidation, callID)
		}
		return types.Call{}, err
	}
	if call.Status != types.CallPublished {
		return types.Call{}, fmt.Errorf("%w: call %s is not accepting submissions", ErrValidation, callID)
	}
	if !call.Deadline.After(now) {
		return types.Call{}, fmt.Errorf("%w: call %s deadline has passed", ErrValidation, callID)
	}
	return call, nil
}

// CheckBudget verifies the requested amount sits inside the call's
// advertised range.
func CheckBudget(call types.Call, amount float64) error {
	if amount < call.BudgetMin || amount > call.BudgetMax {
		return fmt.Errorf("%w: requested budget %.2f is outside the call range %.2f-%.2f %s",
			ErrValidation, amount, call.BudgetMin, call.BudgetMax, call.BudgetCurrency)
	}
	return nil
}
