package order

import (
	"fmt"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
)

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
	Rejected   Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case Pending, Processing, Completed, Rejected:
		return true
	}
	return false
}

// CanTransition reports whether moving to the given status is legal.
// Completed and rejected are terminal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case Pending:
		return to == Processing || to == Completed || to == Rejected
	case Processing:
		return to == Completed || to == Rejected
	}
	return false
}

type Order struct {
	ID          string     `json:"id" db:"order_id"`
	Code        string     `json:"orderCode" db:"order_code"`
	UserID      string     `json:"userId" db:"user_id"`
	UserName    string     `json:"userName" db:"user_name"`
	UserEmail   string     `json:"userEmail" db:"user_email"`
	Total       int        `json:"total" db:"total"`
	Status      Status     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	Items       []Item     `json:"items" db:"-"`

	// ExpiresAt is derived from CompletedAt at response time and drives
	// the client countdown. It is advisory only: the download routes
	// recompute the window server-side on every request.
	ExpiresAt *time.Time `json:"expiresAt,omitempty" db:"-"`
}

// Item is one purchased (unit, medium, note/assignment) combination.
// Name, titles and price are snapshots taken at purchase time.
type Item struct {
	OrderID      string        `json:"-" db:"order_id"`
	UnitID       string        `json:"unitId" db:"unit_id"`
	ItemType     unit.ItemType `json:"itemType" db:"item_type"`
	UnitCode     string        `json:"unitCode" db:"unit_code"`
	Name         string        `json:"itemName" db:"item_name"`
	Title        string        `json:"title" db:"title"`
	SinhalaTitle string        `json:"sinhalaTitle" db:"sinhala_title"`
	Price        int           `json:"price" db:"price"`
	UserFilePath *string       `json:"userFilePath,omitempty" db:"user_file_path"`
	Downloaded   bool          `json:"downloaded" db:"downloaded"`
	CreatedAt    time.Time     `json:"-" db:"created_at"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type OrderNew struct {
	Items []ItemNew `json:"items" validate:"required,min=1,dive"`
}

type ItemNew struct {
	UnitID   string        `json:"unitId" validate:"required,uuid4"`
	ItemType unit.ItemType `json:"itemType" validate:"required"`
}

// CheckItems rejects unknown variants and repeated (unit, variant)
// pairs, which would otherwise collide on the line-item primary key.
func CheckItems(items []ItemNew) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if !it.ItemType.Valid() {
			return fmt.Errorf("unknown item type %q", it.ItemType)
		}

		k := it.UnitID + "/" + string(it.ItemType)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("item %s %s appears more than once", it.UnitID, it.ItemType)
		}
		seen[k] = struct{}{}
	}

	return nil
}
