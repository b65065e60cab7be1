package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CloseRequest describes a closing posting.
type CloseRequest struct {
	CompanyID      snowflake.ID
	CounterpartyID snowflake.ID
	EntryID        snowflake.ID
	ItemIDs        []snowflake.ID
	Now            time.Time
}

// ClosePlan is what a closing posting must write.
type ClosePlan struct {
	// Close are the OPEN items that flip to CLOSED.
	Close []snowflake.ID
	// Mirrors are the CLOSED rows recording each close.
	Mirrors []OpenItem
	// AlreadyClosed were requested but are CLOSED already; closing them is a no-op.
	AlreadyClosed []snowflake.ID
}

// PlanClose validates the locked items against req and builds the writes.
// locked must contain every item found for req.ItemIDs, read under a row lock.
func PlanClose(req CloseRequest, locked []OpenItem, newID func() snowflake.ID) (ClosePlan, error) {
	byID := make(map[snowflake.ID]OpenItem, len(locked))
	for _, item := range locked {
		byID[item.ID] = item
	}

	var plan ClosePlan
	seen := make(map[snowflake.ID]struct{}, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item, ok := byID[id]
		if !ok {
			return ClosePlan{}, ErrNotFound
		}
		if item.CompanyID != req.CompanyID || item.CounterpartyID != req.CounterpartyID {
			return ClosePlan{}, ErrForeignItem
		}
		if item.Status == StatusClosed {
			plan.AlreadyClosed = append(plan.AlreadyClosed, id)
			continue
		}

		closesID := item.ID
		entryID := req.EntryID
		closedAt := req.Now
		plan.Close = append(plan.Close, item.ID)
		plan.Mirrors = append(plan.Mirrors, OpenItem{
			ID:              newID(),
			CompanyID:       item.CompanyID,
			CounterpartyID:  item.CounterpartyID,
			AccountID:       item.AccountID,
			EntryID:         req.EntryID,
			DocumentDate:    item.DocumentDate,
			DocumentNumber:  item.DocumentNumber,
			DueDate:         item.DueDate,
			Amount:          item.Amount,
			Movement:        item.Movement.Mirror(),
			Status:          StatusClosed,
			ClosesItemID:    &closesID,
			ClosedByEntryID: &entryID,
			ClosedAt:        &closedAt,
			CreatedAt:       req.Now,
		})
	}
	return plan, nil
}
