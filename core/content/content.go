// Package content is the gated file gateway: it materializes per-user
// copies when an order completes, issues short-lived signed download
// grants while the access window is open, and revokes consumed copies.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/DARK-V-98/oshadividarshana-api/storage"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrOrderNotCompleted = errors.New("order not completed")
	ErrWindowExpired     = errors.New("download window expired")
)

// FileName maps an item type to the fixed master file name. The mapping
// is part of the storage contract: files are uploaded out-of-band under
// exactly these names.
func FileName(t unit.ItemType) string {
	switch t {
	case unit.SinhalaNote:
		return "sinhala-note.pdf"
	case unit.SinhalaAssignment:
		return "sinhala-assignment.pdf"
	case unit.EnglishNote:
		return "english-note.pdf"
	case unit.EnglishAssignment:
		return "english-assignment.pdf"
	}
	return ""
}

// MasterPath is the canonical, shared location of a unit variant.
func MasterPath(unitID string, t unit.ItemType) string {
	return fmt.Sprintf("units/%s/%s", unitID, FileName(t))
}

// UserPath is where a buyer's own copy is materialized.
func UserPath(userID, orderID, unitID string, t unit.ItemType) string {
	return fmt.Sprintf("user-content/%s/%s/%s-%s.pdf", userID, orderID, unitID, t)
}

// Materialize copies every purchased item's master file into the buyer's
// storage space and records the copy on the line item. A missing master
// or a failed copy is not fatal: the item is recorded without a file and
// the loop carries on, so one broken upload never blocks the rest of the
// order. Returns how many files were copied.
func Materialize(ctx context.Context, db *sqlx.DB, store storage.Storage, log logrus.FieldLogger, ord order.Order, opTimeout time.Duration) (int, error) {
	items := ord.Items
	if len(items) == 0 {
		fetched, err := order.FetchItems(ctx, db, ord.ID)
		if err != nil {
			return 0, err
		}
		items = fetched
	}

	n := 0
	for _, it := range items {
		src := MasterPath(it.UnitID, it.ItemType)
		dst := UserPath(ord.UserID, ord.ID, it.UnitID, it.ItemType)

		cctx, cancel := context.WithTimeout(ctx, opTimeout)
		err := store.Copy(cctx, src, dst)
		cancel()

		if err != nil {
			log.WithFields(logrus.Fields{
				"order":   ord.ID,
				"unit":    it.UnitID,
				"type":    it.ItemType,
				"message": err,
			}).Warn("skipping item during materialization")

			if err := order.SetItemFile(ctx, db, ord.ID, it.UnitID, it.ItemType, nil); err != nil {
				log.WithField("message", err).Error("recording missing item file")
			}
			continue
		}

		if err := order.SetItemFile(ctx, db, ord.ID, it.UnitID, it.ItemType, &dst); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}
