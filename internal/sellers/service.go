package sellers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	log "github.com/sirupsen/logrus"
)

type Store interface {
	// Create inserts s and returns it with its generated columns filled in.
	Create(ctx context.Context, s Seller) (Seller, error)
	Get(ctx context.Context, id int64) (Seller, error)
	// SetStatus moves the seller only while its status is still from.
	SetStatus(ctx context.Context, id int64, from, to Status) error
	UpdateBank(ctx context.Context, id int64, bank BankDetails) error
	// RefreshStats recomputes total_sales and the rating of a seller.
	RefreshStats(ctx context.Context, id int64) error
}

// approve, suspend, reinstate
var validNext = map[Status][]Status{
	StatusPending:   {StatusActive},
	StatusActive:    {StatusSuspended},
	StatusSuspended: {StatusActive},
}

type Service struct {
	Store Store
}

func (s *Service) Register(ctx context.Context, in Registration) (Seller, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ShopName = strings.TrimSpace(in.ShopName)
	in.ShopDescription = strings.TrimSpace(in.ShopDescription)
	in.Email = strings.TrimSpace(in.Email)
	if err := apperr.ValidateStruct(in); err != nil {
		return Seller{}, err
	}
	sel, err := s.Store.Create(ctx, Seller{
		UserID:          in.UserID,
		ShopName:        in.ShopName,
		ShopDescription: in.ShopDescription,
		Email:           in.Email,
		Status:          StatusPending,
	})
	if err != nil {
		err = apperr.Database("create seller", "seller", err)
		if apperr.IsConflict(err) {
			return Seller{}, apperr.Validation("user_id", "already registered as a seller")
		}
		return Seller{}, err
	}
	log.WithFields(log.Fields{"seller_id": sel.ID, "user_id": sel.UserID}).Info("seller registered")
	return sel, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Seller, error) {
	sel, err := s.Store.Get(ctx, id)
	if err != nil {
		return Seller{}, notFoundOr(apperr.Database("get seller", "seller", err), id)
	}
	return sel, nil
}

// ChangeStatus approves (pending to active), suspends (active to suspended) or
// reinstates (suspended to active) a seller. Setting the current status is a no-op.
func (s *Service) ChangeStatus(ctx context.Context, id int64, to Status) (Seller, error) {
	if to != StatusActive && to != StatusSuspended {
		return Seller{}, apperr.Validation("status", fmt.Sprintf("cannot set seller status to %q", to))
	}
	sel, err := s.Get(ctx, id)
	if err != nil {
		return Seller{}, err
	}
	if sel.Status == to {
		return sel, nil
	}
	if !canMove(sel.Status, to) {
		return Seller{}, apperr.Validation("status", fmt.Sprintf("cannot move seller from %s to %s", sel.Status, to))
	}
	if err := s.Store.SetStatus(ctx, id, sel.Status, to); err != nil {
		return Seller{}, notFoundOr(apperr.Database("set seller status", "seller", err), id)
	}
	log.WithFields(log.Fields{"seller_id": id, "from": sel.Status, "to": to}).Info("seller status changed")
	sel.Status = to
	return sel, nil
}

func canMove(from, to Status) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateBankDetails replaces all three bank fields; payouts need them before they can be marked paid.
func (s *Service) UpdateBankDetails(ctx context.Context, id int64, bank BankDetails) error {
	bank.BankName = strings.TrimSpace(bank.BankName)
	bank.AccountNumber = strings.TrimSpace(bank.AccountNumber)
	bank.AccountHolderName = strings.TrimSpace(bank.AccountHolderName)
	if err := apperr.ValidateStruct(bank); err != nil {
		return err
	}
	if err := s.Store.UpdateBank(ctx, id, bank); err != nil {
		return notFoundOr(apperr.Database("update bank details", "seller", err), id)
	}
	log.WithField("seller_id", id).Info("seller bank details updated")
	return nil
}

func notFoundOr(err error, id int64) error {
	if nf, ok := err.(*apperr.NotFoundError); ok && nf.ID == nil {
		return apperr.NotFound("seller", id)
	}
	return err
}
