package service

import (
	"context"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/custody"
	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
)

// Withdraw pays a project's whole escrow to its registered owner, or to
// recipient when arbitrary recipients are enabled.
func (s *Service) Withdraw(ctx context.Context, projectID id.ProjectID, caller, recipient id.Account) (*custody.Withdrawal, error) {
	var w *custody.Withdrawal
	err := s.run(ctx, opWithdraw, func(ctx context.Context, store ports.Store) error {
		var err error
		w, err = s.custody.Withdraw(ctx, store, projectID, caller, recipient)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "escrow_withdrawn",
		"project_id", projectID.String(),
		"caller", caller.String(),
		"recipient", w.Recipient.String(),
		"amount", w.Amount.String(),
	)
	if s.metrics != nil {
		s.metrics.AddWithdrawn(w.Amount.InexactFloat64())
	}
	return w, nil
}

// RegisterProject sets the payout address of a project.
func (s *Service) RegisterProject(ctx context.Context, projectID id.ProjectID, owner id.Account) (*models.ProjectEscrow, error) {
	var escrow *models.ProjectEscrow
	err := s.run(ctx, opRegisterProject, func(ctx context.Context, store ports.Store) error {
		var err error
		escrow, err = s.custody.RegisterProject(ctx, store, projectID, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "project_registered",
		"project_id", projectID.String(),
		"owner", owner.String(),
	)
	return escrow, nil
}

// Escrow returns a project's escrow.
func (s *Service) Escrow(ctx context.Context, projectID id.ProjectID) (*models.ProjectEscrow, error) {
	var escrow *models.ProjectEscrow
	err := s.read(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		escrow, err = s.custody.Escrow(ctx, store, projectID)
		return err
	})
	return escrow, err
}

// Balance returns the proceeds credited to an account by sales and withdrawals.
func (s *Service) Balance(ctx context.Context, account id.Account) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.read(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		balance, err = store.FindBalance(ctx, account)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
		}
		return nil
	})
	return balance, err
}
