package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// runInUnitOfWork executes fn inside one transaction and commits it.
// A storage conflict is retried once with a fresh unit of work.
func runInUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, operation string, fn func(uow UnitOfWork) error) error {
	err := attemptUnitOfWork(ctx, factory, fn)
	if !errors.Is(err, ErrConflict) {
		return err
	}

	log.WithFields(log.Fields{
		"operation": operation,
		"error":     err,
	}).Warn("Storage conflict, retrying once")

	err = attemptUnitOfWork(ctx, factory, fn)
	if errors.Is(err, ErrConflict) {
		log.WithFields(log.Fields{
			"operation": operation,
			"error":     err,
		}).Warn("Storage conflict persisted after retry")
	}
	return err
}

func attemptUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("Failed to rollback transaction")
		}
	}()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
