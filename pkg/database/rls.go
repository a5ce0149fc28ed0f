package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

// AppRole is the unprivileged role the RLS policies apply to. It is created
// by the migrations and assumed with SET LOCAL ROLE for every caller query.
const AppRole = "crewboard_app"

type txKey struct{}

// WithCallerRLS runs fn in a transaction where row-level security evaluates
// against userID:
//
//  1. SET LOCAL ROLE crewboard_app drops owner privileges
//  2. set_config('app.current_user_id', ..., true) binds the caller
//  3. the helper functions (get_user_org_id, is_user_admin,
//     get_user_job_site_ids, get_user_site_role) read that setting
//
// Both settings are transaction-local, so pooled connections come back
// clean. Nested calls reuse the outer transaction.
func (db *DB) WithCallerRLS(ctx context.Context, userID uuid.UUID, fn func(context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		// Role names cannot be bound as parameters; AppRole is a constant.
		if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+AppRole); err != nil {
			return fmt.Errorf("failed to assume %s: %w", AppRole, err)
		}
		if _, err := tx.ExecContext(ctx, "SELECT set_config('app.current_user_id', $1, true)", userID.String()); err != nil {
			return fmt.Errorf("failed to bind caller %s: %w", userID, err)
		}

		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// WithActor binds the actor stored in ctx. System actors run on the owner
// connection without RLS; they exist only for CLI and background work.
func (db *DB) WithActor(ctx context.Context, fn func(context.Context) error) error {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return errors.Unauthorized("no authenticated caller")
	}
	if a.IsSystem() {
		if txFromContext(ctx) != nil {
			return fn(ctx)
		}
		return db.Transaction(ctx, func(tx *sqlx.Tx) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
	}
	return db.WithCallerRLS(ctx, a.ID, fn)
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
