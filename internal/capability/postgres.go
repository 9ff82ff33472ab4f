package capability

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ktoodev/onesignal-push-permissions/internal/platform/db"
)

// pgForeignKeyViolation is the SQLSTATE raised when role_capabilities
// references a missing role.
const pgForeignKeyViolation = "23503"

// replaceLockKey names the advisory lock taken by WithTx.
const replaceLockKey = "role_capabilities"

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGRoleStore implements RoleStore on the roles and role_capabilities tables.
type PGRoleStore struct {
	pgRoles
	pool *pgxpool.Pool
}

// NewPGRoleStore constructs a PostgreSQL RoleStore.
func NewPGRoleStore(pool *pgxpool.Pool) *PGRoleStore {
	return &PGRoleStore{pgRoles: pgRoles{q: pool}, pool: pool}
}

// WithTx runs fn under the role_capabilities advisory lock.
func (s *PGRoleStore) WithTx(ctx context.Context, fn func(context.Context, TxRoleStore) error) error {
	return db.WithLockedTx(ctx, s.pool, replaceLockKey, func(tx pgx.Tx) error {
		return fn(ctx, pgRoles{q: tx})
	})
}

type pgRoles struct {
	q querier
}

func (r pgRoles) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM roles ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r pgRoles) RoleHasCapability(ctx context.Context, roleID, capability string) (bool, error) {
	var has bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_capabilities WHERE role_id = $1 AND capability = $2)`,
		roleID, capability,
	).Scan(&has)
	return has, err
}

func (r pgRoles) RoleCapabilities(ctx context.Context, capability string) ([]RoleCapability, error) {
	rows, err := r.q.Query(ctx, `
SELECT r.id, r.name, rc.role_id IS NOT NULL
FROM roles r
LEFT JOIN role_capabilities rc ON rc.role_id = r.id AND rc.capability = $1
ORDER BY r.position, r.id`, capability)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoleCapability
	for rows.Next() {
		var rc RoleCapability
		if err := rows.Scan(&rc.ID, &rc.Name, &rc.HasCapability); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r pgRoles) AnyRoleHasCapability(ctx context.Context, roleIDs []string, capability string) (bool, error) {
	var has bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_capabilities WHERE role_id = ANY($1) AND capability = $2)`,
		roleIDs, capability,
	).Scan(&has)
	return has, err
}

func (r pgRoles) AddCapability(ctx context.Context, roleID, capability string) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO role_capabilities (role_id, capability) VALUES ($1, $2) ON CONFLICT (role_id, capability) DO NOTHING`,
		roleID, capability,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrUnknownRole
	}
	return err
}

func (r pgRoles) RemoveCapability(ctx context.Context, roleID, capability string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM role_capabilities WHERE role_id = $1 AND capability = $2`, roleID, capability)
	return err
}

var _ RoleStore = (*PGRoleStore)(nil)
