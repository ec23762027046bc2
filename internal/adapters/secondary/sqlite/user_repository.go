package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"usuario"`
	PasswordHash string `db:"senha_hash"`
	Role         string `db:"papel"`
	CreatedAt    string `db:"criado_em"`
}

func (r userRow) toDomain() (*domain.User, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user %d: criado_em: %w", r.ID, err)
	}
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    createdAt,
	}, nil
}

// UserRepository persists users in SQLite.
type UserRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepository{db: db, sb: builder()}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query, args, err := r.sb.Insert("usuarios").
		Columns("usuario", "senha_hash", "papel", "criado_em").
		Values(user.Username, user.PasswordHash, string(user.Role), formatTime(user.CreatedAt)).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("create user", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, apperrors.ErrUserExists
		}
		return nil, apperrors.NewStorageError("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.NewStorageError("create user", err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"usuario": username})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.sb.Select("id", "usuario", "senha_hash", "papel", "criado_em").
		From("usuarios").
		Where(where).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("get user", err)
	}

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewStorageError("get user", err)
	}

	user, err := row.toDomain()
	if err != nil {
		return nil, apperrors.NewStorageError("get user", err)
	}
	return user, nil
}
