package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/techzara/platform/types"
)

// UserRepository handles persistence for users and their owned
// UserInformation record.
type UserRepository struct {
	db        *sql.DB
	presences *PresenceRepository
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, presences: NewPresenceRepository(db)}
}

const selectUserColumns = `
		SELECT u.id, u.username, u.password, u.firstname, u.lastname, u.roles, u.is_enable, u.created_at,
			i.id, i.phone, i.address, i.bio, i.avatar_key
		FROM users u
		LEFT JOIN user_informations i ON i.id = u.user_info_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var (
		user      types.User
		roles     []string
		createdAt sql.NullTime
		infoID    sql.NullInt64
		info      types.UserInformation
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Firstname,
		&user.Lastname,
		pq.Array(&roles),
		&user.IsEnable,
		&createdAt,
		&infoID,
		&info.Phone,
		&info.Address,
		&info.Bio,
		&info.AvatarKey,
	); err != nil {
		return nil, err
	}

	user.SetRoles(roles)
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time
	}
	if infoID.Valid {
		info.ID = int(infoID.Int64)
		user.UserInfo = &info
	}
	return &user, nil
}

// List returns a page of users matching filter, ordered by id, together
// with the total number of matches.
func (r *UserRepository) List(ctx context.Context, filter types.UserFilter, offset, limit int) ([]*types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where, args := buildUserFilter(filter)

	countQuery := `SELECT COUNT(1) FROM users u` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	listQuery := selectUserColumns + where + fmt.Sprintf(`
		ORDER BY u.id
		OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	if err := r.attachPresences(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*types.User, error) {
	return r.getOne(ctx, selectUserColumns+`
		WHERE u.id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.getOne(ctx, selectUserColumns+`
		WHERE u.username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*types.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := r.attachPresences(ctx, []*types.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) attachPresences(ctx context.Context, users []*types.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	byUser, err := r.presences.listByUsers(ctx, ids)
	if err != nil {
		return err
	}
	for _, user := range users {
		for _, presence := range byUser[user.ID] {
			user.AddPresence(presence)
		}
	}
	return nil
}

// Create inserts user and its UserInformation, if any, in one transaction.
// The generated identifiers are written back onto user.
func (r *UserRepository) Create(ctx context.Context, user *types.User) (*types.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var infoID sql.NullInt64
		if user.UserInfo != nil {
			if err := insertUserInfo(ctx, tx, user.UserInfo); err != nil {
				return err
			}
			infoID = sql.NullInt64{Int64: int64(user.UserInfo.ID), Valid: true}
		}

		const query = `
			INSERT INTO users (username, password, firstname, lastname, roles, is_enable, created_at, user_info_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`
		if err := tx.QueryRowContext(
			ctx,
			query,
			user.Username,
			user.PasswordHash,
			user.Firstname,
			user.Lastname,
			pq.Array(user.Roles()),
			user.IsEnable,
			user.CreatedAt,
			infoID,
		).Scan(&user.ID); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update writes every persisted field of user. The owned UserInformation is
// inserted, updated or deleted to match user.UserInfo.
func (r *UserRepository) Update(ctx context.Context, user *types.User) (*types.User, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT user_info_id FROM users WHERE id = $1 FOR UPDATE`, user.ID).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		var infoID sql.NullInt64
		switch {
		case user.UserInfo != nil && current.Valid:
			user.UserInfo.ID = int(current.Int64)
			if err := updateUserInfo(ctx, tx, user.UserInfo); err != nil {
				return err
			}
			infoID = current
		case user.UserInfo != nil:
			if err := insertUserInfo(ctx, tx, user.UserInfo); err != nil {
				return err
			}
			infoID = sql.NullInt64{Int64: int64(user.UserInfo.ID), Valid: true}
		}

		const query = `
			UPDATE users
			SET username = $1,
				password = $2,
				firstname = $3,
				lastname = $4,
				roles = $5,
				is_enable = $6,
				created_at = $7,
				user_info_id = $8
			WHERE id = $9`
		if _, err := tx.ExecContext(
			ctx,
			query,
			user.Username,
			user.PasswordHash,
			user.Firstname,
			user.Lastname,
			pq.Array(user.Roles()),
			user.IsEnable,
			user.CreatedAt,
			infoID,
			user.ID,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("update user: %w", err)
		}

		if user.UserInfo == nil && current.Valid {
			return deleteUserInfo(ctx, tx, int(current.Int64))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user, its UserInformation and its presences.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var infoID sql.NullInt64
		err := tx.QueryRowContext(ctx, `DELETE FROM users WHERE id = $1 RETURNING user_info_id`, id).Scan(&infoID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete user: %w", err)
		}
		if infoID.Valid {
			return deleteUserInfo(ctx, tx, int(infoID.Int64))
		}
		return nil
	})
}

func (r *UserRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertUserInfo(ctx context.Context, tx *sql.Tx, info *types.UserInformation) error {
	const query = `
		INSERT INTO user_informations (phone, address, bio, avatar_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, query, info.Phone, info.Address, info.Bio, info.AvatarKey).Scan(&info.ID); err != nil {
		return fmt.Errorf("insert user information: %w", err)
	}
	return nil
}

func updateUserInfo(ctx context.Context, tx *sql.Tx, info *types.UserInformation) error {
	const query = `
		UPDATE user_informations
		SET phone = $1,
			address = $2,
			bio = $3,
			avatar_key = $4
		WHERE id = $5`
	if _, err := tx.ExecContext(ctx, query, info.Phone, info.Address, info.Bio, info.AvatarKey, info.ID); err != nil {
		return fmt.Errorf("update user information: %w", err)
	}
	return nil
}

func deleteUserInfo(ctx context.Context, tx *sql.Tx, id int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_informations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user information: %w", err)
	}
	return nil
}
