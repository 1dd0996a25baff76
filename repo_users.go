package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun-backed UserStore. It keeps the generic repository surface
// available for callers that need raw access alongside the auth contract.
type Users interface {
	UserStore
	repository.Repository[*User]

	SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
}

type users struct {
	repository.Repository[*User]
	db        *bun.DB
	useHashid bool
}

var (
	_ Users                        = (*users)(nil)
	_ UserStore                    = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithDeterministicIDs derives new user ids from the registration email
// instead of random uuids.
func WithDeterministicIDs() UsersOption {
	return func(u *users) {
		u.useHashid = true
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) Save(ctx context.Context, user *User) (*User, error) {
	return a.SaveTx(ctx, a.db, user)
}

func (a *users) SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	a.prepareDefaults(user)

	record, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		return nil, remapUniqueViolation(err)
	}

	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.ExistsByUsernameTx(ctx, a.db, username)
}

func (a *users) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.findByColumn(ctx, "email", email)
}

func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	return a.findByColumn(ctx, "id", id)
}

func (a *users) findByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(column, value)
		}
		return nil, err
	}

	return record, nil
}

func (a *users) prepareDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil && a.useHashid {
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// remapUniqueViolation turns storage level unique index errors into the
// duplicate domain errors. The index is the authoritative guard; the
// existence pre-checks in Register only produce the friendly common case.
func remapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") {
		return err
	}

	switch {
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "username"):
		return ErrDuplicateUsername
	}

	return errors.Wrap(err, errors.CategoryConflict, "unique constraint violation")
}
