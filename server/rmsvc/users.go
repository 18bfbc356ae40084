package rmsvc

import (
	"context"
	"errors"
	"net/mail"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/serr"
	"github.com/google/uuid"
)

// Errors returned by the user operations match serr.ErrBadArgument for
// malformed input, serr.ErrNotFound for a missing user, serr.ErrAlreadyExists
// when a username or ID is taken and serr.ErrDB for anything the store did
// wrong.

// GetAllUsers returns every user, ordered by username.
func (svc Service) GetAllUsers(ctx context.Context) ([]dao.User, error) {
	users, err := svc.DB.Users().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}

	return users, nil
}

// GetUser returns the user with the given ID, with the number of grammars it
// owns.
func (svc Service) GetUser(ctx context.Context, id string) (dao.User, error) {
	uid, err := parseID(id, "ID")
	if err != nil {
		return dao.User{}, err
	}
	return svc.lookupUser(ctx, uid)
}

// CreateUser stores a new user. email may be empty. The password is stored
// hashed.
func (svc Service) CreateUser(ctx context.Context, username, password, email string, role dao.Role) (dao.User, error) {
	if username == "" {
		return dao.User{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	if password == "" {
		return dao.User{}, serr.New("password cannot be blank", serr.ErrBadArgument)
	}
	addr, err := parseEmail(email)
	if err != nil {
		return dao.User{}, err
	}
	if err := svc.usernameFree(ctx, username); err != nil {
		return dao.User{}, err
	}

	hash, err := svc.hashPassword(password)
	if err != nil {
		return dao.User{}, err
	}

	user, err := svc.DB.Users().Create(ctx, dao.User{
		Username: username,
		Password: hash,
		Email:    addr,
		Role:     role,
	})
	if err != nil {
		return dao.User{}, userWriteError("could not create user", err)
	}

	svc.logger().Debug("user created", "user", user.Username, "role", user.Role.String())
	return user, nil
}

// UpdateUser replaces the ID, username, email and role of the user with ID
// curID. The password is changed with UpdatePassword instead. When the ID
// changes, the grammars of the user are moved to the new ID.
func (svc Service) UpdateUser(ctx context.Context, curID, newID, username, email string, role dao.Role) (dao.User, error) {
	if username == "" {
		return dao.User{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	addr, err := parseEmail(email)
	if err != nil {
		return dao.User{}, err
	}
	oldUID, err := parseID(curID, "current ID")
	if err != nil {
		return dao.User{}, err
	}
	newUID, err := parseID(newID, "new ID")
	if err != nil {
		return dao.User{}, err
	}

	user, err := svc.lookupUser(ctx, oldUID)
	if err != nil {
		return dao.User{}, err
	}
	if oldUID != newUID {
		if err := svc.idFree(ctx, newUID); err != nil {
			return dao.User{}, err
		}
	}
	if user.Username != username {
		if err := svc.usernameFree(ctx, username); err != nil {
			return dao.User{}, err
		}
	}

	user.ID = newUID
	user.Username = username
	user.Email = addr
	user.Role = role

	updated, err := svc.DB.Users().Update(ctx, oldUID, user)
	if err != nil {
		return dao.User{}, userWriteError("could not update user", err)
	}

	if oldUID != newUID {
		moved, err := svc.reownGrammars(ctx, oldUID, newUID)
		if err != nil {
			return dao.User{}, err
		}
		if moved > 0 {
			svc.logger().Debug("grammars moved to new user ID", "user", updated.Username, "grammars", moved)
			return svc.lookupUser(ctx, newUID)
		}
	}

	return updated, nil
}

// UpdatePassword sets the password of the user with the given ID. It cannot
// be blank.
func (svc Service) UpdatePassword(ctx context.Context, id, password string) (dao.User, error) {
	if password == "" {
		return dao.User{}, serr.New("password cannot be empty", serr.ErrBadArgument)
	}
	uid, err := parseID(id, "ID")
	if err != nil {
		return dao.User{}, err
	}

	user, err := svc.lookupUser(ctx, uid)
	if err != nil {
		return dao.User{}, err
	}
	if user.Password, err = svc.hashPassword(password); err != nil {
		return dao.User{}, err
	}

	updated, err := svc.DB.Users().Update(ctx, uid, user)
	if err != nil {
		return dao.User{}, userWriteError("could not update user", err)
	}
	return updated, nil
}

// DeleteUser deletes the user with the given ID and every grammar it owns.
// The returned user is as it was just before deletion, and its Grammars is
// the number of grammars that were deleted with it.
func (svc Service) DeleteUser(ctx context.Context, id string) (dao.User, error) {
	uid, err := parseID(id, "ID")
	if err != nil {
		return dao.User{}, err
	}
	if _, err := svc.lookupUser(ctx, uid); err != nil {
		return dao.User{}, err
	}

	owned, err := svc.DB.Grammars().GetAllByOwner(ctx, uid)
	if err != nil {
		return dao.User{}, serr.WrapDB("could not get grammars of user", err)
	}
	for _, g := range owned {
		if _, err := svc.DB.Grammars().Delete(ctx, g.ID); err != nil && !errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.WrapDB("could not delete grammar of user", err)
		}
	}

	user, err := svc.DB.Users().Delete(ctx, uid)
	if err != nil {
		return dao.User{}, userWriteError("could not delete user", err)
	}
	user.Grammars = len(owned)

	svc.logger().Debug("user deleted", "user", user.Username, "grammars", user.Grammars)
	return user, nil
}

// EnsureAdmin creates an admin user with the given username and password if
// no user with that username exists yet. It returns whether one was created.
func (svc Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := svc.CreateUser(ctx, username, password, "", dao.Admin)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// reownGrammars gives every grammar owned by from to to and returns how many
// there were. A store that cascades the ID change itself leaves none to move.
func (svc Service) reownGrammars(ctx context.Context, from, to uuid.UUID) (int, error) {
	owned, err := svc.DB.Grammars().GetAllByOwner(ctx, from)
	if err != nil {
		return 0, serr.WrapDB("could not get grammars of user", err)
	}
	for _, g := range owned {
		g.Owner = to
		if _, err := svc.DB.Grammars().Update(ctx, g.ID, g); err != nil {
			return 0, serr.WrapDB("could not move grammar to new user ID", err)
		}
	}
	return len(owned), nil
}

func (svc Service) lookupUser(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user, err := svc.DB.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.New("user not found", serr.ErrNotFound)
		}
		return dao.User{}, serr.WrapDB("could not get user", err)
	}
	return user, nil
}

func (svc Service) usernameFree(ctx context.Context, username string) error {
	_, err := svc.DB.Users().GetByUsername(ctx, username)
	if err == nil {
		return serr.New("a user with that username already exists", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return serr.WrapDB("", err)
	}
	return nil
}

func (svc Service) idFree(ctx context.Context, id uuid.UUID) error {
	_, err := svc.DB.Users().GetByID(ctx, id)
	if err == nil {
		return serr.New("a user with that ID already exists", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return serr.WrapDB("", err)
	}
	return nil
}

// userWriteError translates an error from writing to the user repository.
func userWriteError(msg string, err error) error {
	switch {
	case errors.Is(err, dao.ErrConstraintViolation):
		return serr.New("a user with that ID or username already exists", serr.ErrAlreadyExists)
	case errors.Is(err, dao.ErrNotFound):
		return serr.New("user not found", serr.ErrNotFound)
	default:
		return serr.WrapDB(msg, err)
	}
}

func parseID(id, what string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, serr.New(what+" is not valid", serr.ErrBadArgument)
	}
	return uid, nil
}

func parseEmail(email string) (*mail.Address, error) {
	if email == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, serr.New("email is not valid", err, serr.ErrBadArgument)
	}
	return addr, nil
}
