package rs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UserRegistry manages user records. A user is recorded in the config, in
// <root>/users.json, and owns the directory <root>/users/<username>/.
type UserRegistry struct {
	config *ConfigStore
	logger Logger
	clock  Clock
}

// NewUserRegistry creates a UserRegistry.
func NewUserRegistry(config *ConfigStore, logger Logger, clock Clock) *UserRegistry {
	return &UserRegistry{
		config: config,
		logger: logger,
		clock:  clock,
	}
}

// List returns the registered users in registration order.
func (r *UserRegistry) List() ([]User, error) {
	cfg, err := r.config.Load()
	if err != nil {
		return nil, err
	}
	users := make([]User, len(cfg.Users))
	copy(users, cfg.Users)
	return users, nil
}

// Get returns the registered user with the given username.
func (r *UserRegistry) Get(username string) (*User, error) {
	users, err := r.List()
	if err != nil {
		return nil, err
	}
	if i := indexOfUser(users, strings.TrimSpace(username)); i >= 0 {
		return &users[i], nil
	}
	return nil, fmt.Errorf("user %q %w", username, ErrNotFound)
}

// Exists reports whether username is taken. A name counts as taken when it is
// registered in the config or users.json, or when a directory with that name
// exists under users/ (left behind by an earlier partial failure).
func (r *UserRegistry) Exists(sess Session, username string) (bool, error) {
	username = strings.TrimSpace(username)

	cfg, err := r.config.Load()
	if err != nil {
		return false, err
	}
	if indexOfUser(cfg.Users, username) >= 0 {
		return true, nil
	}

	usersFile, err := sess.UsersFile()
	if err != nil {
		return false, err
	}
	recorded, err := readList[User](usersFile, "users", r.logger)
	if err != nil {
		return false, err
	}
	if indexOfUser(recorded, username) >= 0 {
		return true, nil
	}

	dir, err := sess.userDir(username)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dir); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking user directory: %w", err)
	}
	return false, nil
}

// Create registers a new user and creates users/<username>/cases/.
// Directory creation tolerates leftovers from an earlier partial run.
func (r *UserRegistry) Create(sess Session, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)

	exists, err := r.Exists(sess, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("username %q %w", username, ErrDuplicate)
	}

	user := User{
		Username:   username,
		FirstName:  strings.TrimSpace(req.FirstName),
		MiddleName: strings.TrimSpace(req.MiddleName),
		LastName:   strings.TrimSpace(req.LastName),
		CreatedAt:  NewTimestamp(r.clock.Now()),
	}

	err = r.config.Update(func(cfg *Config) error {
		cfg.Users = append(cfg.Users, user)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	usersFile, err := sess.UsersFile()
	if err != nil {
		return nil, err
	}
	recorded, err := readList[User](usersFile, "users", r.logger)
	if err != nil {
		return nil, err
	}
	if err := writeList(usersFile, "users", append(recorded, user)); err != nil {
		return nil, fmt.Errorf("recording user: %w", err)
	}

	dir, err := sess.userDir(username)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(dir, CasesDirName), 0755); err != nil {
		return nil, fmt.Errorf("creating user directory: %w", err)
	}

	r.logger.Info("user created", "username", username, "path", dir)
	return &user, nil
}

// Delete unregisters username and removes its directory tree. Deleting a
// user that does not exist succeeds. If the user was active, nobody is
// active afterwards.
func (r *UserRegistry) Delete(sess Session, username string) error {
	username = strings.TrimSpace(username)
	dir, err := sess.userDir(username)
	if err != nil {
		return err
	}

	err = r.config.Update(func(cfg *Config) error {
		cfg.Users = removeUser(cfg.Users, username)
		if cfg.ActiveUser == username {
			cfg.ActiveUser = ""
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unregistering user: %w", err)
	}

	usersFile, err := sess.UsersFile()
	if err != nil {
		return err
	}
	recorded, err := readList[User](usersFile, "users", r.logger)
	if err != nil {
		return err
	}
	if remaining := removeUser(recorded, username); len(remaining) != len(recorded) {
		if err := writeList(usersFile, "users", remaining); err != nil {
			return fmt.Errorf("recording user removal: %w", err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing user directory: %w", err)
	}

	r.logger.Info("user deleted", "username", username)
	return nil
}

func indexOfUser(users []User, username string) int {
	for i := range users {
		if users[i].Username == username {
			return i
		}
	}
	return -1
}

func removeUser(users []User, username string) []User {
	kept := make([]User, 0, len(users))
	for _, u := range users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	return kept
}
