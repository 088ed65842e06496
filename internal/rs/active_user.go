package rs

// ActiveUserSession records who is currently using the application.
// It does not check that the user is registered.
type ActiveUserSession struct {
	config *ConfigStore
}

// NewActiveUserSession creates an ActiveUserSession over config.
func NewActiveUserSession(config *ConfigStore) *ActiveUserSession {
	return &ActiveUserSession{config: config}
}

// Set makes username the active user.
func (a *ActiveUserSession) Set(username string) error {
	return a.config.Update(func(cfg *Config) error {
		cfg.ActiveUser = username
		return nil
	})
}

// Get returns the active user, or "" when nobody is active.
func (a *ActiveUserSession) Get() (string, error) {
	cfg, err := a.config.Load()
	if err != nil {
		return "", err
	}
	return cfg.ActiveUser, nil
}

// Clear removes the active user.
func (a *ActiveUserSession) Clear() error {
	return a.config.Update(func(cfg *Config) error {
		cfg.ActiveUser = ""
		return nil
	})
}

// Session snapshots the storage root and active user for one operation.
func (a *ActiveUserSession) Session() (Session, error) {
	cfg, err := a.config.Load()
	if err != nil {
		return Session{}, err
	}
	return Session{StorageRoot: cfg.BasePath, ActiveUser: cfg.ActiveUser}, nil
}
