package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"rulingsafe/internal/archive"
	"rulingsafe/internal/config"
	"rulingsafe/internal/encryption"
	"rulingsafe/internal/fs"
	"rulingsafe/internal/journal"
	"rulingsafe/internal/rs"
)

// FramelessTitlebarPref is the preference stored in Config.FramelessTitlebar
// rather than in the free-form preference map.
const FramelessTitlebarPref = "frameless_titlebar"

// RSApp is the application layer between the CLI and the stores. It builds
// every dependency from config, resolves the active session for each call,
// and records mutating calls in the journal.
type RSApp struct {
	cfg       *config.Config
	state     *rs.ConfigStore
	users     *rs.UserRegistry
	active    *rs.ActiveUserSession
	cases     *rs.CaseStore
	links     *rs.LinkStore
	docs      *rs.DocumentStore
	checker   *rs.Checker
	fsmgr     *fs.OSFilesystemManager
	journal   rs.Journal
	encryptor rs.Encryptor
	desktop   Desktop
	logger    rs.Logger
	clock     rs.Clock
	logFile   *os.File
}

// NewRSApp creates a fully wired RSApp from cfg. The caller must call Close.
func NewRSApp(cfg *config.Config, desktop Desktop) (*RSApp, error) {
	opID := uuid.New().String()[:8]
	logger, logFile, err := newLogger(cfg.LogDir, opID, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := newRSApp(cfg, desktop, &slogAdapter{l: logger}, rs.RealClock{}, rs.UUIDGenerator{})
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

func newRSApp(cfg *config.Config, desktop Desktop, logger rs.Logger, clock rs.Clock, idgen rs.IDGenerator) (*RSApp, error) {
	j, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := j.CheckSchema(); err != nil {
		j.Close()
		return nil, fmt.Errorf("journal schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Archive)
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	var ignore []string
	if len(cfg.Documents.Ignore) > 0 {
		ignore = cfg.Documents.Ignore
	}
	fsmgr := fs.NewOSFilesystemManager(ignore)

	state := rs.NewConfigStore(cfg.StatePath, logger)
	cases := rs.NewCaseStore(logger, clock)
	return &RSApp{
		cfg:       cfg,
		state:     state,
		users:     rs.NewUserRegistry(state, logger, clock),
		active:    rs.NewActiveUserSession(state),
		cases:     cases,
		links:     rs.NewLinkStore(logger, clock, idgen),
		docs:      rs.NewDocumentStore(fsmgr, logger),
		checker:   rs.NewChecker(cases),
		fsmgr:     fsmgr,
		journal:   j,
		encryptor: enc,
		desktop:   desktop,
		logger:    logger,
		clock:     clock,
	}, nil
}

// record runs fn as a journaled operation. fn's error is returned unchanged.
func (a *RSApp) record(op *Operation, fn func() error) error {
	username, err := a.active.Get()
	if err != nil {
		return fmt.Errorf("journaling %s: reading active user: %w", op.Name, err)
	}
	started, err := a.journal.Begin(op.Name, op.Parameters, username, a.clock.Now())
	if err != nil {
		return fmt.Errorf("journaling %s: %w", op.Name, err)
	}
	op.ID = started.ID
	if !op.Persisted() {
		return fmt.Errorf("journaling %s: no operation id assigned", op.Name)
	}

	runErr := fn()
	if runErr != nil {
		op.Status = rs.StatusError
		a.logger.Error("operation failed", "operation", op.Name, "error", runErr)
	}
	if err := a.journal.Finish(op.ID, op.Status, a.clock.Now()); err != nil {
		a.logger.Warn("could not finish journal entry", "operation", op.Name, "error", err)
	}
	return runErr
}

func (a *RSApp) session() (rs.Session, error) {
	return a.active.Session()
}

// caseFolder resolves key to an existing case folder of the active user.
func (a *RSApp) caseFolder(key string) (rs.Session, string, error) {
	sess, err := a.session()
	if err != nil {
		return rs.Session{}, "", err
	}
	folder, err := sess.CaseFolder(key)
	if err != nil {
		return rs.Session{}, "", err
	}
	return sess, folder, nil
}

// Storage

// SetStorageRoot makes <dir>/RulingSafe the storage root.
func (a *RSApp) SetStorageRoot(dir string) (string, error) {
	var root string
	err := a.record(NewOperation("storage.set", "dir", dir), func() error {
		var err error
		root, err = a.state.SetStorageRoot(dir)
		return err
	})
	return root, err
}

// StorageRoot returns the configured storage root, or "" if unset.
func (a *RSApp) StorageRoot() (string, error) {
	return a.state.StorageRoot()
}

// Users

// CreateUser registers a user and makes them the active user.
func (a *RSApp) CreateUser(req rs.CreateUserRequest) (*rs.User, error) {
	var user *rs.User
	err := a.record(NewOperation("user.create", "username", req.Username), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		if user, err = a.users.Create(sess, req); err != nil {
			return err
		}
		return a.active.Set(user.Username)
	})
	return user, err
}

// ListUsers returns the registered users.
func (a *RSApp) ListUsers() ([]rs.User, error) {
	return a.users.List()
}

// DeleteUser removes a user and all of their cases.
func (a *RSApp) DeleteUser(username string) error {
	return a.record(NewOperation("user.delete", "username", username), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		return a.users.Delete(sess, username)
	})
}

// UseUser makes username the active user. It reports whether the user is
// registered; an unregistered name is still accepted.
func (a *RSApp) UseUser(username string) (bool, error) {
	username = strings.TrimSpace(username)
	var registered bool
	err := a.record(NewOperation("user.use", "username", username), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		if registered, err = a.users.Exists(sess, username); err != nil {
			return err
		}
		if !registered {
			a.logger.Warn("active user is not registered", "username", username)
		}
		return a.active.Set(username)
	})
	return registered, err
}

// ActiveUser returns the active user, or "" when nobody is active.
func (a *RSApp) ActiveUser() (string, error) {
	return a.active.Get()
}

// Logout clears the active user.
func (a *RSApp) Logout() error {
	return a.record(NewOperation("user.logout"), a.active.Clear)
}

// Cases

// CreateCase creates a case for the active user.
func (a *RSApp) CreateCase(req rs.CaseRequest) (*rs.Case, error) {
	var c *rs.Case
	err := a.record(NewOperation("case.create", "key", req.Key()), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		c, err = a.cases.Create(sess, req)
		return err
	})
	return c, err
}

// ListCases returns the active user's cases.
func (a *RSApp) ListCases() ([]rs.Case, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	return a.cases.List(sess)
}

// GetCase returns one case of the active user.
func (a *RSApp) GetCase(key string) (*rs.Case, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	return a.cases.Get(sess, key)
}

// UpdateCase applies fn to the current fields of the case at key and saves
// the result, moving the folder when the key changes.
func (a *RSApp) UpdateCase(key string, fn func(req *rs.CaseRequest)) (*rs.Case, error) {
	var c *rs.Case
	err := a.record(NewOperation("case.update", "key", key), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		current, err := a.cases.Get(sess, key)
		if err != nil {
			return err
		}
		req := rs.RequestFromCase(current)
		fn(&req)
		c, err = a.cases.Update(sess, key, req)
		return err
	})
	return c, err
}

// DeleteCase removes a case and its folder.
func (a *RSApp) DeleteCase(key string) error {
	return a.record(NewOperation("case.delete", "key", key), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		return a.cases.Delete(sess, key)
	})
}

// RevealCase opens the case folder in the file manager.
func (a *RSApp) RevealCase(key string) error {
	_, folder, err := a.caseFolder(key)
	if err != nil {
		return err
	}
	return a.desktop.Reveal(folder)
}

// CheckCases compares the active user's case records with their folders.
func (a *RSApp) CheckCases() (*rs.Report, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	return a.checker.Check(sess)
}

// ExportCase writes the case at key to destPath as an archive, encrypted
// when the archive settings ask for it. Returns the number of files packed.
func (a *RSApp) ExportCase(key, destPath string) (int, error) {
	var n int
	err := a.record(NewOperation("case.export", "key", key, "dest", destPath), func() error {
		sess, folder, err := a.caseFolder(key)
		if err != nil {
			return err
		}
		c, err := a.cases.Get(sess, key)
		if err != nil {
			return err
		}

		pack := func(w io.Writer) error {
			var err error
			n, err = archive.Export(w, c, folder, a.fsmgr.Ignored)
			return err
		}
		if !encryption.Enabled(a.cfg.Archive) {
			return archive.WriteFile(destPath, pack)
		}
		if !a.encryptor.IsConfigured() {
			return fmt.Errorf("%w: encryption keys not set up (run 'rulingsafe keys init')", rs.ErrPrecondition)
		}
		return archive.WriteFile(destPath, func(w io.Writer) error {
			return archive.Seal(w, a.encryptor, pack)
		})
	})
	return n, err
}

// ImportCase restores an archive as a new case of the active user.
// passphrase is only called when the archive is encrypted. A failed import
// leaves no case behind.
func (a *RSApp) ImportCase(srcPath string, passphrase func() (string, error)) (*archive.Result, error) {
	var result *archive.Result
	err := a.record(NewOperation("case.import", "src", srcPath), func() error {
		sess, err := a.session()
		if err != nil {
			return err
		}

		var restoredKey string
		restore := func(c rs.Case) (string, error) {
			restored, err := a.cases.Restore(sess, c)
			if err != nil {
				return "", err
			}
			restoredKey = restored.Key
			return sess.CaseFolder(restored.Key)
		}

		result, err = a.readArchive(srcPath, passphrase, restore)
		if err != nil && restoredKey != "" {
			result = nil
			if derr := a.cases.Delete(sess, restoredKey); derr != nil {
				a.logger.Error("could not roll back partial import", "key", restoredKey, "error", derr)
			} else {
				a.logger.Warn("rolled back partial import", "key", restoredKey)
			}
		}
		return err
	})
	return result, err
}

// readArchive opens srcPath, decrypting it when needed, and imports it.
func (a *RSApp) readArchive(srcPath string, passphrase func() (string, error), restore archive.RestoreFunc) (*archive.Result, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)

	plain, err := archive.IsPlain(br)
	if err != nil {
		return nil, err
	}
	if plain {
		return archive.Import(br, restore)
	}

	pass, err := passphrase()
	if err != nil {
		return nil, err
	}
	dec, err := a.encryptor.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	var result *archive.Result
	err = archive.Unseal(br, dec, func(r io.Reader) error {
		var err error
		result, err = archive.Import(r, restore)
		return err
	})
	return result, err
}

// SetupKeys generates the archive encryption keys.
func (a *RSApp) SetupKeys(passphrase string) error {
	return a.record(NewOperation("keys.init"), func() error {
		return a.encryptor.Setup(passphrase)
	})
}

// Links

// AddLink adds a reference link to the case at key.
func (a *RSApp) AddLink(key string, req rs.LinkRequest) (*rs.Link, error) {
	var link *rs.Link
	err := a.record(NewOperation("link.add", "key", key, "url", req.URL), func() error {
		_, folder, err := a.caseFolder(key)
		if err != nil {
			return err
		}
		link, err = a.links.Add(folder, req)
		return err
	})
	return link, err
}

// ListLinks returns the links of the case at key.
func (a *RSApp) ListLinks(key string) ([]rs.Link, error) {
	_, folder, err := a.caseFolder(key)
	if err != nil {
		return nil, err
	}
	return a.links.List(folder)
}

// DeleteLink removes a link and reports whether it existed.
func (a *RSApp) DeleteLink(key, id string) (bool, error) {
	var removed bool
	err := a.record(NewOperation("link.delete", "key", key, "id", id), func() error {
		_, folder, err := a.caseFolder(key)
		if err != nil {
			return err
		}
		removed, err = a.links.Delete(folder, id)
		return err
	})
	return removed, err
}

// OpenLink opens a link of the case at key in the browser.
func (a *RSApp) OpenLink(key, id string) error {
	_, folder, err := a.caseFolder(key)
	if err != nil {
		return err
	}
	link, err := a.links.Get(folder, id)
	if err != nil {
		return err
	}
	// links.json may hold entries written before URLs were checked.
	if err := rs.CheckURL(link.URL); err != nil {
		return err
	}
	return a.desktop.OpenURL(strings.TrimSpace(link.URL))
}

// Documents

// AddDocuments copies files into the documents folder of the case at key.
func (a *RSApp) AddDocuments(key string, paths []string) ([]string, error) {
	var copied []string
	err := a.record(NewOperation("doc.add", "key", key, "files", strings.Join(paths, ",")), func() error {
		_, folder, err := a.caseFolder(key)
		if err != nil {
			return err
		}
		copied, err = a.docs.Add(folder, paths)
		return err
	})
	return copied, err
}

// ListDocuments returns the documents of the case at key.
func (a *RSApp) ListDocuments(key string) ([]rs.Document, error) {
	_, folder, err := a.caseFolder(key)
	if err != nil {
		return nil, err
	}
	return a.docs.List(folder)
}

// RemoveDocument deletes one document and reports whether it existed.
func (a *RSApp) RemoveDocument(key, name string) (bool, error) {
	var removed bool
	err := a.record(NewOperation("doc.remove", "key", key, "name", name), func() error {
		_, folder, err := a.caseFolder(key)
		if err != nil {
			return err
		}
		removed, err = a.docs.Remove(folder, name)
		return err
	})
	return removed, err
}

// Preferences

// SetPreference stores a UI preference.
func (a *RSApp) SetPreference(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: preference name is required", rs.ErrInvalid)
	}
	return a.record(NewOperation("prefs.set", "name", name, "value", value), func() error {
		return a.state.Update(func(cfg *rs.Config) error {
			if name == FramelessTitlebarPref {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("%w: %s must be true or false", rs.ErrInvalid, name)
				}
				cfg.FramelessTitlebar = b
				return nil
			}
			if cfg.Preferences == nil {
				cfg.Preferences = make(map[string]string)
			}
			cfg.Preferences[name] = value
			return nil
		})
	})
}

// GetPreference returns a UI preference and whether it is set.
func (a *RSApp) GetPreference(name string) (string, bool, error) {
	cfg, err := a.state.Load()
	if err != nil {
		return "", false, err
	}
	if name == FramelessTitlebarPref {
		return strconv.FormatBool(cfg.FramelessTitlebar), true, nil
	}
	v, ok := cfg.Preferences[name]
	return v, ok, nil
}

// History returns up to limit journaled operations, newest first.
func (a *RSApp) History(limit int) ([]*rs.Operation, error) {
	return a.journal.List(limit)
}

// Close releases the journal and the log file.
func (a *RSApp) Close() error {
	var firstErr error
	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
