// Package engine hosts the order and task cores on top of the SQLite store.
package engine

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wineinventory/internal/config"
	"wineinventory/internal/domain"
	"wineinventory/internal/events"
	"wineinventory/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Log    logrus.FieldLogger

	// mu serializes creation paths across copies of the engine.
	mu *sync.Mutex
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		Log:    logrus.StandardLogger(),
		mu:     &sync.Mutex{},
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) lock() func() {
	if e.mu == nil {
		return func() {}
	}
	e.mu.Lock()
	return e.mu.Unlock
}

func (e Engine) log() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func (e Engine) config() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return config.Default()
}

func (e Engine) location() *time.Location {
	loc, err := e.config().Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// writer stamps events with the engine clock.
func (e Engine) writer() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.NotFound("%s", msg)
	}
	return err
}
