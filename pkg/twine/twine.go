package twine

import (
	"github.com/mesh-intelligence/twine/internal/audit"
	"github.com/mesh-intelligence/twine/internal/lifecycle"
	"github.com/mesh-intelligence/twine/internal/migrate"
	"github.com/mesh-intelligence/twine/internal/sqlite"
	"github.com/mesh-intelligence/twine/internal/suggest"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// Engine bundles an opened store with the services built on it.
type Engine struct {
	Store    *sqlite.Store
	Recorder *audit.Recorder
	Manager  *lifecycle.Manager
	Migrator *migrate.Engine
	Suggest  *suggest.Service
}

// Open builds the full engine stack over a SQLite store at cfg.DataDir.
// The AI candidate source is wired only when an OpenAI credential is
// present in the environment; without one the suggestion service reports
// itself unavailable and everything else works normally.
func Open(cfg types.Config) (*Engine, error) {
	cfg.Normalize()
	store, err := sqlite.Open(cfg)
	if err != nil {
		return nil, err
	}

	recorder := audit.NewRecorder(store)
	manager := lifecycle.NewManager(store, recorder)

	var source suggest.CandidateSource
	if s, err := suggest.NewOpenAISource(cfg.Suggest.Model, store); err == nil {
		source = s
	}

	return &Engine{
		Store:    store,
		Recorder: recorder,
		Manager:  manager,
		Migrator: migrate.NewEngine(store, recorder),
		Suggest:  suggest.NewService(source, manager, cfg.Suggest),
	}, nil
}

// Close drains the audit recorder and closes the store.
func (e *Engine) Close() error {
	e.Recorder.Close()
	return e.Store.Close()
}
