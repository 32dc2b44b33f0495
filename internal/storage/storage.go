// Package storage provides BadgerDB-based persistence
package storage

import (
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
)

// Manager owns the badgerhold store and hands out the typed stores.
type Manager struct {
	store  *badgerhold.Store
	logger *common.Logger

	accounts     *accountStore
	positions    *positionStore
	summaries    *summaryStore
	aggregations *aggregationStore
}

var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens the store at the configured path.
func NewManager(logger *common.Logger, config *common.StorageConfig) (*Manager, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = config.Path
	opts.ValueDir = config.Path
	opts.Logger = nil // Disable badger's internal logging

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Storage opened")

	m := &Manager{
		store:  store,
		logger: logger,
	}
	m.accounts = &accountStore{m: m}
	m.positions = &positionStore{m: m}
	m.summaries = &summaryStore{m: m}
	m.aggregations = &aggregationStore{m: m}
	return m, nil
}

func (m *Manager) Accounts() interfaces.AccountStore         { return m.accounts }
func (m *Manager) Positions() interfaces.PositionStore       { return m.positions }
func (m *Manager) Summaries() interfaces.SummaryStore        { return m.summaries }
func (m *Manager) Aggregations() interfaces.AggregationStore { return m.aggregations }

// Close closes the database
func (m *Manager) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}
