package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// SessionStorage persists selection sessions in BadgerDB and exports each
// one as a JSON audit document under the session logs directory.
type SessionStorage struct {
	db      *BadgerDB
	logsDir string
	logger  arbor.ILogger
}

// NewSessionStorage creates a session store. logsDir may be empty to skip
// the JSON export.
func NewSessionStorage(db *BadgerDB, logsDir string, logger arbor.ILogger) *SessionStorage {
	return &SessionStorage{db: db, logsDir: logsDir, logger: logger}
}

// SaveSession stores the completed session and writes its JSON export.
// Called exactly once per selection run.
func (s *SessionStorage) SaveSession(ctx context.Context, session *models.SelectionSession) error {
	if err := s.db.Store().Upsert(session.SessionID, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}

	if s.logsDir != "" {
		if err := s.exportJSON(session); err != nil {
			// The database copy is authoritative; a failed export is logged
			// and does not fail the save.
			s.logger.Warn().
				Err(err).
				Str("session_id", session.SessionID).
				Msg("Failed to write session JSON export")
		}
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Int("stages", len(session.Stages)).
		Msg("Selection session saved")
	return nil
}

// exportJSON writes the write-once audit document
// portfolio_selection_<sessionID>.json.
func (s *SessionStorage) exportJSON(session *models.SelectionSession) error {
	if err := os.MkdirAll(s.logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create session logs directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := filepath.Join(s.logsDir, fmt.Sprintf("portfolio_selection_%s.json", session.SessionID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session export: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("Session export written")
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStorage) GetSession(ctx context.Context, sessionID string) (*models.SelectionSession, error) {
	var session models.SelectionSession
	if err := s.db.Store().Get(sessionID, &session); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return &session, nil
}

// ListSessions returns sessions newest first, up to limit.
func (s *SessionStorage) ListSessions(ctx context.Context, limit int) ([]*models.SelectionSession, error) {
	var sessions []*models.SelectionSession
	query := badgerhold.Where("SessionID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&sessions, query); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session.
func (s *SessionStorage) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.db.Store().Delete(sessionID, &models.SelectionSession{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
