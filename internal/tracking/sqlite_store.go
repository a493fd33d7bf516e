package tracking

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crawshaw.io/sqlite"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/util"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stage_runs (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS evaluation_scores (
		evaluation INTEGER NOT NULL,
		model TEXT NOT NULL,
		score_type TEXT NOT NULL,
		value REAL NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (evaluation, score_type)
	);`,
}

// ErrNotFound is returned when nothing has been recorded for a lookup.
var ErrNotFound = errors.New("not found")

// SQLiteStore is an implementation of Store that uses SQLite.
// A single connection is shared, so calls are serialized.
type SQLiteStore struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	dbPath string
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{now: time.Now}
}

// Initialize initializes the store with the given database path.
func (s *SQLiteStore) Initialize(dbPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dbPath = dbPath
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errortypes.IOError(err, "failed to create tracking directory").WithField("path", dbPath)
		}
	}

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return errortypes.IOError(err, "failed to open SQLite database").WithField("path", dbPath)
	}
	s.conn = conn

	for _, query := range schema {
		if err := s.exec(query); err != nil {
			s.conn.Close()
			s.conn = nil
			return errortypes.IOError(err, "failed to create table").WithField("path", dbPath)
		}
	}
	return nil
}

// Close closes the store and releases any resources.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// StartRun records the start of a stage.
func (s *SQLiteStore) StartRun(stage string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt := s.now()
	id := util.GenerateRunID(stage, startedAt)

	stmt, err := s.prepare(`INSERT INTO stage_runs (id, stage, status, started_at) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return "", err
	}
	defer stmt.Reset()

	stmt.BindText(1, id)
	stmt.BindText(2, stage)
	stmt.BindText(3, StatusRunning)
	stmt.BindInt64(4, startedAt.UnixNano())
	if _, err := stmt.Step(); err != nil {
		return "", errortypes.IOError(err, "failed to record stage run").WithField("stage", stage)
	}
	return id, nil
}

// FinishRun marks a run finished.
func (s *SQLiteStore) FinishRun(id string, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}

	stmt, err := s.prepare(`UPDATE stage_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?;`)
	if err != nil {
		return err
	}
	defer stmt.Reset()

	stmt.BindText(1, status)
	stmt.BindText(2, message)
	stmt.BindInt64(3, s.now().UnixNano())
	stmt.BindText(4, id)
	if _, err := stmt.Step(); err != nil {
		return errortypes.IOError(err, "failed to finish stage run").WithField("run_id", id)
	}
	if s.conn.Changes() == 0 {
		return errortypes.ValidationError(ErrNotFound, "unknown stage run").WithField("run_id", id)
	}
	return nil
}

// RecordScores stores scores under a new evaluation number.
func (s *SQLiteStore) RecordScores(modelName string, scores map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errortypes.InternalError(errors.New("store not initialized"), "cannot record scores")
	}

	next, err := s.nextEvaluation()
	if err != nil {
		return err
	}

	if err := s.exec("BEGIN;"); err != nil {
		return errortypes.IOError(err, "failed to begin transaction")
	}

	recordedAt := s.now().UnixNano()
	for scoreType, value := range scores {
		if err := s.insertScore(next, modelName, scoreType, value, recordedAt); err != nil {
			_ = s.exec("ROLLBACK;")
			return err
		}
	}

	if err := s.exec("COMMIT;"); err != nil {
		return errortypes.IOError(err, "failed to commit scores")
	}
	return nil
}

func (s *SQLiteStore) nextEvaluation() (int64, error) {
	stmt, err := s.prepare(`SELECT COALESCE(MAX(evaluation), 0) + 1 FROM evaluation_scores;`)
	if err != nil {
		return 0, err
	}
	defer stmt.Reset()

	if _, err := stmt.Step(); err != nil {
		return 0, errortypes.IOError(err, "failed to number evaluation")
	}
	return stmt.ColumnInt64(0), nil
}

func (s *SQLiteStore) insertScore(evaluation int64, modelName, scoreType string, value float64, recordedAt int64) error {
	stmt, err := s.prepare(`INSERT INTO evaluation_scores (evaluation, model, score_type, value, recorded_at) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Reset()

	stmt.BindInt64(1, evaluation)
	stmt.BindText(2, modelName)
	stmt.BindText(3, scoreType)
	stmt.BindFloat(4, value)
	stmt.BindInt64(5, recordedAt)
	if _, err := stmt.Step(); err != nil {
		return errortypes.IOError(err, "failed to insert score").WithField("score_type", scoreType)
	}
	return nil
}

// LatestScores returns the scores of the newest evaluation of modelName.
func (s *SQLiteStore) LatestScores(modelName string) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.prepare(`
	SELECT score_type, value FROM evaluation_scores
	WHERE evaluation = (SELECT MAX(evaluation) FROM evaluation_scores WHERE model = ?);`)
	if err != nil {
		return nil, err
	}
	defer stmt.Reset()

	stmt.BindText(1, modelName)
	scores := make(map[string]float64)
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errortypes.IOError(err, "failed to read scores").WithField("model", modelName)
		}
		if !hasRow {
			break
		}
		scores[stmt.ColumnText(0)] = stmt.ColumnFloat(1)
	}

	if len(scores) == 0 {
		return nil, errortypes.ValidationError(ErrNotFound, "no scores recorded").WithField("model", modelName)
	}
	return scores, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.prepare(`
	SELECT id, stage, status, error, started_at, finished_at FROM stage_runs
	ORDER BY started_at DESC LIMIT ?;`)
	if err != nil {
		return nil, err
	}
	defer stmt.Reset()

	stmt.BindInt64(1, int64(limit))
	var runs []Run
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errortypes.IOError(err, "failed to read stage runs")
		}
		if !hasRow {
			break
		}

		run := Run{
			ID:        stmt.ColumnText(0),
			Stage:     stmt.ColumnText(1),
			Status:    stmt.ColumnText(2),
			Error:     stmt.ColumnText(3),
			StartedAt: time.Unix(0, stmt.ColumnInt64(4)),
		}
		if finished := stmt.ColumnInt64(5); finished != 0 {
			run.FinishedAt = time.Unix(0, finished)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *SQLiteStore) prepare(query string) (*sqlite.Stmt, error) {
	if s.conn == nil {
		return nil, errortypes.InternalError(errors.New("store not initialized"), "cannot query tracking store")
	}
	stmt, err := s.conn.Prepare(query)
	if err != nil {
		return nil, errortypes.InternalError(fmt.Errorf("failed to prepare statement: %w", err), "invalid tracking query")
	}
	return stmt, nil
}

func (s *SQLiteStore) exec(query string) error {
	stmt, err := s.prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Reset()

	_, err = stmt.Step()
	return err
}
