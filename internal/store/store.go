// Package store is the SQLite persistence collaborator for the engine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"okrpulse/internal/okr"
)

// Store persists objectives, key results, check-ins and career
// progress in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{DBPath: absPath, db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS objectives (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	org_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	quarter TEXT NOT NULL,
	category TEXT NOT NULL,
	scope TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'on_track',
	confidence INTEGER NOT NULL DEFAULT 3,
	is_active INTEGER NOT NULL DEFAULT 1,
	is_focus INTEGER NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0,
	due_date TEXT NOT NULL,
	last_checkin_at TEXT,
	next_checkin_at TEXT,
	checkin_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_objectives_owner_quarter ON objectives(owner_id, quarter);

CREATE TABLE IF NOT EXISTS key_results (
	id TEXT PRIMARY KEY,
	objective_id TEXT NOT NULL,
	title TEXT NOT NULL,
	start_value REAL NOT NULL DEFAULT 0,
	current_value REAL NOT NULL DEFAULT 0,
	target_value REAL NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT '',
	progress REAL NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_key_results_objective ON key_results(objective_id);

CREATE TABLE IF NOT EXISTS checkins (
	id TEXT PRIMARY KEY,
	objective_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	confidence INTEGER NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	blockers TEXT NOT NULL DEFAULT '',
	change_details_json TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkins_objective_created ON checkins(objective_id, created_at);

CREATE TABLE IF NOT EXISTS career_progress (
	user_id TEXT NOT NULL,
	org_id TEXT NOT NULL DEFAULT '',
	qualifying_okr_count INTEGER NOT NULL DEFAULT 0,
	total_okrs_attempted INTEGER NOT NULL DEFAULT 0,
	level_id TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, org_id)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetObjective loads an objective with its key results, scoped to the
// owner. Returns (nil, nil) when no matching row exists; rows owned by
// someone else look the same as missing ones.
func (s *Store) GetObjective(ctx context.Context, ownerID, objectiveID string) (*okr.Objective, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, org_id, title, quarter, category, scope,
		       progress, status, confidence, is_active, is_focus, sort_order,
		       due_date, last_checkin_at, next_checkin_at, checkin_count,
		       created_at, updated_at
		FROM objectives
		WHERE id = ? AND owner_id = ?
	`, objectiveID, ownerID)

	obj, err := scanObjective(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get objective: %w", err)
	}

	krs, err := s.listKeyResults(ctx, obj.ID)
	if err != nil {
		return nil, err
	}
	obj.KeyResults = krs
	return obj, nil
}

// InsertObjective persists a new objective without its key results.
func (s *Store) InsertObjective(ctx context.Context, obj *okr.Objective) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objectives (
			id, owner_id, org_id, title, quarter, category, scope,
			progress, status, confidence, is_active, is_focus, sort_order,
			due_date, last_checkin_at, next_checkin_at, checkin_count,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		obj.ID, obj.OwnerID, obj.OrgID, obj.Title, obj.Quarter,
		string(obj.Category), string(obj.Scope),
		obj.Progress, string(obj.Status), obj.Confidence,
		boolToInt(obj.IsActive), boolToInt(obj.IsFocus), obj.SortOrder,
		formatTime(obj.DueDate), formatTimePtr(obj.LastCheckInAt), formatTimePtr(obj.NextCheckInAt),
		obj.CheckInCount, formatTime(obj.CreatedAt), formatTime(obj.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert objective: %w", err)
	}
	return nil
}

// SaveObjective persists the mutable fields of an objective.
func (s *Store) SaveObjective(ctx context.Context, obj *okr.Objective) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE objectives
		SET title = ?, quarter = ?, category = ?, scope = ?,
		    progress = ?, status = ?, confidence = ?,
		    is_active = ?, is_focus = ?, sort_order = ?, due_date = ?,
		    last_checkin_at = ?, next_checkin_at = ?, checkin_count = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		obj.Title, obj.Quarter, string(obj.Category), string(obj.Scope),
		obj.Progress, string(obj.Status), obj.Confidence,
		boolToInt(obj.IsActive), boolToInt(obj.IsFocus), obj.SortOrder, formatTime(obj.DueDate),
		formatTimePtr(obj.LastCheckInAt), formatTimePtr(obj.NextCheckInAt), obj.CheckInCount,
		formatTime(obj.UpdatedAt), obj.ID,
	)
	if err != nil {
		return fmt.Errorf("save objective: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("save objective: no row for %s", obj.ID)
	}
	return nil
}

// RemoveObjective hard-deletes an objective and cascades to its key
// results. Only used as rollback compensation; user-facing deletion
// archives instead.
func (s *Store) RemoveObjective(ctx context.Context, objectiveID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM key_results WHERE objective_id = ?", objectiveID); err != nil {
		return fmt.Errorf("remove key results: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM objectives WHERE id = ?", objectiveID); err != nil {
		return fmt.Errorf("remove objective: %w", err)
	}
	return nil
}

// InsertKeyResults persists new key results.
func (s *Store) InsertKeyResults(ctx context.Context, krs []okr.KeyResult) error {
	for _, kr := range krs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO key_results (
				id, objective_id, title, start_value, current_value,
				target_value, unit, progress, sort_order
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			kr.ID, kr.ObjectiveID, kr.Title, kr.StartValue, kr.CurrentValue,
			kr.TargetValue, kr.Unit, kr.Progress, kr.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("insert key result %s: %w", kr.ID, err)
		}
	}
	return nil
}

// UpdateKeyResultValue persists a key result's current value and progress.
func (s *Store) UpdateKeyResultValue(ctx context.Context, keyResultID string, current, progress float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE key_results SET current_value = ?, progress = ? WHERE id = ?
	`, current, progress, keyResultID)
	if err != nil {
		return fmt.Errorf("update key result: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("update key result: no row for %s", keyResultID)
	}
	return nil
}

// InsertCheckIn appends an immutable check-in record.
func (s *Store) InsertCheckIn(ctx context.Context, c *okr.CheckIn) error {
	details, err := json.Marshal(c.ChangeDetails)
	if err != nil {
		return fmt.Errorf("marshal change details: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkins (
			id, objective_id, user_id, confidence, comment, blockers,
			change_details_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.ObjectiveID, c.UserID, c.Confidence, c.Comment, c.Blockers,
		string(details), formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert check-in: %w", err)
	}
	return nil
}

// ActiveCount counts the owner's active objectives in a quarter.
func (s *Store) ActiveCount(ctx context.Context, ownerID, quarterLabel string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM objectives
		WHERE owner_id = ? AND quarter = ? AND is_active = 1
	`, ownerID, quarterLabel).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active objectives: %w", err)
	}
	return count, nil
}

// FocusedActiveCount counts the owner's focused active objectives in a quarter.
func (s *Store) FocusedActiveCount(ctx context.Context, ownerID, quarterLabel string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM objectives
		WHERE owner_id = ? AND quarter = ? AND is_active = 1 AND is_focus = 1
	`, ownerID, quarterLabel).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count focused objectives: %w", err)
	}
	return count, nil
}

// ListObjectives returns the owner's objectives in a quarter ordered
// by sort order, optionally including archived ones.
func (s *Store) ListObjectives(ctx context.Context, ownerID, quarterLabel string, includeArchived bool) ([]okr.Objective, error) {
	query := `
		SELECT id, owner_id, org_id, title, quarter, category, scope,
		       progress, status, confidence, is_active, is_focus, sort_order,
		       due_date, last_checkin_at, next_checkin_at, checkin_count,
		       created_at, updated_at
		FROM objectives
		WHERE owner_id = ? AND quarter = ?
	`
	if !includeArchived {
		query += " AND is_active = 1"
	}
	query += " ORDER BY sort_order ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, ownerID, quarterLabel)
	if err != nil {
		return nil, fmt.Errorf("query objectives: %w", err)
	}
	defer rows.Close()

	var objectives []okr.Objective
	for rows.Next() {
		obj, err := scanObjective(rows)
		if err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		krs, err := s.listKeyResults(ctx, obj.ID)
		if err != nil {
			return nil, err
		}
		obj.KeyResults = krs
		objectives = append(objectives, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objectives: %w", err)
	}
	return objectives, nil
}

// ListCheckIns returns up to limit check-ins for an objective, newest
// first, scoped to the owner.
func (s *Store) ListCheckIns(ctx context.Context, ownerID, objectiveID string, limit int) ([]okr.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.objective_id, c.user_id, c.confidence, c.comment,
		       c.blockers, c.change_details_json, c.created_at
		FROM checkins c
		JOIN objectives o ON o.id = c.objective_id
		WHERE c.objective_id = ? AND o.owner_id = ?
		ORDER BY c.created_at DESC
		LIMIT ?
	`, objectiveID, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []okr.CheckIn
	for rows.Next() {
		var c okr.CheckIn
		var details, createdAt string
		if err := rows.Scan(&c.ID, &c.ObjectiveID, &c.UserID, &c.Confidence,
			&c.Comment, &c.Blockers, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &c.ChangeDetails); err != nil {
			return nil, fmt.Errorf("parse change details: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		checkIns = append(checkIns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check-ins: %w", err)
	}
	return checkIns, nil
}

// ListDueCheckIns returns active objectives whose next check-in is due
// at or before now.
func (s *Store) ListDueCheckIns(ctx context.Context, now time.Time) ([]okr.Objective, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, org_id, title, quarter, category, scope,
		       progress, status, confidence, is_active, is_focus, sort_order,
		       due_date, last_checkin_at, next_checkin_at, checkin_count,
		       created_at, updated_at
		FROM objectives
		WHERE is_active = 1 AND next_checkin_at IS NOT NULL AND next_checkin_at <= ?
		ORDER BY next_checkin_at ASC
	`, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("query due objectives: %w", err)
	}
	defer rows.Close()

	var due []okr.Objective
	for rows.Next() {
		obj, err := scanObjective(rows)
		if err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		due = append(due, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due objectives: %w", err)
	}
	return due, nil
}

// GetCareerProgress returns the user's counters, zero-valued when no
// row exists yet.
func (s *Store) GetCareerProgress(ctx context.Context, userID, orgID string) (okr.CareerProgress, error) {
	p := okr.CareerProgress{UserID: userID, OrgID: orgID}
	err := s.db.QueryRowContext(ctx, `
		SELECT qualifying_okr_count, total_okrs_attempted, level_id
		FROM career_progress
		WHERE user_id = ? AND org_id = ?
	`, userID, orgID).Scan(&p.QualifyingOKRCount, &p.TotalOKRsAttempted, &p.LevelID)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("get career progress: %w", err)
	}
	return p, nil
}

// UpsertCareerProgress writes the user's counters.
func (s *Store) UpsertCareerProgress(ctx context.Context, p okr.CareerProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO career_progress (
			user_id, org_id, qualifying_okr_count, total_okrs_attempted, level_id
		) VALUES (?, ?, ?, ?, ?)
	`, p.UserID, p.OrgID, p.QualifyingOKRCount, p.TotalOKRsAttempted, p.LevelID)
	if err != nil {
		return fmt.Errorf("upsert career progress: %w", err)
	}
	return nil
}

func (s *Store) listKeyResults(ctx context.Context, objectiveID string) ([]okr.KeyResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, objective_id, title, start_value, current_value,
		       target_value, unit, progress, sort_order
		FROM key_results
		WHERE objective_id = ?
		ORDER BY sort_order ASC
	`, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("query key results: %w", err)
	}
	defer rows.Close()

	var krs []okr.KeyResult
	for rows.Next() {
		var kr okr.KeyResult
		if err := rows.Scan(&kr.ID, &kr.ObjectiveID, &kr.Title, &kr.StartValue,
			&kr.CurrentValue, &kr.TargetValue, &kr.Unit, &kr.Progress, &kr.SortOrder); err != nil {
			return nil, fmt.Errorf("scan key result: %w", err)
		}
		krs = append(krs, kr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key results: %w", err)
	}
	return krs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObjective(row rowScanner) (*okr.Objective, error) {
	var obj okr.Objective
	var category, scope, status string
	var isActive, isFocus int
	var dueDate, createdAt, updatedAt string
	var lastCheckIn, nextCheckIn sql.NullString

	err := row.Scan(
		&obj.ID, &obj.OwnerID, &obj.OrgID, &obj.Title, &obj.Quarter,
		&category, &scope, &obj.Progress, &status, &obj.Confidence,
		&isActive, &isFocus, &obj.SortOrder,
		&dueDate, &lastCheckIn, &nextCheckIn, &obj.CheckInCount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	obj.Category = okr.Category(category)
	obj.Scope = okr.Scope(scope)
	obj.Status = okr.Status(status)
	obj.IsActive = isActive != 0
	obj.IsFocus = isFocus != 0
	obj.DueDate, _ = time.Parse(time.RFC3339, dueDate)
	obj.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	obj.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if lastCheckIn.Valid {
		t, _ := time.Parse(time.RFC3339, lastCheckIn.String)
		obj.LastCheckInAt = &t
	}
	if nextCheckIn.Valid {
		t, _ := time.Parse(time.RFC3339, nextCheckIn.String)
		obj.NextCheckInAt = &t
	}
	return &obj, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
