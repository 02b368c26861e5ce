package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"echonote/internal/logging"
	"echonote/internal/services"
)

// Registry is the durable catalogue of notes backed by SQLite. One row per
// namespace carries the denormalized latest text snapshot of every stage.
type Registry struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open connects to the registry database, applies pragmas, and initializes
// the schema. Callers own the returned Registry and must Close it on
// shutdown.
func Open(dbPath string, logger *slog.Logger) (*Registry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	registry := &Registry{
		db:     db,
		path:   dbPath,
		logger: logging.NewComponentLogger(logger, "notes"),
	}
	if err := registry.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	registry.logger.Debug("registry opened", logging.String("path", dbPath))
	return registry, nil
}

// Close closes the underlying database connection. Operations after Close
// fail with the StoreUnavailable marker.
func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Registry) ready() error {
	if r == nil || r.db == nil {
		return services.Wrap(services.ErrStoreUnavailable, "notes", "connection", "registry not open", nil)
	}
	return nil
}

// Create inserts a new note row with empty stage snapshots. Uniqueness
// violations on title or note_path surface as DuplicateKey errors naming the
// offending column.
func (r *Registry) Create(ctx context.Context, title, notePath string) (*Note, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	notePath = strings.TrimSpace(notePath)
	if title == "" {
		return nil, errors.New("note title must not be empty")
	}
	if notePath == "" {
		return nil, errors.New("note path must not be empty")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO notes (
            title, note_path, transcribed_text, revised_text,
            summarized_text, searched_info, created_at, updated_at
        ) VALUES (?, ?, '', '', '', '', ?, ?)`,
		title,
		notePath,
		timestamp,
		timestamp,
	)
	if err != nil {
		if dup := classifyConstraint(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	r.logger.Info("note created",
		logging.String("title", title),
		logging.String("note_path", notePath),
	)
	return r.GetByID(ctx, id)
}

// Get fetches a note by title. Absent titles fail with the NotFound marker.
func (r *Registry) Get(ctx context.Context, title string) (*Note, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE title = ?`, title)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "notes", "get", title, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// GetByID fetches a note by row identifier.
func (r *Registry) GetByID(ctx context.Context, id int64) (*Note, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "notes", "get", fmt.Sprintf("id %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// List returns every note ordered by creation time.
func (r *Registry) List(ctx context.Context) ([]*Note, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var result []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}

// Update sets one column of the named note and refreshes updated_at. When
// the target column is updated_at itself, the supplied value is ignored and
// replaced with the current time: writers cannot backdate.
func (r *Registry) Update(ctx context.Context, title, column, value string) error {
	if err := r.ready(); err != nil {
		return err
	}
	normalized, ok := ParseColumn(column)
	if !ok {
		return fmt.Errorf("column %q is not updatable", column)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var (
		res sql.Result
		err error
	)
	if normalized == ColumnUpdatedAt {
		res, err = r.db.ExecContext(ctx, `UPDATE notes SET updated_at = ? WHERE title = ?`, now, title)
	} else {
		// Column names come from the ParseColumn whitelist, never from input.
		query := `UPDATE notes SET ` + normalized + ` = ?, updated_at = ? WHERE title = ?`
		res, err = r.db.ExecContext(ctx, query, value, now, title)
	}
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "notes", "update", title, nil)
	}
	return nil
}

// Delete removes the note row. Artifact files are untouched; cleanup of the
// namespace directory is a separate concern.
func (r *Registry) Delete(ctx context.Context, title string) error {
	if err := r.ready(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "notes", "delete", title, nil)
	}
	r.logger.Info("note deleted", logging.String("title", title))
	return nil
}

const noteColumns = "id, title, note_path, transcribed_text, revised_text, summarized_text, searched_info, created_at, updated_at"

func scanNote(scanner interface{ Scan(dest ...any) error }) (*Note, error) {
	var (
		id          int64
		title       string
		notePath    string
		transcribed sql.NullString
		revised     sql.NullString
		summarized  sql.NullString
		searched    sql.NullString
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&notePath,
		&transcribed,
		&revised,
		&summarized,
		&searched,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	note := &Note{
		ID:              id,
		Title:           title,
		NotePath:        notePath,
		TranscribedText: transcribed.String,
		RevisedText:     revised.String,
		SummarizedText:  summarized.String,
		SearchedInfo:    searched.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		note.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		note.UpdatedAt = updated
	}
	return note, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// classifyConstraint maps a sqlite uniqueness violation to a DuplicateKey
// error naming the offending column, or nil for unrelated failures.
func classifyConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "notes.title"):
		return services.Wrap(services.ErrDuplicateKey, "notes", "create", "title already exists", err)
	case strings.Contains(msg, "notes.note_path"):
		return services.Wrap(services.ErrDuplicateKey, "notes", "create", "note path already exists", err)
	case strings.Contains(msg, "vocab.word"):
		return services.Wrap(services.ErrDuplicateKey, "vocab", "record", "word already exists", err)
	default:
		return services.Wrap(services.ErrDuplicateKey, "notes", "create", "uniqueness violation", err)
	}
}
