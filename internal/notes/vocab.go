package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"echonote/internal/services"
)

// RecordWord inserts a vocab entry or bumps its frequency when the word is
// already collected. The example text is appended so later reviews keep the
// context the word appeared in.
func (r *Registry) RecordWord(ctx context.Context, word, exampleText string) (*VocabEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, errors.New("word must not be empty")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vocab (word, frequency, ex_texts, created_at, updated_at)
         VALUES (?, 1, ?, ?, ?)
         ON CONFLICT(word) DO UPDATE SET
             frequency = frequency + 1,
             ex_texts = CASE
                 WHEN excluded.ex_texts = '' THEN ex_texts
                 WHEN ex_texts = '' THEN excluded.ex_texts
                 ELSE ex_texts || char(10) || excluded.ex_texts
             END,
             updated_at = excluded.updated_at`,
		word, exampleText, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("record word: %w", err)
	}
	return r.LookupWord(ctx, word)
}

// LookupWord fetches one vocab entry by word.
func (r *Registry) LookupWord(ctx context.Context, word string) (*VocabEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, word, frequency, ex_texts, created_at, updated_at FROM vocab WHERE word = ?`, word)
	entry, err := scanVocab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "vocab", "lookup", word, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup word: %w", err)
	}
	return entry, nil
}

// ListWords returns collected vocabulary ordered by descending frequency,
// then alphabetically.
func (r *Registry) ListWords(ctx context.Context) ([]*VocabEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, word, frequency, ex_texts, created_at, updated_at
         FROM vocab ORDER BY frequency DESC, word`)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer rows.Close()

	var result []*VocabEntry
	for rows.Next() {
		entry, err := scanVocab(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanVocab(scanner interface{ Scan(dest ...any) error }) (*VocabEntry, error) {
	var (
		entry      VocabEntry
		exTexts    sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&entry.ID, &entry.Word, &entry.Frequency, &exTexts, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	entry.ExTexts = exTexts.String
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return &entry, nil
}
