package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/store"
)

// chunkColumns is the column list used for SELECT statements on the chunks table.
const chunkColumns = `key, content, created_by, created_at, updated_at`

// inlineChunkColumns is the column list for the inline_chunks table.
const inlineChunkColumns = `id, owner_type, owner_id, key, content, created_by, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func queryCreateChunk(ctx context.Context, db executor, c *model.Chunk) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO chunks (key, content, created_by)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		c.Key, c.Content, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return store.ErrExists
	}
	return err
}

func queryGetChunk(ctx context.Context, db executor, key string) (*model.Chunk, error) {
	row := db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE key = $1`, key)
	c, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func queryListChunks(ctx context.Context, db executor, filter model.ChunkFilter) ([]*model.Chunk, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(key ILIKE '%%' || %s || '%%' OR content ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + chunkColumns + " FROM chunks" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	var total int
	for rows.Next() {
		c, t, err := scanChunkWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan chunks: %w", err)
		}
		total = t
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan chunks: %w", err)
	}

	return chunks, total, nil
}

func queryUpdateChunk(ctx context.Context, db executor, c *model.Chunk) error {
	err := db.QueryRowContext(ctx, `
		UPDATE chunks SET
			content = $2,
			updated_at = NOW()
		WHERE key = $1
		RETURNING updated_at`,
		c.Key, c.Content,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func queryDeleteChunk(ctx context.Context, db executor, key string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM chunks WHERE key = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryCreateInlineChunk(ctx context.Context, db executor, ic *model.InlineChunk) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO inline_chunks (id, owner_type, owner_id, key, content, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		ic.ID, ic.OwnerType, ic.OwnerID, ic.Key, ic.Content, ic.CreatedBy,
	).Scan(&ic.CreatedAt, &ic.UpdatedAt)
	if isUniqueViolation(err) {
		return store.ErrExists
	}
	return err
}

func queryGetInlineChunk(ctx context.Context, db executor, owner model.OwnerRef, key string) (*model.InlineChunk, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+inlineChunkColumns+`
		FROM inline_chunks
		WHERE owner_type = $1 AND owner_id = $2 AND key = $3`,
		owner.Type, owner.ID, key,
	)
	ic, err := scanInlineChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ic, nil
}

func queryListInlineChunks(ctx context.Context, db executor, owner model.OwnerRef) ([]*model.InlineChunk, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+inlineChunkColumns+`
		FROM inline_chunks
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY key ASC`,
		owner.Type, owner.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInlineChunks(rows)
}

func queryUpdateInlineChunk(ctx context.Context, db executor, ic *model.InlineChunk) error {
	err := db.QueryRowContext(ctx, `
		UPDATE inline_chunks SET
			content = $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		ic.ID, ic.Content,
	).Scan(&ic.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func queryDeleteInlineChunk(ctx context.Context, db executor, owner model.OwnerRef, key string) error {
	res, err := db.ExecContext(ctx, `
		DELETE FROM inline_chunks
		WHERE owner_type = $1 AND owner_id = $2 AND key = $3`,
		owner.Type, owner.ID, key,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryListAllInlineChunks(ctx context.Context, db executor) ([]*model.InlineChunk, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+inlineChunkColumns+`
		FROM inline_chunks
		ORDER BY owner_type, owner_id, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInlineChunks(rows)
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO chunk_events (topic, owner_type, owner_id, key, actor, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		e.Topic, e.OwnerType, e.OwnerID, e.Key, e.Actor, jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryListEvents(ctx context.Context, db executor, filter model.EventFilter) ([]*model.Event, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Topic != "" {
		whereClauses = append(whereClauses, "topic = "+nextArg())
		args = append(args, filter.Topic)
	}
	if filter.OwnerType != "" {
		whereClauses = append(whereClauses, "owner_type = "+nextArg())
		args = append(args, filter.OwnerType)
	}
	if filter.OwnerID != "" {
		whereClauses = append(whereClauses, "owner_id = "+nextArg())
		args = append(args, filter.OwnerID)
	}
	if filter.Key != "" {
		whereClauses = append(whereClauses, "key = "+nextArg())
		args = append(args, filter.Key)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Most recent first so a limit returns the latest activity.
	query := `SELECT id, topic, owner_type, owner_id, key, actor, payload, created_at
		FROM chunk_events` + whereSQL + ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "key ASC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"key": true, "created_at": true, "updated_at": true,
	}
	if !allowed[col] {
		return "key ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
