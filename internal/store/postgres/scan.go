package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/chunkworks/chunkd/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanChunk scans a single row into a model.Chunk.
// The row must contain columns in the order defined by chunkColumns.
func scanChunk(row scannable) (*model.Chunk, error) {
	var c model.Chunk
	err := row.Scan(
		&c.Key,
		&c.Content,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanChunkWithTotal scans a row that has a leading total_count column
// followed by the standard chunk columns. Used by queryListChunks with
// COUNT(*) OVER().
func scanChunkWithTotal(row scannable) (*model.Chunk, int, error) {
	var total int
	var c model.Chunk
	err := row.Scan(
		&total,
		&c.Key,
		&c.Content,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}
	return &c, total, nil
}

// scanInlineChunk scans a single row into a model.InlineChunk.
func scanInlineChunk(row scannable) (*model.InlineChunk, error) {
	var ic model.InlineChunk
	err := row.Scan(
		&ic.ID,
		&ic.OwnerType,
		&ic.OwnerID,
		&ic.Key,
		&ic.Content,
		&ic.CreatedBy,
		&ic.CreatedAt,
		&ic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ic, nil
}

// scanInlineChunks scans multiple rows into a slice of model.InlineChunk pointers.
func scanInlineChunks(rows *sql.Rows) ([]*model.InlineChunk, error) {
	var chunks []*model.InlineChunk
	for rows.Next() {
		ic, err := scanInlineChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var payload []byte
	err := row.Scan(&e.ID, &e.Topic, &e.OwnerType, &e.OwnerID, &e.Key, &e.Actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
