package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

type mailboxMessage struct {
	id     uuid.UUID
	sentAt time.Time
}

// mailboxConn emulates the patient_messages table: it honors the query's
// ORDER BY direction and LIMIT argument over a canned set of unread messages.
type mailboxConn struct {
	stubConn
	messages []mailboxMessage
}

func (c *mailboxConn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	msgs := append([]mailboxMessage(nil), c.messages...)
	if strings.Contains(query, "ORDER BY sent_at DESC") {
		sort.Slice(msgs, func(i, j int) bool { return msgs[i].sentAt.After(msgs[j].sentAt) })
	} else {
		sort.Slice(msgs, func(i, j int) bool { return msgs[i].sentAt.Before(msgs[j].sentAt) })
	}
	limit, ok := args[1].(int)
	if !ok {
		return nil, fmt.Errorf("unexpected limit argument %v", args[1])
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}

	rows := make([][]any, 0, len(msgs))
	for _, m := range msgs {
		subject := "Follow-up question"
		rows = append(rows, []any{m.id, uuid.New(), &subject, m.sentAt})
	}
	return &fakeRows{rows: rows}, nil
}

func TestMessagesSource_ListOpen(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	oldest := mailboxMessage{id: uuid.New(), sentAt: now.Add(-72 * time.Hour)}
	middle := mailboxMessage{id: uuid.New(), sentAt: now.Add(-24 * time.Hour)}
	newest := mailboxMessage{id: uuid.New(), sentAt: now.Add(-time.Hour)}
	conn := &mailboxConn{messages: []mailboxMessage{oldest, middle, newest}}

	source := NewMessagesSource(conn, 2)
	tasks, err := source.ListOpen(context.Background(), uuid.New())
	require.NoError(t, err)

	t.Run("keeps the most recent messages when the inbox exceeds the limit", func(t *testing.T) {
		require.Len(t, tasks, 2)
		returned := []uuid.UUID{tasks[0].ID, tasks[1].ID}
		assert.Contains(t, returned, newest.id)
		assert.Contains(t, returned, middle.id)
		assert.NotContains(t, returned, oldest.id)
	})

	t.Run("normalizes to message tasks", func(t *testing.T) {
		assert.Equal(t, worklist.TaskTypeMessage, tasks[0].Type)
		assert.Equal(t, SourceMessages, tasks[0].Source)
		assert.Equal(t, "Follow-up question", tasks[0].Title)
	})
}

// recordingConn captures queries and returns no rows.
type recordingConn struct {
	stubConn
	queries []string
}

func (c *recordingConn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	c.queries = append(c.queries, query)
	return &fakeRows{}, nil
}

func TestSourceStatusFilters(t *testing.T) {
	t.Run("pending items reads pending rows", func(t *testing.T) {
		conn := &recordingConn{}
		_, err := NewPendingItemsSource(conn).ListOpen(context.Background(), uuid.New())
		require.NoError(t, err)
		require.Len(t, conn.queries, 1)
		assert.Contains(t, conn.queries[0], "status = 'pending'")
	})

	t.Run("urgent care reads new and pending rows", func(t *testing.T) {
		conn := &recordingConn{}
		_, err := NewUrgentCareSource(conn).ListOpen(context.Background(), uuid.New())
		require.NoError(t, err)
		require.Len(t, conn.queries, 1)
		assert.Contains(t, conn.queries[0], "status IN ('new', 'pending')")
	})
}

// fakeRows serves canned rows through the database.Rows interface.
type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = row[i].(uuid.UUID)
		case **uuid.UUID:
			v := row[i].(uuid.UUID)
			*p = &v
		case **string:
			*p = row[i].(*string)
		case *time.Time:
			*p = row[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan destination %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

// stubConn fills the rest of database.Connection for test doubles.
type stubConn struct{}

func (stubConn) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	return nil, fmt.Errorf("unexpected exec")
}

func (stubConn) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return nil
}

func (stubConn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return nil, fmt.Errorf("unexpected query")
}

func (stubConn) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, fmt.Errorf("unexpected transaction")
}

func (stubConn) Close() error                   { return nil }
func (stubConn) Ping(ctx context.Context) error { return nil }
