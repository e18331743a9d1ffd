package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one persisted (situation, decision, outcome, rationale)
// tuple. Records are append-only: the only mutation ever applied is a
// single amendment of the outcome from pending to a real value.
type Record struct {
	ID             int64
	Role           string
	Situation      string
	Decision       string
	Rationale      string
	Outcome        float64
	OutcomePending bool
	CreatedAt      time.Time
	Similarity     float64
}

// Store is the shared sqlite database behind every role's memory
// collection. Reads may run concurrently; writes are serialized.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("memory db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create memory db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	schema := `
CREATE TABLE IF NOT EXISTS memories (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	role       TEXT NOT NULL,
	situation  TEXT NOT NULL,
	decision   TEXT NOT NULL,
	rationale  TEXT NOT NULL,
	outcome    REAL NOT NULL DEFAULT 0,
	pending    INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_role ON memories(role, id);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init memory schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Collection scopes the store to a single role. Roles never see each
// other's records.
func (s *Store) Collection(role string) *Collection {
	return &Collection{store: s, role: role}
}

type Collection struct {
	store *Store
	role  string
}

func (c *Collection) Role() string { return c.role }

// Record appends a new memory with the outcome left pending and returns
// its handle.
func (c *Collection) Record(situation, decision, rationale string) (int64, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	res, err := c.store.db.Exec(
		`INSERT INTO memories (role, situation, decision, rationale, pending, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		c.role, situation, decision, rationale, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("record memory for %s: %w", c.role, err)
	}
	return res.LastInsertId()
}

// AmendOutcome sets the numeric outcome of a previously recorded memory.
// An unknown or already-amended handle is a no-op: outcome feedback can
// arrive after the record has been rotated away.
func (c *Collection) AmendOutcome(handle int64, outcome float64) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	_, err := c.store.db.Exec(
		`UPDATE memories SET outcome = ?, pending = 0 WHERE id = ? AND role = ? AND pending = 1`,
		outcome, handle, c.role,
	)
	if err != nil {
		return fmt.Errorf("amend memory %d for %s: %w", handle, c.role, err)
	}
	return nil
}

// AmendLatestPending amends the role's most recent pending record, the
// path taken when outcome feedback arrives without a handle.
func (c *Collection) AmendLatestPending(outcome float64) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var id int64
	err := c.store.db.QueryRow(
		`SELECT id FROM memories WHERE role = ? AND pending = 1 ORDER BY id DESC LIMIT 1`,
		c.role,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find pending memory for %s: %w", c.role, err)
	}

	_, err = c.store.db.Exec(
		`UPDATE memories SET outcome = ?, pending = 0 WHERE id = ?`, outcome, id,
	)
	if err != nil {
		return fmt.Errorf("amend memory %d for %s: %w", id, c.role, err)
	}
	return nil
}

// Retrieve returns up to k records ranked by lexical similarity of the
// query to each stored situation, most similar first, ties broken by
// recency. An empty store yields an empty slice.
func (c *Collection) Retrieve(situation string, k int) ([]Record, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := c.store.db.Query(
		`SELECT id, situation, decision, rationale, outcome, pending, created_at
		 FROM memories WHERE role = ?`, c.role,
	)
	if err != nil {
		return nil, fmt.Errorf("retrieve memories for %s: %w", c.role, err)
	}
	defer rows.Close()

	query := termFrequencies(situation)

	var records []Record
	for rows.Next() {
		var (
			r       Record
			pending int
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Situation, &r.Decision, &r.Rationale, &r.Outcome, &pending, &created); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		r.Role = c.role
		r.OutcomePending = pending != 0
		r.CreatedAt = time.Unix(created, 0)
		r.Similarity = cosineSimilarity(query, termFrequencies(r.Situation))
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Similarity != records[j].Similarity {
			return records[i].Similarity > records[j].Similarity
		}
		return records[i].ID > records[j].ID
	})

	if len(records) > k {
		records = records[:k]
	}
	return records, nil
}
