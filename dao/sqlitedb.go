package dao

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
	mu sync.RWMutex
}

// CreateSQLiteDB creates a new SQLite-backed LinkDao.
// The dbPath should be a path to the SQLite database file, e.g.:
// "./shortlink.db" or ":memory:" for in-memory database
func CreateSQLiteDB(dbPath string) LinkDao {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("Unable to open SQLite database: %v", err)
	}

	// SQLite performance tuning
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection open

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("Warning: could not enable WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		log.Printf("Warning: could not set busy timeout: %v", err)
	}

	sqliteDB := &SQLiteDB{db: db}
	sqliteDB.initSchema()

	return sqliteDB
}

func (d *SQLiteDB) initSchema() {
	d.mu.Lock()
	defer d.mu.Unlock()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			short_code TEXT NOT NULL UNIQUE,
			target_url TEXT NOT NULL,
			total_clicks INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_clicked DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_links_short_code ON links(short_code);
	`

	if _, err := d.db.Exec(createTableSQL); err != nil {
		log.Printf("Error creating links table: %v", err)
	}
}

func (d *SQLiteDB) Cleanup() {
	d.db.Close()
}

func (d *SQLiteDB) IsLikelyOk() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.db.Ping(); err != nil {
		log.Printf("Ping failed: %v", err)
		return false
	}
	return true
}

func (d *SQLiteDB) Insert(code string, targetURL string) (Link, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sqlStmt := `
		INSERT INTO links (short_code, target_url)
		VALUES (?, ?)
		RETURNING short_code, target_url, total_clicks, created_at
	`

	var link Link
	err := d.db.QueryRow(sqlStmt, code, targetURL).Scan(
		&link.ShortCode,
		&link.TargetURL,
		&link.TotalClicks,
		&link.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return Link{}, ErrDuplicateCode
		}
		return Link{}, fmt.Errorf("couldn't store (%s, %s): %w", code, targetURL, err)
	}

	return link, nil
}

func (d *SQLiteDB) Redirect(code string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Single statement so the count and timestamp can't drift apart.
	sqlStmt := `
		UPDATE links
		SET total_clicks = total_clicks + 1,
			last_clicked = CURRENT_TIMESTAMP
		WHERE short_code = ?
		RETURNING target_url
	`

	var url string
	if err := d.db.QueryRow(sqlStmt, code).Scan(&url); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error recording click for %s: %w", code, err)
	}

	return url, nil
}

func (d *SQLiteDB) Get(code string) (Link, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sqlStmt := `
		SELECT short_code, target_url, total_clicks, created_at, last_clicked
		FROM links
		WHERE short_code = ?
	`

	var link Link
	var lastClicked sql.NullTime
	err := d.db.QueryRow(sqlStmt, code).Scan(
		&link.ShortCode,
		&link.TargetURL,
		&link.TotalClicks,
		&link.CreatedAt,
		&lastClicked,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Link{}, ErrNotFound
		}
		return Link{}, fmt.Errorf("error getting link %s: %w", code, err)
	}

	if lastClicked.Valid {
		t := lastClicked.Time
		link.LastClicked = &t
	}
	return link, nil
}

func (d *SQLiteDB) List() ([]Link, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// created_at has second granularity, id breaks the ties.
	sqlStmt := `
		SELECT short_code, target_url, total_clicks, created_at, last_clicked
		FROM links
		ORDER BY created_at DESC, id DESC
	`

	rows, err := d.db.Query(sqlStmt)
	if err != nil {
		return nil, fmt.Errorf("error listing links: %w", err)
	}
	defer rows.Close()

	links := make([]Link, 0)
	for rows.Next() {
		var link Link
		var lastClicked sql.NullTime
		if err := rows.Scan(&link.ShortCode, &link.TargetURL, &link.TotalClicks, &link.CreatedAt, &lastClicked); err != nil {
			return nil, fmt.Errorf("error scanning link row: %w", err)
		}
		if lastClicked.Valid {
			t := lastClicked.Time
			link.LastClicked = &t
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing links: %w", err)
	}

	return links, nil
}

func (d *SQLiteDB) Delete(code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.db.Exec(`DELETE FROM links WHERE short_code = ?`, code)
	if err != nil {
		return fmt.Errorf("couldn't delete %s: %w", code, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
