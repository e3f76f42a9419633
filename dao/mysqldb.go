package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kmills/shortlink/env"
)

// MySQL error number for ER_DUP_ENTRY.
const mysqlDupEntry = 1062

type MySQLDB struct {
	db *sql.DB
}

func newMySQLContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), env.DurationOrDefault("mysql_timeout", 10*time.Second))
}

// CreateMySQLDB creates a new MySQL-backed LinkDao.
// The dsn should be a MySQL DSN string, e.g.:
// "user:password@tcp(localhost:3306)/shortlink?parseTime=true"
func CreateMySQLDB(dsn string) LinkDao {
	// Ensure parseTime=true is set for proper time handling
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Unable to open MySQL database: %v", err)
	}

	db.SetMaxOpenConns(env.IntOrDefault("mysql_max_conns", 10))
	db.SetMaxIdleConns(env.IntOrDefault("mysql_max_idle_conns", 5))
	db.SetConnMaxLifetime(time.Duration(env.IntOrDefault("mysql_conn_max_lifetime_minutes", 5)) * time.Minute)

	ctx, cancel := newMySQLContext()
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Unable to connect to MySQL: %v", err)
	}

	mysqlDB := &MySQLDB{db: db}
	mysqlDB.initSchema()

	return mysqlDB
}

func (d *MySQLDB) initSchema() {
	ctx, cancel := newMySQLContext()
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS links (
			id INT AUTO_INCREMENT PRIMARY KEY,
			short_code VARCHAR(50) NOT NULL UNIQUE,
			target_url TEXT NOT NULL,
			total_clicks BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_clicked DATETIME NULL
		)
	`

	if _, err := d.db.ExecContext(ctx, createTableSQL); err != nil {
		log.Printf("Error creating links table: %v", err)
	}

	createCodeIndex := `CREATE INDEX idx_links_short_code ON links(short_code)`
	if _, err := d.db.ExecContext(ctx, createCodeIndex); err != nil {
		// MySQL has no IF NOT EXISTS for indexes, ignore reruns
		if !strings.Contains(err.Error(), "Duplicate key name") {
			log.Printf("Error creating short_code index: %v", err)
		}
	}
}

func (d *MySQLDB) Cleanup() {
	_ = d.db.Close()
}

func (d *MySQLDB) IsLikelyOk() bool {
	ctx, cancel := newMySQLContext()
	defer cancel()

	if err := d.db.PingContext(ctx); err != nil {
		log.Printf("Ping failed: %v", err)
		return false
	}
	return true
}

func (d *MySQLDB) Insert(code string, targetURL string) (Link, error) {
	ctx, cancel := newMySQLContext()
	defer cancel()

	insertSQL := `INSERT INTO links (short_code, target_url) VALUES (?, ?)`
	if _, err := d.db.ExecContext(ctx, insertSQL, code, targetURL); err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDupEntry {
			return Link{}, ErrDuplicateCode
		}
		return Link{}, fmt.Errorf("couldn't store (%s, %s): %w", code, targetURL, err)
	}

	// No RETURNING in MySQL, read the row back for the server-side created_at.
	return d.Get(code)
}

func (d *MySQLDB) Redirect(code string) (string, error) {
	ctx, cancel := newMySQLContext()
	defer cancel()

	// The count and timestamp move together in one statement; the
	// follow-up select only reads the immutable target url.
	updateSQL := `
		UPDATE links
		SET total_clicks = total_clicks + 1,
			last_clicked = CURRENT_TIMESTAMP
		WHERE short_code = ?
	`

	result, err := d.db.ExecContext(ctx, updateSQL, code)
	if err != nil {
		return "", fmt.Errorf("error recording click for %s: %w", code, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return "", ErrNotFound
	}

	var url string
	err = d.db.QueryRowContext(ctx, `SELECT target_url FROM links WHERE short_code = ?`, code).Scan(&url)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error getting target for %s: %w", code, err)
	}

	return url, nil
}

func (d *MySQLDB) Get(code string) (Link, error) {
	ctx, cancel := newMySQLContext()
	defer cancel()

	sqlStmt := `
		SELECT short_code, target_url, total_clicks, created_at, last_clicked
		FROM links
		WHERE short_code = ?
	`

	var link Link
	var lastClicked sql.NullTime
	err := d.db.QueryRowContext(ctx, sqlStmt, code).Scan(
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

func (d *MySQLDB) List() ([]Link, error) {
	ctx, cancel := newMySQLContext()
	defer cancel()

	// created_at has second granularity, id breaks the ties.
	sqlStmt := `
		SELECT short_code, target_url, total_clicks, created_at, last_clicked
		FROM links
		ORDER BY created_at DESC, id DESC
	`

	rows, err := d.db.QueryContext(ctx, sqlStmt)
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

func (d *MySQLDB) Delete(code string) error {
	ctx, cancel := newMySQLContext()
	defer cancel()

	result, err := d.db.ExecContext(ctx, `DELETE FROM links WHERE short_code = ?`, code)
	if err != nil {
		return fmt.Errorf("couldn't delete %s: %w", code, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
