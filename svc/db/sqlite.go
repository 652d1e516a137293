package db

import (
	"context"
	"database/sql"
	"time"

	"snipbin/pkg/codec"
	"snipbin/pkg/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	defaultMaxOpenConns = 100
	defaultMaxIdleConns = 10
	defaultQueryTimeout = 5 * time.Second
)

// SQLite persists the three keyed collections: profiles by identity, pastes
// by id (with an insertion sequence for recency queries) and short-link
// bindings by code. Record values are bounded codec blobs.
type SQLite struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func (s *SQLite) DB() *sql.DB {
	return s.db
}
func NewSQLite(path string) (*SQLite, error) {
	return NewSQLiteWithConfig(path, defaultMaxOpenConns, defaultMaxIdleConns, defaultQueryTimeout)
}

func NewSQLiteWithConfig(path string, maxOpenConns, maxIdleConns int, queryTimeout time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}
	s := &SQLite{
		db:           db,
		queryTimeout: queryTimeout,
	}
	if err := s.migrate(); err != nil {
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}
func (s *SQLite) migrate() error {
	_, err := s.db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	_, err = s.db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	_, err = s.db.Exec("PRAGMA synchronous=FULL")
	if err != nil {
		return errors.Wrap(err, "set synchronous mode")
	}
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		identity TEXT PRIMARY KEY,
		data BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pastes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		data BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS short_links (
		code TEXT PRIMARY KEY,
		paste_id TEXT NOT NULL
	);
	`
	_, err = s.db.Exec(query)
	return err
}

func (s *SQLite) GetProfile(ctx context.Context, identity string) (*domain.Profile, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var data []byte
	err := s.db.QueryRowContext(queryCtx, `SELECT data FROM profiles WHERE identity = ?`, identity).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db get profile")
	}
	return codec.DecodeProfile(data)
}

func (s *SQLite) PutProfile(ctx context.Context, pr *domain.Profile) error {
	data, err := codec.EncodeProfile(pr)
	if err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	_, err = s.db.ExecContext(queryCtx,
		`INSERT INTO profiles (identity, data) VALUES (?, ?)
		 ON CONFLICT(identity) DO UPDATE SET data = excluded.data`,
		pr.ID, data,
	)
	return errors.Wrap(err, "db put profile")
}

func (s *SQLite) GetPaste(ctx context.Context, id string) (*domain.Paste, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var data []byte
	err := s.db.QueryRowContext(queryCtx, `SELECT data FROM pastes WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPasteNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db get paste")
	}
	return codec.DecodePaste(data)
}

func (s *SQLite) PasteExists(ctx context.Context, id string) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var exists int
	err := s.db.QueryRowContext(queryCtx, `SELECT 1 FROM pastes WHERE id = ? LIMIT 1`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "exists check failed")
	}
	return exists == 1, nil
}

// CreatePaste inserts the paste, its optional short-link binding and the
// owner's updated index in one transaction, so a failed creation leaves
// every collection unchanged. Records are encoded (and bounds-checked)
// before the transaction starts.
func (s *SQLite) CreatePaste(ctx context.Context, p *domain.Paste, shortCode *string, owner *domain.Profile) error {
	pasteData, err := codec.EncodePaste(p)
	if err != nil {
		return err
	}
	var ownerData []byte
	if owner != nil {
		ownerData, err = codec.EncodeProfile(owner)
		if err != nil {
			return err
		}
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(queryCtx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(queryCtx, `INSERT INTO pastes (id, data) VALUES (?, ?)`, p.ID, pasteData); err != nil {
		return errors.Wrap(err, "insert paste")
	}
	if shortCode != nil {
		if _, err := tx.ExecContext(queryCtx, `INSERT INTO short_links (code, paste_id) VALUES (?, ?)`, *shortCode, p.ID); err != nil {
			return errors.Wrap(err, "insert short link")
		}
	}
	if owner != nil {
		if _, err := tx.ExecContext(queryCtx,
			`INSERT INTO profiles (identity, data) VALUES (?, ?)
			 ON CONFLICT(identity) DO UPDATE SET data = excluded.data`,
			owner.ID, ownerData,
		); err != nil {
			return errors.Wrap(err, "update owner index")
		}
	}
	return errors.Wrap(tx.Commit(), "commit create")
}

func (s *SQLite) UpdatePaste(ctx context.Context, p *domain.Paste) error {
	data, err := codec.EncodePaste(p)
	if err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	res, err := s.db.ExecContext(queryCtx, `UPDATE pastes SET data = ? WHERE id = ?`, data, p.ID)
	if err != nil {
		return errors.Wrap(err, "db update paste")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return domain.ErrPasteNotFound
	}
	return nil
}

func (s *SQLite) ResolveShortLink(ctx context.Context, code string) (string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var pasteID string
	err := s.db.QueryRowContext(queryCtx, `SELECT paste_id FROM short_links WHERE code = ?`, code).Scan(&pasteID)
	if err == sql.ErrNoRows {
		return "", domain.ErrPasteNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "db resolve short link")
	}
	return pasteID, nil
}

func (s *SQLite) ShortLinkExists(ctx context.Context, code string) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var exists int
	err := s.db.QueryRowContext(queryCtx, `SELECT 1 FROM short_links WHERE code = ? LIMIT 1`, code).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "short link exists check failed")
	}
	return exists == 1, nil
}

// RecentPastes returns up to limit pastes in reverse insertion order.
func (s *SQLite) RecentPastes(ctx context.Context, limit int) ([]*domain.Paste, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(queryCtx, `SELECT data FROM pastes ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "db recent pastes")
	}
	defer rows.Close()
	pastes := []*domain.Paste{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		p, err := codec.DecodePaste(data)
		if err != nil {
			return nil, err
		}
		pastes = append(pastes, p)
	}
	return pastes, errors.Wrap(rows.Err(), "rows")
}

// ScanPastes decodes every paste in insertion order and collects those the
// match predicate accepts. This is a deliberate full linear scan; there are
// no secondary indexes beyond owner lists and short links.
func (s *SQLite) ScanPastes(ctx context.Context, match func(*domain.Paste) bool) ([]*domain.Paste, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(queryCtx, `SELECT data FROM pastes ORDER BY seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "db scan pastes")
	}
	defer rows.Close()
	pastes := []*domain.Paste{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		p, err := codec.DecodePaste(data)
		if err != nil {
			return nil, err
		}
		if match == nil || match(p) {
			pastes = append(pastes, p)
		}
	}
	return pastes, errors.Wrap(rows.Err(), "rows")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
