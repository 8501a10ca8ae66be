package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/annel0/voxel-engine/internal/vec"
)

// Dialect определяет SQL-диалект хранилища чанков
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// SQLChunkRepo хранит чанки в таблице chunks(x, y, z, data) с уникальным ключом (x, y, z).
// Поддерживает SQLite (modernc.org/sqlite) и MariaDB/MySQL.
type SQLChunkRepo struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLiteChunkRepo открывает файл SQLite по пути path.
// Соединение одно: SQLite не допускает параллельной записи.
func NewSQLiteChunkRepo(path string) (*SQLChunkRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("пустой путь к базе SQLite")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог базы: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ошибка установки %q: %w", p, err)
		}
	}

	return newSQLChunkRepo(db, DialectSQLite)
}

// NewMariaChunkRepo подключается к MariaDB/MySQL.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaChunkRepo(dsn string) (*SQLChunkRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	return newSQLChunkRepo(db, DialectMySQL)
}

func newSQLChunkRepo(db *sql.DB, dialect Dialect) (*SQLChunkRepo, error) {
	repo := &SQLChunkRepo{db: db, dialect: dialect}

	// Создаем таблицу, если она не существует
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

func (r *SQLChunkRepo) createTable() error {
	var query string
	switch r.dialect {
	case DialectMySQL:
		query = `
			CREATE TABLE IF NOT EXISTS chunks (
				x    INT        NOT NULL,
				y    INT        NOT NULL,
				z    INT        NOT NULL,
				data MEDIUMBLOB NOT NULL,
				UNIQUE KEY uniq_chunk_pos (x, y, z)
			) ENGINE=InnoDB
		`
	default:
		query = `
			CREATE TABLE IF NOT EXISTS chunks (
				x    INTEGER NOT NULL,
				y    INTEGER NOT NULL,
				z    INTEGER NOT NULL,
				data BLOB    NOT NULL,
				UNIQUE (x, y, z)
			)
		`
	}

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы chunks: %w", err)
	}
	return nil
}

func (r *SQLChunkRepo) upsertQuery() string {
	if r.dialect == DialectMySQL {
		return `
			INSERT INTO chunks (x, y, z, data)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE data = VALUES(data)
		`
	}
	return `
		INSERT INTO chunks (x, y, z, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (x, y, z) DO UPDATE SET data = excluded.data
	`
}

// Save сохраняет блоб чанка (INSERT или UPDATE существующей строки)
func (r *SQLChunkRepo) Save(ctx context.Context, pos vec.ChunkPos, data []byte) error {
	_, err := r.db.ExecContext(ctx, r.upsertQuery(), pos.X, pos.Y, pos.Z, data)
	if err != nil {
		return fmt.Errorf("ошибка сохранения чанка %v: %w", pos, err)
	}
	return nil
}

// Load загружает блоб чанка
func (r *SQLChunkRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	query := `SELECT data FROM chunks WHERE x = ? AND y = ? AND z = ?`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, pos.X, pos.Y, pos.Z).Scan(&data)
	if err == sql.ErrNoRows {
		// Чанк ещё не сохранялся
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки чанка %v: %w", pos, err)
	}

	return data, true, nil
}

// Delete удаляет чанк
func (r *SQLChunkRepo) Delete(ctx context.Context, pos vec.ChunkPos) error {
	query := `DELETE FROM chunks WHERE x = ? AND y = ? AND z = ?`
	if _, err := r.db.ExecContext(ctx, query, pos.X, pos.Y, pos.Z); err != nil {
		return fmt.Errorf("ошибка удаления чанка %v: %w", pos, err)
	}
	return nil
}

// Count возвращает количество сохранённых чанков
func (r *SQLChunkRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта чанков: %w", err)
	}
	return n, nil
}

// Close закрывает соединение с базой данных.
func (r *SQLChunkRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
