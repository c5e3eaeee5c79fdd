// Package repository реализует хранилище прогресса на базе SQL.
// Поддерживаются PostgreSQL (драйвер pgx) и встраиваемый SQLite (modernc)
// для локального запуска и тестов. Запросы пишутся с плейсхолдерами $N
// и переписываются под SQLite при выполнении.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Storage инкапсулирует соединение с базой данных
// и реализует методы работы с прогрессом, доступом к оценке, планами и пользователями.
type Storage struct {
	DB     *sql.DB
	driver string
}

// New открывает подключение к базе и проверяет его.
func New(driver, dsn string) (*Storage, error) {
	const op = "storage.New"

	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == DriverSQLite {
		// одно соединение: in-memory база живёт в пределах соединения
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:     db,
		driver: driver,
	}, nil
}

// Driver возвращает имя драйвера хранилища.
func (s *Storage) Driver() string {
	return s.driver
}

// Close закрывает соединение с базой.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ready проверяет, что схема прогресса применена.
func (s *Storage) Ready(ctx context.Context) error {
	const op = "storage.Ready"

	query := `SELECT EXISTS (
			      SELECT FROM information_schema.tables
			      WHERE table_name = 'daily_progress'
			  )`
	if s.driver == DriverSQLite {
		query = `SELECT EXISTS (
				     SELECT 1 FROM sqlite_master
				     WHERE type = 'table' AND name = 'daily_progress'
				 )`
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: required table daily_progress missing", op)
	}
	return nil
}

func (s *Storage) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?${1}")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
			return true
		}
	}
	return false
}
