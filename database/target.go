// Package database отвечает за целевое хранилище справочника: подключение
// и выверку строк перед финальной записью.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TargetConfig конфигурация подключения к целевому хранилищу
type TargetConfig struct {
	DSN             string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// TargetStore обертка над целевой таблицей справочника.
type TargetStore struct {
	conn  *sql.DB
	table string
}

// OpenTarget подключается к целевому хранилищу. Недоступность хранилища на
// старте — фатальная ошибка всего запуска, поэтому соединение проверяется
// сразу.
func OpenTarget(ctx context.Context, config TargetConfig) (*TargetStore, error) {
	if config.Table == "" {
		config.Table = "reference_compass"
	}

	conn, err := sql.Open("sqlite3", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("открытие целевого хранилища %s: %w", config.DSN, err)
	}
	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("целевое хранилище недоступно: %w", err)
	}

	store := &TargetStore{conn: conn, table: config.Table}
	if err := store.ensureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}

// ensureSchema создает целевую таблицу, если ее еще нет. Финальную запись
// ведет внешний загрузчик, здесь нужна только колонка ИНН для выверки.
func (s *TargetStore) ensureSchema(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		inn TEXT,
		company_name TEXT,
		address TEXT,
		region TEXT,
		federal_district TEXT,
		city TEXT,
		okved TEXT,
		status TEXT,
		registration_date TEXT,
		liquidation_date TEXT,
		branch_name TEXT,
		branch_address TEXT,
		branch_region TEXT,
		original_file_name TEXT,
		original_file_parsed_on TEXT
	)`, s.table))
	if err != nil {
		return fmt.Errorf("создание целевой таблицы %s: %w", s.table, err)
	}
	return nil
}

// Close закрывает соединение с хранилищем.
func (s *TargetStore) Close() error {
	return s.conn.Close()
}

// Conn возвращает нижележащее соединение. Нужно внешнему загрузчику,
// который пишет итоговые строки в ту же таблицу.
func (s *TargetStore) Conn() *sql.DB {
	return s.conn
}

// DeleteByINN удаляет все строки целевой таблицы с данным ИНН и возвращает
// число удаленных строк.
func (s *TargetStore) DeleteByINN(ctx context.Context, taxID string) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE inn = ?", s.table), taxID)
	if err != nil {
		return 0, fmt.Errorf("удаление строк с ИНН %s: %w", taxID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountByINN возвращает число строк целевой таблицы с данным ИНН.
func (s *TargetStore) CountByINN(ctx context.Context, taxID string) (int64, error) {
	var n int64
	err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE inn = ?", s.table), taxID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("подсчет строк с ИНН %s: %w", taxID, err)
	}
	return n, nil
}
