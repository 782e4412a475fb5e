package enrichment

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Cache долговременный кэш обогащения: ИНН -> запись реестра. Хранится в
// SQLite и переживает перезапуски, повторный Put по существующему ключу
// ничего не меняет (выигрывает первая запись).
type Cache struct {
	conn *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache_inn (
	inn TEXT PRIMARY KEY,
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
	branch_region TEXT
);

CREATE TABLE IF NOT EXISTS cache_company_name (
	query TEXT PRIMARY KEY,
	inn TEXT,
	company_name TEXT
);
`

// OpenCache открывает (и при первом использовании создает) файл кэша вместе
// со схемой. Каталог до файла создается при необходимости.
func OpenCache(dbPath string) (*Cache, error) {
	if !isInMemoryPath(dbPath) {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("создание каталога кэша: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("открытие кэша %s: %w", dbPath, err)
	}

	// Для in-memory SQLite требуется ровно одно соединение, иначе каждое
	// новое соединение получает пустую БД без таблиц.
	if isInMemoryPath(dbPath) {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("проверка кэша %s: %w", dbPath, err)
	}
	if _, err := conn.Exec(cacheSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("создание схемы кэша: %w", err)
	}
	return &Cache{conn: conn}, nil
}

func isInMemoryPath(dbPath string) bool {
	return dbPath == ":memory:" ||
		(strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory"))
}

// Close закрывает соединение с кэшем.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Get возвращает запись реестра по ИНН, если она уже была закэширована.
func (c *Cache) Get(taxID string) (*EnrichmentRecord, bool, error) {
	row := c.conn.QueryRow(`SELECT company_name, address, region, federal_district,
		city, okved, status, registration_date, liquidation_date,
		branch_name, branch_address, branch_region
		FROM cache_inn WHERE inn = ?`, taxID)

	var record EnrichmentRecord
	err := row.Scan(&record.CompanyName, &record.Address, &record.Region,
		&record.FederalDistrict, &record.City, &record.OKVED, &record.Status,
		&record.RegistrationDate, &record.LiquidationDate,
		&record.BranchName, &record.BranchAddress, &record.BranchRegion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("чтение кэша для ИНН %s: %w", taxID, err)
	}
	return &record, true, nil
}

// Put сохраняет запись реестра. Идемпотентна: повторная запись по тому же
// ИНН игнорируется, остается первая.
func (c *Cache) Put(taxID string, record *EnrichmentRecord) error {
	_, err := c.conn.Exec(`INSERT OR IGNORE INTO cache_inn
		(inn, company_name, address, region, federal_district, city, okved,
		 status, registration_date, liquidation_date,
		 branch_name, branch_address, branch_region)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		taxID, record.CompanyName, record.Address, record.Region,
		record.FederalDistrict, record.City, record.OKVED, record.Status,
		record.RegistrationDate, record.LiquidationDate,
		record.BranchName, record.BranchAddress, record.BranchRegion)
	if err != nil {
		return fmt.Errorf("запись в кэш для ИНН %s: %w", taxID, err)
	}
	return nil
}

// GetCompanyName возвращает закэшированный результат поиска наименования.
func (c *Cache) GetCompanyName(query string) (inn, name string, found bool, err error) {
	row := c.conn.QueryRow(`SELECT inn, company_name FROM cache_company_name WHERE query = ?`, query)
	err = row.Scan(&inn, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("чтение кэша наименований: %w", err)
	}
	return inn, name, true, nil
}

// PutCompanyName сохраняет результат поиска наименования, первая запись
// выигрывает.
func (c *Cache) PutCompanyName(query, inn, name string) error {
	_, err := c.conn.Exec(`INSERT OR IGNORE INTO cache_company_name (query, inn, company_name)
		VALUES (?, ?, ?)`, query, inn, name)
	if err != nil {
		return fmt.Errorf("запись в кэш наименований: %w", err)
	}
	return nil
}
