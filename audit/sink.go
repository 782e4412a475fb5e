// Package audit ведет файл аудита: append-only CSV рядом с исходным файлом,
// куда попадают строки, которые конвейер не смог обработать.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
)

// Column соответствие внутреннего имени поля исходному заголовку колонки.
type Column struct {
	Field  string // внутреннее имя (inn, company_name, ...)
	Header string // исходный заголовок на русском
}

// ReasonHeader заголовок первой колонки файла аудита.
const ReasonHeader = "Причина ошибки"

// Sink файл аудита. Заголовок пишется только если файл пуст (смещение 0),
// дальше строки только дописываются. Безопасен для конкурентного
// использования воркерами.
type Sink struct {
	path    string
	columns []Column

	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewSink создает приемник ошибок. Файл открывается лениво, при первой
// записи.
func NewSink(path string, columns []Column) *Sink {
	return &Sink{path: path, columns: columns}
}

// Record дописывает одну отбракованную строку: причина ошибки, затем
// исходные значения колонок в исходном порядке.
func (s *Sink) Record(fields map[string]string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}

	row := make([]string, 0, len(s.columns)+1)
	row = append(row, reason)
	for _, col := range s.columns {
		row = append(row, fields[col.Field])
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("запись в файл аудита: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *Sink) open() error {
	if s.file != nil {
		return nil
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("открытие файла аудита %s: %w", s.path, err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return err
	}

	s.file = file
	s.w = csv.NewWriter(file)

	if offset == 0 {
		header := make([]string, 0, len(s.columns)+1)
		header = append(header, ReasonHeader)
		for _, col := range s.columns {
			header = append(header, col.Header)
		}
		if err := s.w.Write(header); err != nil {
			return fmt.Errorf("запись заголовка файла аудита: %w", err)
		}
		s.w.Flush()
	}
	return s.w.Error()
}

// Close закрывает файл аудита, если он был открыт.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	err := s.file.Close()
	s.file = nil
	return err
}
