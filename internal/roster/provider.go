// Package roster reads the externally maintained staff rosters.
package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// Provider supplies the admin and course rosters.
type Provider interface {
	GetAdminRoster(ctx context.Context) ([]domain.AdminRosterRow, error)
	GetCourseRoster(ctx context.Context) ([]domain.CourseRosterRow, error)
}

type csvProvider struct {
	adminPath  string
	coursePath string
	logger     *zap.Logger
}

// NewCSVProvider returns a Provider backed by two header-based CSV files.
// admins.csv columns: name, office, function, faculty (optional).
// courses.csv columns: lecturer, code, title, semester, year, faculty.
// A missing file yields an empty roster.
func NewCSVProvider(adminPath, coursePath string, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &csvProvider{adminPath: adminPath, coursePath: coursePath, logger: logger}
}

func (p *csvProvider) GetAdminRoster(ctx context.Context) ([]domain.AdminRosterRow, error) {
	records, err := p.readAll(ctx, p.adminPath, "name", "office", "function")
	if err != nil {
		return nil, err
	}
	rows := make([]domain.AdminRosterRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.AdminRosterRow{
			Name:     r["name"],
			Office:   r["office"],
			Function: r["function"],
			Faculty:  r["faculty"],
		})
	}
	return rows, nil
}

func (p *csvProvider) GetCourseRoster(ctx context.Context) ([]domain.CourseRosterRow, error) {
	records, err := p.readAll(ctx, p.coursePath, "lecturer", "code", "title", "semester", "year", "faculty")
	if err != nil {
		return nil, err
	}
	rows := make([]domain.CourseRosterRow, 0, len(records))
	for i, r := range records {
		year, err := strconv.Atoi(r["year"])
		if err != nil || r["code"] == "" {
			p.logger.Warn("skipping course roster row", zap.String("path", p.coursePath), zap.Int("row", i+2), zap.String("code", r["code"]))
			continue
		}
		rows = append(rows, domain.CourseRosterRow{
			Lecturer: r["lecturer"],
			Code:     r["code"],
			Title:    r["title"],
			Semester: r["semester"],
			Year:     year,
			Faculty:  r["faculty"],
		})
	}
	return rows, nil
}

// readAll returns every data row keyed by lowercased header name.
func (p *csvProvider) readAll(ctx context.Context, path string, required ...string) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("roster file not found", zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, path, p.logger, required...)
}

func parse(r io.Reader, path string, logger *zap.Logger, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read roster header %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("roster %s: missing column %q", path, col)
		}
	}

	var out []map[string]string
	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed roster row", zap.String("path", path), zap.Int("row", line), zap.Error(err))
			continue
		}
		row := make(map[string]string, len(index))
		for col, i := range index {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		out = append(out, row)
	}
	return out, nil
}
