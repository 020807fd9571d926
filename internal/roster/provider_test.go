package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCSVProvider_ReadsRosters(t *testing.T) {
	dir := t.TempDir()
	admins := writeFile(t, dir, "admins.csv", "Name,Office,Function,Faculty\nJohn Doe, Registrar ,Head,ICT\nMary Smith,Finance,Clerk\n")
	courses := writeFile(t, dir, "courses.csv", "lecturer,code,title,semester,year,faculty\nJohn Doe,CSC101,Intro,First,2024,ICT\nJane Roe,BMS200,Markets,Second,notayear,BMS\n")

	p := NewCSVProvider(admins, courses, zap.NewNop())

	adminRows, err := p.GetAdminRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, adminRows, 2)
	assert.Equal(t, "Registrar", adminRows[0].Office)
	assert.Equal(t, "ICT", adminRows[0].Faculty)
	assert.Empty(t, adminRows[1].Faculty)

	courseRows, err := p.GetCourseRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, courseRows, 1)
	assert.Equal(t, "CSC101", courseRows[0].Code)
	assert.Equal(t, 2024, courseRows[0].Year)
}

func TestCSVProvider_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	p := NewCSVProvider(filepath.Join(dir, "nope.csv"), "", nil)

	adminRows, err := p.GetAdminRoster(context.Background())
	require.NoError(t, err)
	assert.Empty(t, adminRows)

	courseRows, err := p.GetCourseRoster(context.Background())
	require.NoError(t, err)
	assert.Empty(t, courseRows)
}

func TestCSVProvider_MissingColumnFails(t *testing.T) {
	dir := t.TempDir()
	admins := writeFile(t, dir, "admins.csv", "name,function\nJohn Doe,Head\n")

	_, err := NewCSVProvider(admins, "", nil).GetAdminRoster(context.Background())
	assert.ErrorContains(t, err, `missing column "office"`)
}
