package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"courses.csv":      "id;code;name;teacher_id;faculty;level;total_hours\n1;CS101;Algorithms;10;Engineering;1;3\n2;MA201;Calculus;11;Science;2;2\n",
		"sessions.csv":     "course_id;type;hours\n1;lecture;2\n1;lab;1\n2;lecture;2\n",
		"enrollments.csv":  "course_id;department;student_count\n1;CS;40\n2;MATH;25\n",
		"rooms.csv":        "id;name;capacity;type\n100;A101;60;lecture\n200;LAB1;50;lab\n",
		"availability.csv": "teacher_id;day;free_from\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-dir", "data", "-delim", ";", "-per-block"})
	require.NoError(t, err)
	assert.Equal(t, "data", opts.dir)
	assert.Equal(t, ';', opts.delim)
	assert.True(t, opts.perBlock)
	assert.Equal(t, string(models.RoleAdmin), opts.role)

	_, err = parseFlags([]string{"-delim", ";;"})
	require.Error(t, err)
}

func TestRunPrintsJSONResult(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, options{dir: writeDataset(t), delim: ';'}, zap.NewNop())
	require.NoError(t, err)

	var result timetable.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ScheduledCount)
	assert.True(t, result.Perfect)
}

func TestRunWritesScheduleCSV(t *testing.T) {
	dir := writeDataset(t)
	target := filepath.Join(t.TempDir(), "schedule.csv")

	var out bytes.Buffer
	require.NoError(t, run(&out, options{dir: dir, delim: ';', out: target}, zap.NewNop()))
	assert.Contains(t, out.String(), "3 sessions written")

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "day;time_range;course_code"))
}

func TestRunRejectsInvalidDataset(t *testing.T) {
	dir := writeDataset(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rooms.csv"), []byte("id;name;capacity;type\n100;A101;0;lecture\n"), 0o600))

	err := run(&bytes.Buffer{}, options{dir: dir, delim: ';'}, zap.NewNop())
	require.Error(t, err)
}

func TestIssueToken(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "cli-secret", Expiration: time.Hour}}

	var out bytes.Buffer
	require.NoError(t, issueToken(&out, cfg, options{issueToken: "ops-1", role: string(models.RoleAdmin)}, zap.NewNop()))
	token := strings.SplitN(out.String(), "\n", 2)[0]

	auth := service.NewAuthService(nil, nil, service.AuthConfig{AccessTokenSecret: "cli-secret"})
	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	err = issueToken(&bytes.Buffer{}, cfg, options{issueToken: "ops-1", role: "STUDENT"}, zap.NewNop())
	require.Error(t, err)
}
