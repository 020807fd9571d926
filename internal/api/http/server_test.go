package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/api/http/handlers"
	"github.com/spec-kit/complaint-desk/internal/app"
	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository/memory"
)

const (
	testDomain = "ictuniversity.edu.cm"
	testSecret = "upstream"
)

type staticRoster struct {
	courses []domain.CourseRosterRow
}

func (r staticRoster) GetAdminRoster(context.Context) ([]domain.AdminRosterRow, error) {
	return nil, nil
}

func (r staticRoster) GetCourseRoster(context.Context) ([]domain.CourseRosterRow, error) {
	return r.courses, nil
}

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "complaint-desk", Env: "test", Version: "test"},
		Auth: config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, UpstreamSecret: testSecret},
		Institution: config.InstitutionConfig{
			EmailDomain:         testDomain,
			DeleteRejectedUsers: true,
			SystemEmail:         "system@" + testDomain,
		},
	}
	container, err := app.Build(context.Background(), cfg, zap.NewNop(), app.Options{
		Store: memory.New(),
		Roster: staticRoster{courses: []domain.CourseRosterRow{
			{Lecturer: "ada king", Code: "ICT101", Title: "Networks", Semester: "Spring", Year: 2024, Faculty: "ICT"},
		}},
		Synchronous: true,
	})
	require.NoError(t, err)
	_, err = container.Bootstrap(context.Background())
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return NewServer(container)
}

type call struct {
	method string
	path   string
	token  string
	body   any
	header map[string]string
}

func do(t *testing.T, server *fiber.App, c call, out any) int {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, server *fiber.App, email string) string {
	t.Helper()
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	status := do(t, server, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email},
		header: map[string]string{handlers.UpstreamSecretHeader: testSecret},
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

func TestHealthAndLoginGuards(t *testing.T) {
	server := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/health/live"}, nil))
	assert.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/health/ready"}, nil))

	var errBody struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	status := do(t, server, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": "jane.roe@" + testDomain},
	}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errBody.Error.Code)

	status = do(t, server, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": "jane.roe@gmail.com"},
		header: map[string]string{handlers.UpstreamSecretHeader: testSecret},
	}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "IDENTITY_REJECTED", errBody.Error.Code)

	assert.Equal(t, http.StatusUnauthorized, do(t, server, call{method: http.MethodGet, path: "/me"}, nil))
}

func TestComplaintLifecycle(t *testing.T) {
	server := newTestServer(t)
	lecturer := login(t, server, "ada.king@"+testDomain)
	student := login(t, server, "jane.roe@"+testDomain)

	var categories struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/categories", token: student}, &categories))
	var categoryID string
	for _, c := range categories.Data {
		if c.Name == domain.CategoryNoCAMark {
			categoryID = c.ID
		}
	}
	require.NotEmpty(t, categoryID)

	var courses struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/courses?mine=true", token: lecturer}, &courses))
	require.Len(t, courses.Data, 1)

	create := call{
		method: http.MethodPost,
		path:   "/complaints",
		token:  student,
		body: map[string]any{
			"description": "My CA mark is missing",
			"category_id": categoryID,
			"course_id":   courses.Data[0].ID,
		},
		header: map[string]string{handlers.IdempotencyKeyHeader: "retry-1"},
	}
	var filed struct {
		Data struct {
			ID          string   `json:"id"`
			Status      string   `json:"status"`
			AssigneeIDs []string `json:"assignee_ids"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusCreated, do(t, server, create, &filed))
	assert.Equal(t, "Open", filed.Data.Status)
	assert.Len(t, filed.Data.AssigneeIDs, 1)

	lecturerFiles := create
	lecturerFiles.token = lecturer
	assert.Equal(t, http.StatusForbidden, do(t, server, lecturerFiles, nil))

	var assignments struct {
		Data []struct {
			ComplaintID string `json:"complaint_id"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/assignments", token: lecturer}, &assignments))
	require.Len(t, assignments.Data, 1)
	assert.Equal(t, filed.Data.ID, assignments.Data[0].ComplaintID)

	status := do(t, server, call{
		method: http.MethodPost,
		path:   "/complaints/" + filed.Data.ID + "/resolutions",
		token:  lecturer,
		body:   map[string]any{"exam_mark": 40},
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status = do(t, server, call{
		method: http.MethodPost,
		path:   "/complaints/" + filed.Data.ID + "/resolutions",
		token:  lecturer,
		body:   map[string]any{"ca_mark": 14, "comments": "uploaded"},
	}, nil)
	assert.Equal(t, http.StatusCreated, status)

	var got struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/complaints/" + filed.Data.ID, token: student}, &got))
	assert.Equal(t, "Resolved", got.Data.Status)

	var inbox struct {
		Data []struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/notifications", token: student}, &inbox))
	require.NotEmpty(t, inbox.Data)
	assert.Contains(t, inbox.Data[0].Message, "has been resolved")
}

func TestCommunityFeed(t *testing.T) {
	server := newTestServer(t)
	author := login(t, server, "jane.roe@"+testDomain)
	reader := login(t, server, "john.roe@"+testDomain)

	var categories struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/categories", token: author}, &categories))
	require.NotEmpty(t, categories.Data)

	for _, complaintType := range []string{"Private", "Community"} {
		status := do(t, server, call{
			method: http.MethodPost,
			path:   "/complaints",
			token:  author,
			body: map[string]any{
				"description":    "shared issue",
				"category_id":    categories.Data[0].ID,
				"complaint_type": complaintType,
				"is_anonymous":   true,
			},
		}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var feed struct {
		Data []struct {
			StudentID *string `json:"student_id"`
			Type      string  `json:"complaint_type"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, server, call{method: http.MethodGet, path: "/complaints?scope=community", token: reader}, &feed))
	require.Len(t, feed.Data, 1)
	assert.Equal(t, "Community", feed.Data[0].Type)
	assert.Nil(t, feed.Data[0].StudentID)

	assert.Equal(t, http.StatusBadRequest,
		do(t, server, call{method: http.MethodGet, path: "/complaints?scope=everyone", token: reader}, nil))
}
