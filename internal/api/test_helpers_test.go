package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/macrosnap/macrosnap/internal/db"
	"github.com/macrosnap/macrosnap/internal/imagestore"
	"github.com/macrosnap/macrosnap/internal/nutrition"
	"github.com/macrosnap/macrosnap/internal/services"
)

type stubVisionClient struct {
	response string
	err      error
}

func (stub *stubVisionClient) Analyze(ctx context.Context, image []byte) (string, error) {
	if stub.err != nil {
		return "", stub.err
	}
	return stub.response, nil
}

func newMealTestApp(t *testing.T, client services.AnalysisClient) *fiber.App {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "macrosnap-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	images, err := imagestore.New(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("open image store: %v", err)
	}

	repos := db.NewRepositories(database)
	store := services.NewMealStore(repos.Meals)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewMealService(client, nutrition.Parser{}, images, store, logger)
	session, err := services.NewMealSession(service, store, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(session.Close)

	auth := services.NewAuthService(repos.Users)
	handler := NewHandler(auth, session, store, "test-secret-key", false)

	app := fiber.New()
	handler.RegisterRoutes(app)
	return app
}

func registerTestOwner(t *testing.T, app *fiber.App, email string, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected register status 201, got %d", response.StatusCode)
	}
	return extractAuthCookie(t, response)
}

func extractAuthCookie(t *testing.T, response *http.Response) string {
	t.Helper()

	for _, cookie := range response.Cookies() {
		if cookie.Name == authCookieName && cookie.Value != "" {
			return cookie.Name + "=" + cookie.Value
		}
	}
	t.Fatalf("expected response to set the auth cookie")
	return ""
}

func authedRequest(method string, target string, body io.Reader, cookie string) *http.Request {
	request := httptest.NewRequest(method, target, body)
	if body != nil {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	request.Header.Set("Cookie", cookie)
	return request
}

func uploadImageRequest(t *testing.T, target string, cookie string, image []byte) *http.Request {
	t.Helper()

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("image", "meal.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, target, &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Cookie", cookie)
	return request
}

func decodeJSONBody(t *testing.T, response *http.Response, target any) {
	t.Helper()

	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode response %q: %v", strings.TrimSpace(string(raw)), err)
	}
}
