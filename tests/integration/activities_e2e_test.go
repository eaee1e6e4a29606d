package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mergington-activities/internal/config"
	"github.com/noah-isme/mergington-activities/internal/handler"
	"github.com/noah-isme/mergington-activities/internal/middleware"
	"github.com/noah-isme/mergington-activities/internal/models"
	"github.com/noah-isme/mergington-activities/internal/repository"
	"github.com/noah-isme/mergington-activities/internal/router"
	"github.com/noah-isme/mergington-activities/internal/service"
	"github.com/noah-isme/mergington-activities/internal/utils"
	"github.com/noah-isme/mergington-activities/internal/web"
)

type activityMap map[string]models.Activity

func setupActivitiesApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	repo := repository.NewMemoryActivityRepository(repository.DefaultActivities())
	events := service.NewRosterEvents(nil, nil, "", logger)
	svc := service.NewActivityService(repo, validator.New(validator.WithRequiredStructEnabled()), events, logger)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test"}, router.Dependencies{
		ActivityHandler:     handler.NewActivityHandler(svc, logger),
		RosterStreamHandler: handler.NewRosterStreamHandler(events, logger),
		StaticAssets:        web.Static(),
		MutationLimiter:     middleware.RateLimit("roster", 1000, time.Minute, nil),
	})

	return app
}

func do(t *testing.T, app *fiber.App, method, activity, action, email string) *http.Response {
	t.Helper()
	target := "/activities/" + url.PathEscape(activity) + "/" + action
	if email != "" {
		target += "?email=" + url.QueryEscape(email)
	}
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func listActivities(t *testing.T, app *fiber.App) activityMap {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var activities activityMap
	decode(t, resp, &activities)
	return activities
}

func TestRootRedirectsToIndex(t *testing.T) {
	app := setupActivitiesApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, "/static/index.html", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/static/index.html", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListActivitiesHasRequiredFields(t *testing.T) {
	app := setupActivitiesApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]map[string]json.RawMessage
	decode(t, resp, &raw)

	for _, name := range []string{"Chess Club", "Programming Class", "Gym Class"} {
		require.Contains(t, raw, name)
	}
	for name, fields := range raw {
		for _, field := range []string{"description", "schedule", "max_participants", "participants"} {
			require.Contains(t, fields, field, "%s missing %s", name, field)
		}
		var participants []string
		require.NoError(t, json.Unmarshal(fields["participants"], &participants), name)
		require.NotNil(t, participants, name)
	}
}

func TestSignupFlow(t *testing.T) {
	app := setupActivitiesApp(t)
	before := listActivities(t, app)["Chess Club"]

	resp := do(t, app, http.MethodPost, "Chess Club", "signup", "newstudent@mergington.edu")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var message map[string]string
	decode(t, resp, &message)
	require.Contains(t, message["message"], "newstudent@mergington.edu")
	require.Contains(t, message["message"], "Chess Club")

	after := listActivities(t, app)["Chess Club"]
	require.Len(t, after.Participants, len(before.Participants)+1)
	require.Contains(t, after.Participants, "newstudent@mergington.edu")
}

func TestSignupUnknownActivity(t *testing.T) {
	app := setupActivitiesApp(t)

	resp := do(t, app, http.MethodPost, "Nonexistent Activity", "signup", "student@mergington.edu")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	require.Equal(t, "Activity not found", body["detail"])
}

func TestSignupDuplicateLeavesRosterUnchanged(t *testing.T) {
	app := setupActivitiesApp(t)
	email := "duplicate@mergington.edu"

	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "Chess Club", "signup", email).StatusCode)
	before := listActivities(t, app)["Chess Club"]

	resp := do(t, app, http.MethodPost, "Chess Club", "signup", email)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	require.Equal(t, email+" already signed up", body["detail"])
	require.Equal(t, before.Participants, listActivities(t, app)["Chess Club"].Participants)
}

func TestSignupWithoutEmail(t *testing.T) {
	app := setupActivitiesApp(t)

	resp := do(t, app, http.MethodPost, "Chess Club", "signup", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMultipleStudentsCanSignUp(t *testing.T) {
	app := setupActivitiesApp(t)
	emails := []string{"student1@mergington.edu", "student2@mergington.edu", "student3@mergington.edu"}

	for _, email := range emails {
		require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "Gym Class", "signup", email).StatusCode)
	}

	participants := listActivities(t, app)["Gym Class"].Participants
	require.Equal(t, emails, participants[len(participants)-len(emails):])
}

func TestUnregisterFlow(t *testing.T) {
	app := setupActivitiesApp(t)
	before := listActivities(t, app)["Chess Club"]

	resp := do(t, app, http.MethodDelete, "Chess Club", "unregister", "michael@mergington.edu")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listActivities(t, app)["Chess Club"].Participants, len(before.Participants)-1)

	resp = do(t, app, http.MethodDelete, "Chess Club", "unregister", "michael@mergington.edu")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	require.Equal(t, "michael@mergington.edu not registered", body["detail"])

	resp = do(t, app, http.MethodDelete, "Nonexistent Activity", "unregister", "michael@mergington.edu")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSignupThenUnregisterRestoresRoster(t *testing.T) {
	app := setupActivitiesApp(t)
	before := listActivities(t, app)["Programming Class"]

	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "Programming Class", "signup", "coder@mergington.edu").StatusCode)
	require.Equal(t, http.StatusOK, do(t, app, http.MethodDelete, "Programming Class", "unregister", "coder@mergington.edu").StatusCode)

	require.ElementsMatch(t, before.Participants, listActivities(t, app)["Programming Class"].Participants)
}

func TestUnknownRouteReturnsDetail(t *testing.T) {
	app := setupActivitiesApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	require.Equal(t, "Not Found", body["detail"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupActivitiesApp(t)
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "Math Club", "signup", "metrics@mergington.edu").StatusCode)
	for i := 0; i < 3; i++ {
		listResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/activities", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, listResp.StatusCode)
		require.Equal(t, http.StatusOK, do(t, app, http.MethodDelete, "Math Club", "unregister", "metrics@mergington.edu").StatusCode)
		require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "Math Club", "signup", "metrics@mergington.edu").StatusCode)
		missing, err := app.Test(httptest.NewRequest(http.MethodGet, "/no-such-route", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, missing.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "activity_roster_changes_total")
}
