package advertisement

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"admetrics/internal/database"
	"admetrics/internal/domain"
	"admetrics/internal/pkg/apperr"
	"admetrics/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *domain.User) {
	t.Helper()

	db, err := database.Connect(fmt.Sprintf("file:advertisement_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	users := repository.NewUserRepository(db)
	user := &domain.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", DateOfBirth: "1990-01-01"}
	require.NoError(t, users.Create(context.Background(), user))

	svc := NewService(repository.NewAdvertisementRepository(db), users, "http://localhost:8000")
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 23, 15, 0, 0, time.Local) }
	return svc, user
}

func TestService_Create_ComputesCostAndEnd(t *testing.T) {
	svc, user := setup(t)

	ad, err := svc.Create(context.Background(), user.ID, CreateRequest{
		PromoterName: "Acme",
		Message:      "Spring sale",
		RunHours:     "2",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ad.ID)
	assert.Equal(t, "200", ad.Cost)
	assert.Equal(t, "2", ad.RunHours)
	assert.Equal(t, "2024-05-02", ad.EndDate)
	assert.Equal(t, "01:15", ad.EndTime)
	assert.True(t, ad.IsActive)
	assert.Equal(t, "http://localhost:8000", ad.BuyURL)
	require.NotNil(t, ad.UserID)
	assert.Equal(t, user.ID, *ad.UserID)

	got, err := svc.Get(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.Equal(t, "200", got.Cost)

	ok, err := svc.Exists(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_Create_KeepsBuyURL(t *testing.T) {
	svc, user := setup(t)

	ad, err := svc.Create(context.Background(), user.ID, CreateRequest{RunHours: "1", BuyURL: "https://shop.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", ad.BuyURL)
	assert.Equal(t, "100", ad.Cost)
}

func TestService_Create_RejectsBadHours(t *testing.T) {
	svc, user := setup(t)

	for _, hours := range []string{"", "two", "0", "-4", "1.5", "87601", "3000000", "100000000000000000"} {
		_, err := svc.Create(context.Background(), user.ID, CreateRequest{RunHours: hours})
		assert.ErrorIs(t, err, ErrInvalidRunHours, hours)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	}
}

func TestService_Create_LongestCampaign(t *testing.T) {
	svc, user := setup(t)

	ad, err := svc.Create(context.Background(), user.ID, CreateRequest{RunHours: "87600"})
	require.NoError(t, err)
	assert.Equal(t, "8760000", ad.Cost)
	assert.Equal(t, "2034-04-29", ad.EndDate)
	assert.Equal(t, "23:15", ad.EndTime)
}

func TestService_Create_UnknownUser(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Create(context.Background(), "ghost", CreateRequest{RunHours: "2"})
	assert.ErrorIs(t, err, ErrTokenNotValid)
	assert.Equal(t, apperr.NotAuthenticated, apperr.KindOf(err))
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler_Create(t *testing.T) {
	svc, user := setup(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	g := r.Group("/", func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Next()
	})
	NewHandler(svc).RegisterProtectedRoutes(g)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-advertise/", strings.NewReader(`{"ad_promot_company_name":"Acme","ad_run_hours":"3"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"ad_cost":"300"`)
	assert.Contains(t, w.Body.String(), `"is_ad_active":true`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/create-advertise/", strings.NewReader(`{"ad_promot_company_name":"Acme"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"details":{"ad_run_hours":"required"}`)
}
