// internal/tests/api_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/apiclient"
	"github.com/javajoker/agriconnect-backend/internal/config"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/router"
	"github.com/javajoker/agriconnect-backend/internal/services"
	"github.com/javajoker/agriconnect-backend/internal/session"
	"github.com/javajoker/agriconnect-backend/internal/testutil"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

const eventTimeout = 3 * time.Second

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *router.Router
	server *httptest.Server
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize())
}

func (suite *APITestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())

	cfg := &config.Config{
		JWT:      config.JWTConfig{SecretKey: "suite-secret", AccessTokenTTL: 1, RefreshTokenTTL: 2},
		I18n:     config.I18nConfig{DefaultLocale: "en"},
		Realtime: config.RealtimeConfig{SendBuffer: 8},
		Uploads:  config.UploadsConfig{Dir: suite.T().TempDir(), MaxSizeBytes: 1 << 20},
	}

	rt, err := router.Initialize(suite.db, cfg)
	suite.Require().NoError(err)
	suite.router = rt
	suite.server = httptest.NewServer(rt.Engine)
}

func (suite *APITestSuite) TearDownTest() {
	suite.router.Close()
	suite.server.Close()
}

// user is a signed-in test account with its live event stream.
type user struct {
	client  *apiclient.Client
	session *session.Manager
	profile *models.User
	events  chan realtime.Message
}

func (suite *APITestSuite) signUp(name string, role models.Role) *user {
	u := &user{events: make(chan realtime.Message, 16)}
	u.session = session.NewManager(session.Options{
		Connector: session.NewDialerConnector(&realtime.Dialer{
			URL: "ws" + strings.TrimPrefix(suite.server.URL, "http") + "/ws",
		}),
		IdleTimeout: time.Minute,
		OnEvent:     func(msg realtime.Message) { u.events <- msg },
	})
	suite.T().Cleanup(u.session.Close)
	u.client = apiclient.New(suite.server.URL, apiclient.WithSession(u.session))

	ctx := context.Background()
	resp, err := u.client.Register(ctx, &services.RegisterRequest{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "Passw0rd!",
		Role:     string(role),
		Location: "Nakuru",
	})
	suite.Require().NoError(err)
	suite.Require().NoError(u.session.Login(ctx, &session.State{
		Token: resp.Token,
		User:  session.Profile{ID: resp.User.ID.String(), Name: resp.User.Name, Role: string(resp.User.Role)},
	}))
	suite.Require().NotNil(u.session.Live(), "live channel should be joined")

	u.profile = resp.User
	return u
}

func (suite *APITestSuite) nextEvent(u *user, event string) realtime.Message {
	select {
	case msg := <-u.events:
		suite.Require().Equal(event, msg.Event)
		return msg
	case <-time.After(eventTimeout):
		suite.FailNow("timed out waiting for " + event)
		return realtime.Message{}
	}
}

func (suite *APITestSuite) requireAPIError(err error, status int, code string) {
	var apiErr *apiclient.Error
	suite.Require().True(errors.As(err, &apiErr), "expected an API error, got %v", err)
	suite.Equal(status, apiErr.Status)
	suite.Equal(code, apiErr.Code)
}

func (suite *APITestSuite) TestOrderLifecycleWithLiveEvents() {
	ctx := context.Background()
	farmer := suite.signUp("Wanjiru", models.RoleFarmer)
	buyer := suite.signUp("Amina", models.RoleBuyer)

	product, err := farmer.client.CreateProduct(ctx, &services.CreateProductRequest{
		Name:              "Tomatoes",
		PricePerUnit:      decimal.RequireFromString("2.50"),
		QuantityAvailable: 10,
	})
	suite.Require().NoError(err)
	suite.Equal("kg", product.Unit)

	order, err := buyer.client.CreateOrder(ctx, product.ID, 3)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.True(order.TotalPrice.Equal(decimal.RequireFromString("7.50")))
	suite.Equal(7, testutil.Stock(suite.T(), suite.db, product.ID))

	msg := suite.nextEvent(farmer, realtime.EventNewNotification)
	var note models.Notification
	suite.Require().NoError(json.Unmarshal(msg.Data, &note))
	suite.Equal("New order: 3kg of Tomatoes from Amina", note.Message)

	// Buyers cannot drive status, and farmers cannot skip steps
	_, err = buyer.client.UpdateOrderStatus(ctx, order.ID, models.OrderStatusAccepted)
	suite.requireAPIError(err, http.StatusForbidden, "FORBIDDEN")
	_, err = farmer.client.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered)
	suite.requireAPIError(err, http.StatusBadRequest, "INVALID_TRANSITION")

	updated, err := farmer.client.UpdateOrderStatus(ctx, order.ID, models.OrderStatusAccepted)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusAccepted, updated.Status)

	msg = suite.nextEvent(buyer, realtime.EventOrderStatusUpdated)
	var statusEvent services.OrderStatusEvent
	suite.Require().NoError(json.Unmarshal(msg.Data, &statusEvent))
	suite.Equal(order.ID, statusEvent.OrderID)
	suite.Equal(models.OrderStatusAccepted, statusEvent.NewStatus)

	// Accepted orders can no longer be cancelled
	err = buyer.client.CancelOrder(ctx, order.ID)
	suite.requireAPIError(err, http.StatusBadRequest, "INVALID_TRANSITION")

	_, err = buyer.client.CreateOrder(ctx, product.ID, 8)
	suite.requireAPIError(err, http.StatusBadRequest, "INSUFFICIENT_STOCK")
	suite.Equal(7, testutil.Stock(suite.T(), suite.db, product.ID))

	farmerOrders, err := farmer.client.ListOrders(ctx, "", 1, 10)
	suite.Require().NoError(err)
	suite.Len(farmerOrders.Items, 1)

	unread, err := buyer.client.UnreadCount(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), unread)
	updatedCount, err := buyer.client.MarkAllNotificationsRead(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), updatedCount)
}

func (suite *APITestSuite) TestCancelRestoresStock() {
	ctx := context.Background()
	farmer := suite.signUp("Kiptoo", models.RoleFarmer)
	buyer := suite.signUp("Baraka", models.RoleBuyer)

	product := testutil.CreateProduct(suite.T(), suite.db, farmer.profile, "Maize", 1, 5)
	order, err := buyer.client.CreateOrder(ctx, product.ID, 5)
	suite.Require().NoError(err)
	suite.Equal(0, testutil.Stock(suite.T(), suite.db, product.ID))

	suite.Require().NoError(buyer.client.CancelOrder(ctx, order.ID))
	suite.Equal(5, testutil.Stock(suite.T(), suite.db, product.ID))
}

func (suite *APITestSuite) TestDuplicateRegistrationAndBadLogin() {
	suite.signUp("Achieng", models.RoleBuyer)
	client := apiclient.New(suite.server.URL)

	_, err := client.Register(context.Background(), &services.RegisterRequest{
		Name: "Achieng", Email: "ACHIENG@example.com", Password: "Passw0rd!", Role: "buyer",
	})
	suite.requireAPIError(err, http.StatusConflict, "CONFLICT")

	_, err = client.Login(context.Background(), "achieng@example.com", "wrong-pass1")
	suite.requireAPIError(err, http.StatusUnauthorized, "UNAUTHENTICATED")

	resp, err := client.Login(context.Background(), "achieng@example.com", "Passw0rd!")
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
}

func (suite *APITestSuite) TestAdminCannotRegister() {
	body, _ := json.Marshal(map[string]string{
		"name": "Root", "email": "root@example.com", "password": "Passw0rd!", "role": "admin",
	})
	resp, err := http.Post(suite.server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	var out utils.APIResponse
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	suite.Equal("VALIDATION_ERROR", out.Error.Code)
}

func (suite *APITestSuite) TestRejectedTokenEndsSession() {
	m := session.NewManager(session.Options{IdleTimeout: time.Minute})
	defer m.Close()
	suite.Require().NoError(m.Login(context.Background(), &session.State{
		Token: "not-a-jwt",
		User:  session.Profile{ID: uuid.NewString()},
	}))

	_, err := apiclient.New(suite.server.URL, apiclient.WithSession(m)).Me(context.Background())
	suite.requireAPIError(err, http.StatusUnauthorized, "UNAUTHENTICATED")

	select {
	case sig := <-m.Signals():
		suite.Equal(session.SignalUnauthorized, sig)
	case <-time.After(eventTimeout):
		suite.Fail("expected an unauthorized signal")
	}
	_, active := m.Current()
	suite.False(active)
}

func (suite *APITestSuite) TestWebsocketRequiresToken() {
	resp, err := http.Get(suite.server.URL + "/ws")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *APITestSuite) TestUploadImageServedLocally() {
	farmer := suite.signUp("Otieno", models.RoleFarmer)

	// 1x1 transparent PNG
	png := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", "tomato.png")
	suite.Require().NoError(err)
	part.Write(png)
	suite.Require().NoError(form.Close())

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/api/products/upload-image", &body)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+farmer.session.Token())

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusCreated, resp.StatusCode)

	var out struct {
		Data services.UploadResult `json:"data"`
	}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	suite.Equal("image/png", out.Data.MimeType)
	suite.True(strings.HasPrefix(out.Data.URL, "/uploads/products/"))

	served, err := http.Get(suite.server.URL + out.Data.URL)
	suite.Require().NoError(err)
	served.Body.Close()
	suite.Equal(http.StatusOK, served.StatusCode)
}

func (suite *APITestSuite) TestLocalizedErrors() {
	client := apiclient.New(suite.server.URL, apiclient.WithLanguage("zh-TW"))
	_, err := client.GetProduct(context.Background(), uuid.New())

	var apiErr *apiclient.Error
	suite.Require().True(errors.As(err, &apiErr))
	suite.Equal(http.StatusNotFound, apiErr.Status)
	suite.Equal(i18n.T("zh_TW", i18n.KeyProductNotFound), apiErr.Message)
}

func (suite *APITestSuite) TestHealthAndMetrics() {
	resp, err := http.Get(suite.server.URL + "/health")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(suite.server.URL + "/metrics")
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	suite.Contains(buf.String(), "agriconnect_http_requests_total")
}
