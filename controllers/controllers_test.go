package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/controllers"
	"github.com/getAlby/rgbhub.go/db"
	"github.com/getAlby/rgbhub.go/db/migrations"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/security"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/lib/transport"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/getAlby/rgbhub.go/nodegw/nodegwtest"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"
	"github.com/ziflex/lecho/v3"
	gokeyring "github.com/zalando/go-keyring"
)

const (
	testNativePassword = "correct horse battery staple 42"
	testAdminToken     = "admin-token"
)

type testServer struct {
	e   *echo.Echo
	svc *service.RgbHubService
	gw  *nodegwtest.Gateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gokeyring.MockInit()
	ctx := context.Background()

	dbConn, err := db.Open(&db.Config{
		DatabaseUri: fmt.Sprintf("file:%s?mode=memory&cache=shared", ksuid.New().String()),
	})
	require.NoError(t, err)
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	hashed, err := security.HashPassword(testNativePassword)
	require.NoError(t, err)
	c := &service.Config{
		JWTSecret:                    []byte("SECRET"),
		JWTAccessTokenExpiry:         3600,
		AdminToken:                   testAdminToken,
		DefaultRateLimit:             1000,
		StrictRateLimit:              1000,
		BurstRateLimit:               1000,
		RefreshInterval:              1,
		RefreshMaxBackoff:            2,
		RefreshWorkers:               2,
		MediaCacheSize:               8,
		BackupDir:                    t.TempDir(),
		KeyringService:               "rgbhub-test",
		NativeAuthenticationPassword: hashed,
	}
	logger := lecho.New(io.Discard)
	gw := nodegwtest.New()
	svc, err := service.NewRgbHubService(c, dbConn, gw, common.NetworkRegtest, logger)
	require.NoError(t, err)
	require.NoError(t, svc.Start(ctx))

	e := transport.InitEcho(c, logger)
	require.NoError(t, transport.RegisterEndpoints(svc, e, logger))
	t.Cleanup(func() {
		svc.Close()
		dbConn.Close()
	})
	return &testServer{e: e, svc: svc, gw: gw}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		reader = &buf
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) fund(sats uint64) {
	s.gw.Update(func(g *nodegwtest.Gateway) {
		g.Btc.Vanilla = nodegw.Balance{Settled: sats, Future: sats, Spendable: sats}
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) responses.ErrorResponse {
	t.Helper()
	resp := responses.ErrorResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := controllers.HealthResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "OK", resp.Result)
	assert.Equal(t, common.NetworkRegtest, resp.Network)
}

func TestAppLoginGuardsSecuredRoutes(t *testing.T) {
	s := newTestServer(t)

	// app login is off by default
	rec := s.do(t, http.MethodGet, "/v1/settings", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	enabled := true
	_, err := s.svc.UpdateSettings(context.Background(), &service.SettingsUpdate{AskAuthForAppLogin: &enabled, Password: testNativePassword})
	require.NoError(t, err)

	rec = s.do(t, http.MethodGet, "/v1/settings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth", &controllers.AuthRequestBody{Password: "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, common.KindNativeAuthRejected, decodeError(t, rec).Kind)

	rec = s.do(t, http.MethodPost, "/v1/auth", &controllers.AuthRequestBody{Password: testNativePassword})
	require.Equal(t, http.StatusOK, rec.Code)
	auth := controllers.AuthResponseBody{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&auth))
	assert.NotEmpty(t, auth.AccessToken)

	rec = s.do(t, http.MethodGet, "/v1/settings", nil, echo.HeaderAuthorization, "Bearer "+auth.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays public
	rec = s.do(t, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListAssets(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/assets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assets := []models.Asset{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&assets))
	require.Len(t, assets, 1)
	assert.Equal(t, common.BitcoinAssetID, assets[0].AssetID)

	rec = s.do(t, http.MethodGet, "/v1/assets?kind=NFT", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.KindValidation, decodeError(t, rec).Kind)

	rec = s.do(t, http.MethodGet, "/v1/assets/rgb:unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.KindNotFound, decodeError(t, rec).Kind)
}

func TestIssueRGB20(t *testing.T) {
	s := newTestServer(t)
	s.fund(100000000)

	rec := s.do(t, http.MethodPost, "/v1/assets/rgb20", &controllers.IssueRGB20RequestBody{Ticker: "USDT", Name: "Tether", Amount: 1000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	asset := models.Asset{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&asset))
	assert.Equal(t, common.AssetKindRGB20, asset.Kind)

	rec = s.do(t, http.MethodGet, "/v1/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := []service.AssetRow{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, common.BitcoinAssetID, rows[0].AssetID)
	assert.Equal(t, asset.AssetID, rows[1].AssetID)

	rec = s.do(t, http.MethodGet, "/v1/assets/"+asset.AssetID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := service.AssetDetail{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, uint64(1000), detail.Balance.OnChain.Total)
}

func TestIssueRGB20Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/assets/rgb20", &controllers.IssueRGB20RequestBody{Name: "No ticker", Amount: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.KeyBadArguments, decodeError(t, rec).Key)

	rec = s.do(t, http.MethodPost, "/v1/assets/rgb25", &controllers.IssueRGB25RequestBody{Name: "Art", Amount: 1, Media: "%%%"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.gw.Calls("IssueRGB25"))
}

func TestFailTransferBadIdx(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/transfers/abc/fail", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/transfers/42/fail", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, s.gw.Calls("FailTransfers"))
}

func TestEstimateFee(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/fees/fast", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := controllers.FeeRateResponseBody{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, uint64(2), resp.FeeRate)

	rec = s.do(t, http.MethodGet, "/v1/fees/warp", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.gw.Fail("EstimateFee", common.NewError(common.KindNodeUnavailable, common.KeyConnectionFailed))
	rec = s.do(t, http.MethodGet, "/v1/fees/slow", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, common.KindNodeUnavailable, decodeError(t, rec).Kind)
}

func TestInvoiceQR(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/invoices/qr?invoice=rgb:abc&size=128", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(t, http.MethodGet, "/v1/invoices/qr", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/invoices/qr?invoice=x&size=99999", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSettings(t *testing.T) {
	s := newTestServer(t)

	rate := uint64(9)
	rec := s.do(t, http.MethodPut, "/v1/settings", &controllers.UpdateSettingsRequestBody{DefaultFeeRate: &rate})
	require.Equal(t, http.StatusOK, rec.Code)
	settings := service.Settings{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settings))
	assert.Equal(t, uint64(9), settings.DefaultFeeRate)
	assert.Equal(t, uint64(9), s.svc.CurrentSettings().DefaultFeeRate)

	zero := uint64(0)
	rec = s.do(t, http.MethodPut, "/v1/settings", &controllers.UpdateSettingsRequestBody{DefaultFeeRate: &zero})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uint64(9), s.svc.CurrentSettings().DefaultFeeRate)
}

func TestWalletRoutesRequireAdminToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/wallet/lock", nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/v1/wallet/lock", nil, echo.HeaderAuthorization, "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, s.gw.Calls("Lock"))

	rec = s.do(t, http.MethodPost, "/v1/wallet/lock", nil, echo.HeaderAuthorization, "Bearer "+testAdminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.gw.Calls("Lock"))
}

func TestWalletInit(t *testing.T) {
	s := newTestServer(t)
	auth := []string{echo.HeaderAuthorization, "Bearer " + testAdminToken}

	rec := s.do(t, http.MethodPost, "/v1/wallet/init", &controllers.WalletPasswordRequestBody{Password: "weak"}, auth...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.gw.Calls("Init"))

	rec = s.do(t, http.MethodPost, "/v1/wallet/init", &controllers.WalletPasswordRequestBody{Password: "Tr0ub4dor&3-wallet-passphrase"}, auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	result := service.InitResult{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, nodegwtest.DefaultMnemonic, result.Mnemonic)
	assert.False(t, result.KeyringStored)
}

func TestWalletBackupRejectsTraversal(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/wallet/backup", &controllers.BackupRequestBody{
		Name:     "../../etc/passwd",
		Password: "Tr0ub4dor&3-wallet-passphrase",
	}, echo.HeaderAuthorization, "Bearer "+testAdminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.gw.Calls("Backup"))
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/events/stream"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	msg := controllers.EventWrapper{}
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "keepalive", msg.Type)

	s.svc.RequestShutdown("SIGTERM")
	msg = controllers.EventWrapper{}
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, common.EventShutdownRequested, msg.Event.Type)
	assert.Equal(t, "SIGTERM", msg.Event.Message)
}

func TestEventStreamRequiresTokenWithAppLogin(t *testing.T) {
	s := newTestServer(t)
	enabled := true
	_, err := s.svc.UpdateSettings(context.Background(), &service.SettingsUpdate{AskAuthForAppLogin: &enabled, Password: testNativePassword})
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/v1/events/stream", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
