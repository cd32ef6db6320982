package transport

import (
	"time"

	"github.com/getAlby/rgbhub.go/controllers"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/lib/tokens"
	"github.com/labstack/echo/v4"
	"github.com/ziflex/lecho/v3"
)

const mediaCacheTTL = time.Hour

// RegisterEndpoints mounts the v1 api. Secured routes require an app session
// token only while ask_auth_for_app_login is on; the wallet lifecycle routes
// are guarded by the admin token instead.
func RegisterEndpoints(svc *service.RgbHubService, e *echo.Echo, logger *lecho.Logger) error {
	c := svc.Config
	logMw := CreateLoggingMiddleware(logger)
	// strict rate limit for requests moving funds
	strictRateLimitMiddleware := CreateRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)
	skipAuth := func(echo.Context) bool {
		return !svc.CurrentSettings().AskAuthForAppLogin
	}
	secured := e.Group("/v1", tokens.Middleware(c.JWTSecret, skipAuth), logMw)
	securedWithStrictRateLimit := e.Group("/v1", tokens.Middleware(c.JWTSecret, skipAuth), strictRateLimitMiddleware, logMw)
	admin := e.Group("/v1/wallet", tokens.AdminTokenMiddleware(c.AdminToken), strictRateLimitMiddleware, logMw)

	mediaCache, err := CreateCacheClient(mediaCacheTTL)
	if err != nil {
		return err
	}

	e.GET("/v1/health", controllers.NewHealthController(svc).Check)
	e.POST("/v1/auth", controllers.NewAuthController(svc).Auth, strictRateLimitMiddleware, logMw)
	// the token travels as a query parameter here
	e.GET("/v1/events/stream", controllers.NewEventStreamController(svc).StreamEvents, logMw)

	nodeCtrl := controllers.NewNodeController(svc)
	secured.GET("/node", nodeCtrl.Node)
	secured.POST("/refresh", nodeCtrl.Refresh)

	assetsCtrl := controllers.NewAssetsController(svc)
	secured.GET("/assets", assetsCtrl.ListAssets)
	secured.GET("/assets/:asset_id", assetsCtrl.GetAsset)
	secured.GET("/assets/:asset_id/media", assetsCtrl.GetAssetMedia, mediaCache.Middleware())
	secured.GET("/overview", assetsCtrl.Overview)
	securedWithStrictRateLimit.POST("/assets/rgb20", assetsCtrl.IssueRGB20)
	securedWithStrictRateLimit.POST("/assets/rgb25", assetsCtrl.IssueRGB25)

	channelsCtrl := controllers.NewChannelsController(svc)
	secured.GET("/channels", channelsCtrl.ListChannels)
	securedWithStrictRateLimit.POST("/channels", channelsCtrl.OpenChannel)
	securedWithStrictRateLimit.POST("/channels/:channel_id/close", channelsCtrl.CloseChannel)

	transfersCtrl := controllers.NewTransfersController(svc)
	securedWithStrictRateLimit.POST("/transfers/send", transfersCtrl.Send)
	secured.POST("/transfers/receive", transfersCtrl.Receive)
	secured.POST("/transfers/:idx/fail", transfersCtrl.FailTransfer)

	paymentsCtrl := controllers.NewPaymentsController(svc)
	securedWithStrictRateLimit.POST("/payments/send", paymentsCtrl.PayInvoice)
	secured.POST("/payments/invoice", paymentsCtrl.AddInvoice)
	secured.GET("/invoices/qr", controllers.NewQRController().QR)
	secured.GET("/fees/:speed", controllers.NewFeesController(svc).EstimateFee)

	settingsCtrl := controllers.NewSettingsController(svc)
	secured.GET("/settings", settingsCtrl.GetSettings)
	secured.PUT("/settings", settingsCtrl.UpdateSettings)

	walletCtrl := controllers.NewWalletController(svc)
	admin.POST("/init", walletCtrl.Init)
	admin.POST("/unlock", walletCtrl.Unlock)
	admin.POST("/lock", walletCtrl.Lock)
	admin.POST("/backup", walletCtrl.Backup)
	admin.POST("/restore", walletCtrl.Restore)
	return nil
}
