package router

import (
	"github.com/blues/cts/internal/config"
	"github.com/blues/cts/internal/handler"
	"github.com/blues/cts/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, crowdsaleLogic *logic.CrowdsaleLogic, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdsale-token-service",
		})
	})

	paymentHandler := handler.NewPaymentHandler(crowdsaleLogic)
	adminHandler := handler.NewAdminHandler(crowdsaleLogic)
	tokenHandler := handler.NewTokenHandler(crowdsaleLogic)
	queryHandler := handler.NewQueryHandler(crowdsaleLogic, db)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 支付相关路由
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.POST("/external", paymentHandler.CreateExternalPayment)
			payments.GET("/external", paymentHandler.GetExternalPayments)
		}

		// 查询相关路由
		crowdsale := v1.Group("/crowdsale")
		{
			crowdsale.GET("/status", queryHandler.GetStatus)
			crowdsale.GET("/escrow", queryHandler.GetEscrow)
			crowdsale.GET("/tiers", queryHandler.GetTiers)
		}
		v1.GET("/participants/:address", queryHandler.GetParticipant)
		v1.GET("/events", queryHandler.GetEvents)
		v1.GET("/operations", queryHandler.GetOperations)

		// 代币相关路由
		token := v1.Group("/token")
		{
			token.POST("/transfer", tokenHandler.Transfer)
			token.POST("/approve", tokenHandler.Approve)
			token.POST("/transfer-from", tokenHandler.TransferFrom)
			token.GET("/balance/:address", tokenHandler.GetBalance)
			token.GET("/allowance", tokenHandler.GetAllowance)
			token.GET("/locks", tokenHandler.GetLocks)
		}

		// 管理相关路由
		admin := v1.Group("/admin")
		admin.Use(adminKeyMiddleware(cfg.Server.AdminKey))
		{
			admin.POST("/start", adminHandler.StartCrowdsale)
			admin.POST("/pause", adminHandler.PauseCrowdsale)
			admin.POST("/unpause", adminHandler.UnpauseCrowdsale)
			admin.POST("/end", adminHandler.EndCrowdsale)
			admin.POST("/tiers", adminHandler.SetTier)
			admin.POST("/min-sale", adminHandler.SetMinSale)
			admin.POST("/unidentified-limit", adminHandler.SetUnidentifiedLimit)
			admin.POST("/suspend-policy", adminHandler.SetSuspendPolicy)
			admin.POST("/identify", adminHandler.IdentifyParticipant)
			admin.POST("/unidentify", adminHandler.UnidentifyParticipant)
			admin.POST("/ban", adminHandler.BanParticipant)
			admin.POST("/unban", adminHandler.UnbanParticipant)
			admin.POST("/refund", adminHandler.RefundParticipant)
			admin.POST("/refund-suspended", adminHandler.RefundSuspended)
			admin.POST("/refund-suspended-all", adminHandler.RefundSuspendedAll)
			admin.POST("/burn-leftover", adminHandler.BurnLeftover)
			admin.POST("/transfer-funds", adminHandler.TransferFunds)
			admin.POST("/snapshot", adminHandler.CreateSnapshot)
			admin.POST("/export-events", queryHandler.ExportEvents)
			admin.POST("/token/mint", tokenHandler.Mint)
			admin.POST("/token/airdrop", tokenHandler.Airdrop)
			admin.POST("/token/enable-transfers", tokenHandler.EnablePublicTransfers)
			admin.POST("/token/locks", tokenHandler.CreateLock)
			admin.POST("/token/locks/release", tokenHandler.ReleaseLock)
		}
	}

	return r
}

// adminKeyMiddleware 管理接口API Key校验，未配置时放行
func adminKeyMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey != "" && c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(401, gin.H{"error": "无效的管理密钥"})
			return
		}
		c.Next()
	}
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Admin-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
