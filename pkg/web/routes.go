package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// WarnReader reads warn counters.
type WarnReader interface {
	Current(ctx context.Context, guildID, userID string) (uint64, error)
}

// ConfigReader reads guild configurations.
type ConfigReader interface {
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
}

// BotStatus is implemented by discord.ExtendedClient.
type BotStatus interface {
	IsReady() bool
	GuildCount() int
}

// API holds what the routes report on. Nil members are reported as
// unavailable.
type API struct {
	Warns   WarnReader
	Configs ConfigReader
	Bot     BotStatus
	// StoreStatus returns a human readable status and whether the store is
	// online.
	StoreStatus func() (string, bool)
	// Token protects /api/guilds when set.
	Token     string
	StartTime time.Time
}

// SetupAPIRoutes sets up the API and metrics routes
func SetupAPIRoutes(s *Server, api API) {
	group := s.Group("/api")
	{
		group.GET("/status", api.statusHandler)
		group.GET("/health", healthHandler)

		guilds := group.Group("/guilds", api.tokenMiddleware())
		guilds.GET("/:guildId/warns/:userId", api.warnsHandler)
	}

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// tokenMiddleware requires "Authorization: Bearer <token>" when a token is
// configured
func (api API) tokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if api.Token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(api.Token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Token inválido o ausente.",
			})
			return
		}
		c.Next()
	}
}

// statusHandler returns the bot and store status
func (api API) statusHandler(c *gin.Context) {
	storeStatus, storeOnline := "Desconocido", false
	if api.StoreStatus != nil {
		storeStatus, storeOnline = api.StoreStatus()
	}

	botOnline, guilds := false, 0
	if api.Bot != nil {
		botOnline = api.Bot.IsReady()
		guilds = api.Bot.GuildCount()
	}

	uptime := ""
	if !api.StartTime.IsZero() {
		uptime = time.Since(api.StartTime).Round(time.Second).String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   storeStatus,
			"isOnline": storeOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
			"guilds":   guilds,
		},
		"uptime": uptime,
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyGuard Go is running",
	})
}

// warnsHandler returns the warn count of a user and the guild threshold
func (api API) warnsHandler(c *gin.Context) {
	guildID, userID := c.Param("guildId"), c.Param("userId")
	if api.Warns == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Service Unavailable",
			"message": "El registro de advertencias no está disponible.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	count, err := api.Warns.Current(ctx, guildID, userID)
	if err != nil {
		logger.Error("Error leyendo advertencias vía API: "+err.Error(), "WebServer")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "No se pudieron leer las advertencias.",
		})
		return
	}

	threshold := uint64(models.DefaultWarnThreshold)
	if api.Configs != nil {
		if cfg, err := api.Configs.GetGuildPolicyConfig(ctx, guildID); err == nil {
			threshold = cfg.Threshold()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"guildId":   guildID,
		"userId":    userID,
		"warnCount": count,
		"threshold": threshold,
	})
}
