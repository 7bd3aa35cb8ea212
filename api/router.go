package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/api/rest"
	"github.com/sarahckohl/mousechase/api/sse"
	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/config"
	mw "github.com/sarahckohl/mousechase/middleware"
	"github.com/sarahckohl/mousechase/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Room   rest.Room
	Events rest.EventLog // nil without a database
	Cache  cache.Cache
	PubSub cache.PubSub
	Sched  *scheduler.Scheduler
	Server config.ServerConfig
	Logger *zap.Logger
}

// NewRouter wires middleware and routes. Background work started for the
// router stops when ctx is done.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(d.Logger), mw.Recovery(d.Logger))
	if d.Server.RateLimitRPS > 0 {
		r.Use(mw.NewRateLimiter(ctx, rate.Limit(d.Server.RateLimitRPS), d.Server.RateLimitBurst).Middleware())
	}

	clockH := rest.NewClockHandler(d.Room, d.Logger)
	refugeH := rest.NewRefugeHandler(d.Room, d.Logger)
	agentH := rest.NewAgentHandler(d.Room, d.Events, d.Logger)
	authH := rest.NewAuthHandler(d.Cache, d.Server, d.Logger)
	adminH := rest.NewAdminHandler(d.Room, d.Sched, d.Logger)
	sseH := sse.NewHandler(d.PubSub, d.Cache, d.Server.TokenSecret, d.Logger)

	r.GET("/health", adminH.Health)
	r.GET("/sse", sseH.ServeSSE)

	api := r.Group("/api")
	{
		api.POST("/auth/token", authH.Token)
		api.GET("/clock", clockH.Now)
		api.GET("/clock/range", clockH.Range)
		api.GET("/refuges", refugeH.List)
		api.GET("/agents", agentH.List)
		api.GET("/agents/:id", agentH.Get)
		api.GET("/agents/:id/events", agentH.Events)

		admin := api.Group("")
		admin.Use(rest.AdminAuth(d.Server, d.Cache)...)
		admin.POST("/auth/logout", authH.Logout)
		admin.POST("/clock/fast-forward", clockH.FastForward)
		admin.POST("/refuges", refugeH.Add)
		admin.DELETE("/refuges/:id", refugeH.Remove)
		admin.POST("/agents", agentH.Spawn)
		admin.DELETE("/agents/:id", agentH.Remove)
		admin.POST("/agents/:id/pickup", agentH.PickUp)
		admin.GET("/admin/metrics", adminH.Metrics)
		admin.POST("/admin/scheduler/:name/run", adminH.RunTask)
	}
	return r
}
