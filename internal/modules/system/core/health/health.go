package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/cron"
	"github.com/tablecast/signage/internal/pkg/response"
	"gorm.io/gorm"
)

const checkTimeout = 3 * time.Second

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators probed by /health. Redis and Storage may be nil
// when they are not configured.
type Deps struct {
	DB      *gorm.DB
	Redis   Pinger
	Storage Pinger
}

type Report struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Redis    *bool  `json:"redis,omitempty"`
	Storage  *bool  `json:"storage,omitempty"`
}

// Check probes every configured dependency.
func Check(ctx context.Context, deps Deps) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	r := Report{Status: "ok", Database: database.Ping(deps.DB) == nil}
	healthy := r.Database
	probe := func(p Pinger) *bool {
		if p == nil {
			return nil
		}
		ok := p.Ping(ctx) == nil
		healthy = healthy && ok
		return &ok
	}
	r.Redis = probe(deps.Redis)
	r.Storage = probe(deps.Storage)
	if !healthy {
		r.Status = "degraded"
	}
	return r
}

// RegisterRoutes mounts the public probes on rg and the scheduler views on admin.
func RegisterRoutes(rg *gin.RouterGroup, admin *gin.RouterGroup, deps Deps, sched *cron.Scheduler) {
	rg.GET("/health", func(c *gin.Context) {
		r := Check(c.Request.Context(), deps)
		code := http.StatusOK
		if r.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, r)
	})
	rg.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if sched == nil || admin == nil {
		return
	}
	cronGroup := admin.Group("/cron")
	cronGroup.GET("", func(c *gin.Context) {
		response.OK(c, sched.List())
	})
	// A failed run still answers 200; the item carries status and message.
	cronGroup.POST("/run/:name", func(c *gin.Context) {
		name := c.Param("name")
		if _, ok := findJob(sched, name); !ok {
			response.Error(c, apperr.NotFound("job %s not found", name))
			return
		}
		_ = sched.Run(c.Request.Context(), name)
		item, _ := findJob(sched, name)
		response.OK(c, item)
	})
}

func findJob(sched *cron.Scheduler, name string) (cron.ListItem, bool) {
	for _, item := range sched.List() {
		if item.Name == name {
			return item, true
		}
	}
	return cron.ListItem{}, false
}
