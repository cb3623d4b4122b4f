package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolSnapshot is the connection pool state reported by the health endpoint.
type PoolSnapshot struct {
	InUse        int32  `json:"in_use"`
	Idle         int32  `json:"idle"`
	Max          int32  `json:"max"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
}

func snapshotPool(pool *pgxpool.Pool) PoolSnapshot {
	stat := pool.Stat()
	return PoolSnapshot{
		InUse:        stat.AcquiredConns(),
		Idle:         stat.IdleConns(),
		Max:          stat.MaxConns(),
		WaitCount:    stat.EmptyAcquireCount(),
		WaitDuration: stat.AcquireDuration().String(),
	}
}

// HealthHandler pings the database and reports pool state. A failed ping
// answers 503 so load balancers stop routing to this instance.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status": "down",
				"error":  err.Error(),
				"pool":   snapshotPool(pool),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status": "up",
			"pool":   snapshotPool(pool),
		})
	}
}
