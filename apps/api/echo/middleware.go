package echoapi

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/trezcool/pathways/core/user"
)

// roleMiddleware lets through the users that pass allowed.
func roleMiddleware(svc user.ServiceInterface, allowed func(usr *user.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive || !allowed(&usr) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// staffMiddleware requires any known role.
func staffMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return roleMiddleware(svc, func(usr *user.User) bool { return user.MaxRolePriority(usr.Roles) > 0 })
}

// editorMiddleware requires an advisor or admin role.
func editorMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return roleMiddleware(svc, (*user.User).CanEdit)
}

func adminMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return roleMiddleware(svc, (*user.User).IsAdmin)
}

const visitorTTL = 10 * time.Minute

// ipRateLimiter keeps one token bucket per client IP. Idle visitors expire after visitorTTL.
type ipRateLimiter struct {
	visitors *ttlcache.Cache[string, *rate.Limiter]
}

func newIPRateLimiter(limit float64, burst int) *ipRateLimiter {
	loader := ttlcache.LoaderFunc[string, *rate.Limiter](
		func(c *ttlcache.Cache[string, *rate.Limiter], ip string) *ttlcache.Item[string, *rate.Limiter] {
			return c.Set(ip, rate.NewLimiter(rate.Limit(limit), burst), ttlcache.DefaultTTL)
		},
	)
	visitors := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](visitorTTL),
		ttlcache.WithLoader[string, *rate.Limiter](
			ttlcache.NewSuppressedLoader[string, *rate.Limiter](loader, new(singleflight.Group)),
		),
	)
	return &ipRateLimiter{visitors: visitors}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	item := rl.visitors.Get(ip)
	if item == nil {
		return true
	}
	return item.Value().Allow()
}

// start evicts idle visitors until stop is called.
func (rl *ipRateLimiter) start() { rl.visitors.Start() }
func (rl *ipRateLimiter) stop()  { rl.visitors.Stop() }

func (rl *ipRateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !rl.allow(ctx.RealIP()) {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
