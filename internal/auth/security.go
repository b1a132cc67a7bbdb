package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	limiterpkg "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"hostelnotify/internal/catalog"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New()

	Validate.RegisterValidation("eventtype", validateEventType)
	Validate.RegisterValidation("priority", validatePriority)
}

func validateEventType(fl validator.FieldLevel) bool {
	return catalog.ParseEventType(fl.Field().String()).Known()
}

func validatePriority(fl validator.FieldLevel) bool {
	p := catalog.Priority(fl.Field().String())
	return catalog.ParsePriority(string(p)) == p
}

// NewRateLimiter allows limit requests per minute per key.
func NewRateLimiter(limit int64) *limiterpkg.Limiter {
	rate := limiterpkg.Rate{
		Period: time.Minute,
		Limit:  limit,
	}
	return limiterpkg.New(memory.NewStore(), rate)
}

func RateLimitMiddleware(limiter *limiterpkg.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			context, err := limiter.Get(c.Request().Context(), ip)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "rate limit error",
				})
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))

			if context.Reached {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}

			return next(c)
		}
	}
}
