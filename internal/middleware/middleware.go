package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/eventhub-app/server/internal/helpers"
	"github.com/eventhub-app/server/internal/models"
	"github.com/eventhub-app/server/internal/services"
)

// userKey is the context key the auth middleware stores the principal under.
const userKey = "user"

// CurrentUser returns the authenticated principal attached by Auth or
// OptionalAuth, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", latency,
			"client_ip", c.ClientIP(),
		)
	}
}

// MaxBodyBytes caps request body size. Oversized bodies surface as read
// errors in the handlers' ShouldBindJSON calls.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RateLimit enforces a per-client-IP token bucket: max requests per window.
func RateLimit(window time.Duration, max int) gin.HandlerFunc {
	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	go func() {
		for range time.Tick(window) {
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > 2*window {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	limit := rate.Every(window / time.Duration(max))
	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limit, max)}
			visitors[ip] = v
		}
		v.lastSeen = time.Now()
		allowed := v.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Troppe richieste, riprova più tardi",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Auth verifies the Authorization: Bearer <token> header, loads the
// principal and attaches it (password blanked) to the request context.
func Auth(userService *services.UserService, jwtSecret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, errMsg := resolvePrincipal(c, userService, jwtSecret)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": errMsg,
			})
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth performs the same resolution but never rejects: on any
// failure the request simply proceeds unauthenticated.
func OptionalAuth(userService *services.UserService, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, _ := resolvePrincipal(c, userService, jwtSecret); user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// resolvePrincipal returns the sanitized principal, or nil plus the
// user-facing rejection message.
func resolvePrincipal(c *gin.Context, userService *services.UserService, jwtSecret string) (*models.User, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "Token non fornito o formato non valido"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, "Token non fornito o formato non valido"
	}

	claims, err := helpers.ValidateToken(jwtSecret, parts[1])
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "Token scaduto"
		}
		return nil, "Token non valido"
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, "Token non valido"
	}

	user, err := userService.GetUserByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		return nil, "Utente non trovato"
	}
	if !user.IsActive {
		return nil, "Account disabilitato"
	}

	return user.Sanitized(), ""
}

// RequireRole authorizes only principals holding the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Autenticazione richiesta",
			})
			c.Abort()
			return
		}
		if user.Role != role {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Accesso negato. Richiesto ruolo: " + role,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyRole authorizes principals holding any of the given roles.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Autenticazione richiesta",
			})
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Accesso negato. Ruoli permessi: " + strings.Join(roles, ", "),
		})
		c.Abort()
	}
}
