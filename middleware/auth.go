package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/greenleaf-nursery/nursery-api/config"
)

// LocalIssuer is the issuer expected on tokens signed with JWT_SECRET.
const LocalIssuer = "nursery-api"

// ErrAuthNotConfigured rejects every token when neither Auth0 nor a shared
// secret is configured.
var ErrAuthNotConfigured = errors.New("admin authentication is not configured")

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
}

// Validate does nothing for this example, but we need
// it to satisfy validator.CustomClaims interface.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope checks whether our claims have a specific scope.
func (c CustomClaims) HasScope(expectedScope string) bool {
	for _, scope := range strings.Fields(c.Scope) {
		if scope == expectedScope {
			return true
		}
	}
	return false
}

// localClaims is the payload of a shared-secret admin token.
type localClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// NewTokenValidator picks the token check for cfg: Auth0 JWKS (RS256) when a
// domain is configured, otherwise HS256 with JWT_SECRET.
func NewTokenValidator(cfg *config.Config) (jwtmiddleware.ValidateToken, error) {
	switch {
	case cfg.UsesAuth0():
		return auth0Validator(cfg)
	case cfg.JWTSecret != "":
		return SharedSecretValidator(cfg.JWTSecret, cfg.Auth0Audience), nil
	default:
		log.Printf("Admin authentication is not configured; admin routes will reject every request")
		return func(context.Context, string) (interface{}, error) {
			return nil, ErrAuthNotConfigured
		}, nil
	}
}

func auth0Validator(cfg *config.Config) (jwtmiddleware.ValidateToken, error) {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}
	return jwtValidator.ValidateToken, nil
}

// SharedSecretValidator checks HS256 tokens issued by LocalIssuer. An empty
// audience skips the audience check. Valid tokens produce the same
// *validator.ValidatedClaims shape the Auth0 path does.
func SharedSecretValidator(secret, audience string) jwtmiddleware.ValidateToken {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(LocalIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Minute),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(opts...)

	return func(ctx context.Context, tokenString string) (interface{}, error) {
		claims := &localClaims{}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}); err != nil {
			return nil, fmt.Errorf("token is invalid: %w", err)
		}

		registered := validator.RegisteredClaims{
			Issuer:   claims.Issuer,
			Subject:  claims.Subject,
			Audience: claims.Audience,
			ID:       claims.ID,
		}
		if claims.ExpiresAt != nil {
			registered.Expiry = claims.ExpiresAt.Unix()
		}
		if claims.IssuedAt != nil {
			registered.IssuedAt = claims.IssuedAt.Unix()
		}
		if claims.NotBefore != nil {
			registered.NotBefore = claims.NotBefore.Unix()
		}

		return &validator.ValidatedClaims{
			RegisteredClaims: registered,
			CustomClaims:     &CustomClaims{Scope: claims.Scope},
		}, nil
	}
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(validateToken jwtmiddleware.ValidateToken) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Encountered error while validating JWT: %v", err)

		body := `{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			body = `{"success":false,"error":{"code":"UNAUTHORIZED","message":"Authorization token is required."}}`
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			log.Printf("Failed to write error response: %v", writeErr)
		}
	}

	middleware := jwtmiddleware.New(
		validateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			c.Request = r
			c.Set("user_id", token.RegisteredClaims.Subject)
			c.Set("validated_claims", token)

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// GetAccessToken returns the bearer token of the current request.
func GetAccessToken(c *gin.Context) (string, error) {
	token, err := jwtmiddleware.AuthHeaderTokenExtractor(c.Request)
	if err != nil {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: err.Error()}
	}
	if token == "" {
		return "", &AuthError{Code: "UNAUTHORIZED", Message: "Authorization token is required"}
	}
	return token, nil
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// RequireScope is a middleware that checks if the token has a specific scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not retrieve token claims",
				},
			})
			c.Abort()
			return
		}

		customClaims, ok := claims.CustomClaims.(*CustomClaims)
		if !ok || !customClaims.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
