package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/identity"
	"storefront/internal/logging"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // identity.Role
)

// bearerAuth用のJWT検証ミドルウェア。
// トークンは認証基盤が発行する（sub=ユーザーID, role=USER/ADMIN）。ここでは検証だけ。
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return unauthorized(c)
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return unauthorized(c)
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return unauthorized(c)
			}

			//JWTをパースして検証する（expがあれば期限も見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return unauthorized(c)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}

			userID, err := parseUserID(claims["sub"])
			if err != nil || userID <= 0 {
				return unauthorized(c)
			}

			//roleを取り出す（USER/ADMIN）
			role, err := parseRole(claims["role"])
			if err != nil {
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)

			//usecaseへはcontext経由で渡す
			ctx := identity.WithIdentity(c.Request().Context(), identity.Identity{UserID: userID, Role: role})
			ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With(zap.Int64("user_id", userID)))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "Unauthorized"})
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseRole(v interface{}) (identity.Role, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid role")
	}
	switch r := identity.Role(strings.ToUpper(s)); r {
	case identity.RoleUser, identity.RoleAdmin:
		return r, nil
	default:
		return "", errors.New("invalid role")
	}
}
