package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errNoToken = errors.New("no bearer token")

type tokenClaims struct {
	userID int64
	role   string
	tv     int
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tc, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			setClaims(c, tc)
			return next(c)
		}
	}
}

// OptionalAuthJWT はヘッダが無ければそのまま通す（ゲスト扱い）。
// ヘッダがあって壊れている場合は401。
func OptionalAuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tc, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if errors.Is(err, errNoToken) {
				return next(c)
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			setClaims(c, tc)
			return next(c)
		}
	}
}

func setClaims(c echo.Context, tc tokenClaims) {
	c.Set(CtxUserIDKey, tc.userID)
	c.Set(CtxUserRoleKey, tc.role)
	c.Set(CtxTokenVersionKey, tc.tv)
}

func parseBearer(authz string, secret string) (tokenClaims, error) {
	if authz == "" {
		return tokenClaims{}, errNoToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return tokenClaims{}, errors.New("malformed authorization header")
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return tokenClaims{}, errors.New("empty token")
	}

	//HS256以外は受け付けない
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return tokenClaims{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return tokenClaims{}, errors.New("invalid claims")
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return tokenClaims{}, errors.New("invalid sub")
	}

	//USER/ADMIN
	role, err := parseString(claims["role"])
	if err != nil || role == "" {
		return tokenClaims{}, errors.New("invalid role")
	}

	tv, err := parseInt(claims["tv"])
	if err != nil || tv < 0 {
		return tokenClaims{}, errors.New("invalid tv")
	}

	return tokenClaims{userID: userID, role: role, tv: tv}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
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

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
