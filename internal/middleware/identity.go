package middleware

// identity.go defines helper functions shared across middleware files. Currently
// it provides a userID extraction function that reads the user_id value JWTAuth
// stores in the Echo context. When no token is present or the value has an
// unexpected shape, "guest" is returned so rate-limit keys stay well formed.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the request context. Numeric JWT
// claims arrive as float64 after JSON decoding; integer and string values
// are passed through as-is.
func userID(c echo.Context) string {
    switch t := c.Get("user_id").(type) {
    case string:
        if t != "" {
            return t
        }
    case float64:
        return strconv.FormatUint(uint64(t), 10)
    case uint64:
        return strconv.FormatUint(t, 10)
    case int64:
        return strconv.FormatInt(t, 10)
    case int:
        return strconv.Itoa(t)
    }
    return "guest"
}
