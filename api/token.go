package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenExpiry extracts the expiry claim from an access token without
// verifying its signature. The client holds no signing key; the backend is the
// sole authority on validity, so this is bookkeeping only (deciding whether a
// silent refresh is likely, surfacing expiry in the CLI).
func TokenExpiry(raw string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "[TokenExpiry] failed to parse token")
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, errors.New("[TokenExpiry] token has no expiry claim")
	}
	return expiry.Time, nil
}
