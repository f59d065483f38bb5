package common

import (
	"strings"
	"time"
)

const (
	JWTKey       = "mast-signing-key"
	JWTExpire    = 24 * time.Hour
	JWTNewExpire = time.Hour // renew tokens expiring within this window
)

func GetAuthorizationToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", NewErrNo(TokenInvalid)
	}
	return parts[1], nil
}
