// Package token parses the two identity-token variants the care platform
// issues: signed production JWTs and unsigned development placeholders.
//
// The client never holds the signing secret, so production tokens are
// decoded without signature verification; expiry is still enforced locally.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/pkg/util"
)

// DevPrefix marks locally issued development tokens. A token carrying this
// prefix must never be accepted by a production deployment.
const DevPrefix = "temp_jwt_token_"

// Variant distinguishes the token formats.
type Variant string

const (
	VariantProduction  Variant = "production"
	VariantDevelopment Variant = "development"
)

// Identity is the canonical payload extracted from any token variant.
// Development tokens carry only ID and Role.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsDev reports whether raw is a development-variant token.
func IsDev(raw string) bool {
	return strings.HasPrefix(raw, DevPrefix)
}

// Parse decodes and validates a token of either variant. Expired or
// malformed tokens return an error; callers treat them as absent.
func Parse(raw string, now time.Time) (*Identity, Variant, error) {
	if raw == "" {
		return nil, "", util.NewCredentialMalformed(errors.New("empty token"))
	}
	if IsDev(raw) {
		id, err := parseDev(raw)
		if err != nil {
			return nil, "", err
		}
		return id, VariantDevelopment, nil
	}
	id, err := parseProduction(raw, now)
	if err != nil {
		return nil, "", err
	}
	return id, VariantProduction, nil
}

// NewDevToken issues a development placeholder token for the given user.
// Format: temp_jwt_token_<role>_<unix-ms>_<id>.
func NewDevToken(role domain.Role, userID string, now time.Time) string {
	return fmt.Sprintf("%s%s_%d_%s", DevPrefix, role, now.UnixMilli(), userID)
}

func parseDev(raw string) (*Identity, error) {
	parts := strings.SplitN(strings.TrimPrefix(raw, DevPrefix), "_", 3)
	if len(parts) != 3 {
		return nil, util.NewCredentialMalformed(fmt.Errorf("development token has %d segments, want 3", len(parts)))
	}
	role, err := domain.ParseRole(parts[0])
	if err != nil {
		return nil, err
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, util.NewCredentialMalformed(fmt.Errorf("development token timestamp: %w", err))
	}
	if parts[2] == "" {
		return nil, util.NewCredentialMalformed(errors.New("development token missing subject id"))
	}
	return &Identity{
		ID:       parts[2],
		Role:     role,
		IssuedAt: time.UnixMilli(ms),
	}, nil
}

func parseProduction(raw string, now time.Time) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, util.NewCredentialMalformed(err)
	}

	identity := &Identity{
		ID:    firstString(claims, "sub", "id"),
		Name:  firstString(claims, "name"),
		Email: firstString(claims, "email"),
	}

	if exp, err := claims.GetExpirationTime(); err != nil {
		return nil, util.NewCredentialMalformed(err)
	} else if exp != nil {
		if !exp.Time.After(now) {
			return nil, util.NewCredentialExpired()
		}
		identity.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}

	role, err := domain.ParseRole(firstString(claims, "role"))
	if err != nil {
		return nil, err
	}
	identity.Role = role

	if identity.ID == "" {
		return nil, util.NewCredentialMalformed(errors.New("token payload missing subject"))
	}
	return identity, nil
}

// firstString returns the first claim present under any of the keys,
// normalizing numeric subjects to their decimal form.
func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}
