package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/bitesized/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrDecodeFailure is returned for tokens whose payload cannot be read.
var ErrDecodeFailure = errors.New("token decode failed")

// segmentParser accepts padded and unpadded segments.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeIdentityFromToken reads the sub, role and name claims of a three-segment token and returns a session
// carrying token itself.
//
// The signature is never checked: the result is a convenience view of what the token claims and is not proof
// of identity. Absent or non-string claims are left empty, and an unknown role is treated as absent.
func DecodeIdentityFromToken(token string) (models.Session, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return models.Session{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrDecodeFailure, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	if claims == nil {
		return models.Session{}, fmt.Errorf("%w: payload is not an object", ErrDecodeFailure)
	}

	session := models.Session{Token: token}
	if sub, err := claims.GetSubject(); err == nil {
		session.UserID = sub
	}
	if name, ok := claims["name"].(string); ok {
		session.Name = name
	}
	if raw, ok := claims["role"].(string); ok {
		if role, ok := models.ParseRole(raw); ok {
			session.Role = role
		}
	}
	return session, nil
}
