// Package session holds the connection credentials produced by the external
// auth flow.
package session

import (
	"fmt"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ConnectionState is what the sync layer needs to open a connection.
// IsOnline mirrors the event channel's status, not network reachability.
type ConnectionState struct {
	AuthToken string
	Roles     []string
	IsOnline  bool
}

// Ready reports whether the credentials allow opening a connection.
func (c ConnectionState) Ready() bool {
	return strings.TrimSpace(c.AuthToken) != ""
}

// FromToken builds a connection state for token. Roles are read from the
// token's "roles" claim without verifying the signature; the server verifies
// the token on connect.
func FromToken(token string, online bool) (ConnectionState, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	state := ConnectionState{AuthToken: token, IsOnline: online}
	if token == "" {
		return state, nil
	}
	roles, err := parseRoles(token)
	if err != nil {
		return state, fmt.Errorf("parse token: %w", err)
	}
	state.Roles = roles
	return state, nil
}

func parseRoles(token string) ([]string, error) {
	parser := gojwt.NewParser()
	claims := gojwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	switch v := claims["roles"].(type) {
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		return roles, nil
	case string:
		return strings.Fields(strings.ReplaceAll(v, ",", " ")), nil
	default:
		return nil, nil
	}
}
