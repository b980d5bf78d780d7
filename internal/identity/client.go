package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/pkg/types"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrNoIdentity   = errors.New("identity response has no user id")
)

// Client asks the auth collaborator who the bearer token belongs to.
type Client struct {
	base  string
	token string
	http  *http.Client
	log   *zap.Logger
	now   func() time.Time
}

func NewClient(baseURL, token string, hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  hc,
		log:   logger,
		now:   time.Now,
	}
}

type meResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}

// Resolve calls GET /me.
func (c *Client) Resolve(ctx context.Context) (types.Identity, error) {
	if err := c.checkExpiry(); err != nil {
		return types.Identity{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/me", nil)
	if err != nil {
		return types.Identity{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Identity{}, fmt.Errorf("get /me: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return types.Identity{}, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return types.Identity{}, fmt.Errorf("get /me: unexpected status %d", resp.StatusCode)
	}

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return types.Identity{}, fmt.Errorf("decode /me: %w", err)
	}
	if me.UserID == "" {
		return types.Identity{}, ErrNoIdentity
	}
	name := me.Username
	if name == "" {
		name = me.Name
	}
	c.log.Info("identity resolved", zap.String("user_id", me.UserID))
	return types.Identity{UserID: me.UserID, Username: name}, nil
}

// checkExpiry fails fast on a JWT whose exp is already past. Opaque tokens
// and tokens without exp are left to the server.
func (c *Client) checkExpiry() error {
	if c.token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		c.log.Debug("token is not a parseable jwt", zap.Error(err))
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !exp.Time.After(c.now()) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, exp.Time.Format(time.RFC3339))
	}
	return nil
}
