package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeStation = "station"

	RoleAdmin = "admin"
)

var ErrTokenType = errors.New("invalid token type")

type Claims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	// station capability tokens only
	StationID string `json:"sid,omitempty"`
	EventID   string `json:"eid,omitempty"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	stationTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, stationTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		stationTTL: stationTTL,
		now:        time.Now,
	}
}

func (m *Manager) GenerateAccessToken(userID, email, role string) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: TypeAccess,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			Subject:   userID,
		},
	}
	return m.sign(claims)
}

// GenerateStationToken issues the capability token a print kiosk presents.
// It names the station and its event; everything else is looked up per
// request so revocation takes effect immediately.
func (m *Manager) GenerateStationToken(stationID, eventID string) (raw string, expiresAt time.Time, err error) {
	now := m.now().UTC()
	expiresAt = now.Add(m.stationTTL)

	claims := Claims{
		UserID:    stationID,
		TokenType: TypeStation,
		StationID: stationID,
		EventID:   eventID,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   stationID,
		},
	}
	raw, err = m.sign(claims)
	return
}

func (m *Manager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, TypeAccess)
}

func (m *Manager) VerifyStationToken(tokenStr string) (*Claims, error) {
	claims, err := m.verify(tokenStr, TypeStation)
	if err != nil {
		return nil, err
	}
	if claims.StationID == "" || claims.EventID == "" {
		return nil, errors.New("incomplete station token")
	}
	return claims, nil
}

func (m *Manager) verify(tokenStr, typ string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typ {
		return nil, ErrTokenType
	}
	return claims, nil
}
