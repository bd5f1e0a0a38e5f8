package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeDevice = "device"

var ErrInvalidToken = errors.New("token is invalid")

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// DeviceToken identifies one anonymous client and its local storage scope.
type DeviceToken struct {
	DeviceID  uuid.UUID
	Token     string
	ExpiresAt time.Time
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager инициализирует менеджер токенов устройств.
func NewTokenManager(secret string, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewDeviceToken выпускает токен для нового устройства.
func (m *TokenManager) NewDeviceToken() (DeviceToken, error) {
	return m.IssueDeviceToken(uuid.New())
}

// IssueDeviceToken выпускает токен для известного устройства.
func (m *TokenManager) IssueDeviceToken(deviceID uuid.UUID) (DeviceToken, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		TokenType: tokenTypeDevice,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   deviceID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return DeviceToken{}, err
	}

	return DeviceToken{DeviceID: deviceID, Token: signed, ExpiresAt: expiresAt}, nil
}

// ParseDeviceToken валидирует токен и возвращает идентификатор устройства.
func (m *TokenManager) ParseDeviceToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	if !token.Valid || claims.TokenType != tokenTypeDevice {
		return uuid.Nil, ErrInvalidToken
	}

	deviceID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return deviceID, nil
}
