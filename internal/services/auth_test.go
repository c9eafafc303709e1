package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/talentscoutke/talentscout-backend/internal/requestdata"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSetContextFromToken(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), testSecret)
	userID := uuid.New()
	signed := mintToken(t, testSecret, jwt.MapClaims{
		"sub":  userID.String(),
		"role": "player",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	ctx, err := svc.SetContextFromToken(context.Background(), signed)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		t.Fatalf("request data missing from context")
	}
	if rd.UserID != userID {
		t.Fatalf("user id = %s, want %s", rd.UserID, userID)
	}
	if rd.Role != types.RolePlayer {
		t.Fatalf("role = %s, want player", rd.Role)
	}
}

func TestSetContextFromTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), testSecret)
	signed := mintToken(t, "other-secret", jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": "player",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	if _, err := svc.SetContextFromToken(context.Background(), signed); err == nil {
		t.Fatalf("token signed with the wrong secret must be rejected")
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), testSecret)
	signed := mintToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": "player",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := svc.SetContextFromToken(context.Background(), signed); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestSetContextFromTokenRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), testSecret)
	signed := mintToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	if _, err := svc.SetContextFromToken(context.Background(), signed); err == nil {
		t.Fatalf("unknown role must be rejected")
	}
}

func TestSetContextFromTokenRejectsNonUUIDSubject(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), testSecret)
	signed := mintToken(t, testSecret, jwt.MapClaims{
		"sub":  "not-a-uuid",
		"role": "scout",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	if _, err := svc.SetContextFromToken(context.Background(), signed); err == nil {
		t.Fatalf("non-uuid subject must be rejected")
	}
}
