package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_MintAndParse(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", 15*time.Minute, 24*time.Hour).WithClock(func() time.Time { return now })
	id := Identity{UserID: "u-1", Email: "a@example.com", Role: "admin"}

	pair, err := issuer.Mint(id)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if pair.ExpiresAt != now.Add(15*time.Minute).Unix() {
		t.Errorf("ExpiresAt = %d", pair.ExpiresAt)
	}

	claims, err := issuer.Parse(pair.AccessToken, KindAccess)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Identity() != id {
		t.Errorf("Identity() = %+v, want %+v", claims.Identity(), id)
	}

	if _, err := issuer.Parse(pair.RefreshToken, KindRefresh); err != nil {
		t.Errorf("Parse(refresh) error = %v", err)
	}
}

func TestIssuer_ParseRejects(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	clock := now
	issuer := NewIssuer("test-secret", time.Minute, time.Hour).WithClock(func() time.Time { return clock })
	pair, err := issuer.Mint(Identity{UserID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("wrong kind", func(t *testing.T) {
		if _, err := issuer.Parse(pair.RefreshToken, KindAccess); !errors.Is(err, ErrWrongTokenKind) {
			t.Errorf("Parse() error = %v, want ErrWrongTokenKind", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("other-secret", time.Minute, time.Hour).WithClock(func() time.Time { return now })
		if _, err := other.Parse(pair.AccessToken, KindAccess); !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			t.Errorf("Parse() error = %v, want signature error", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.Parse("not-a-token", KindAccess); err == nil {
			t.Error("Parse() accepted garbage")
		}
	})

	t.Run("expired", func(t *testing.T) {
		clock = now.Add(2 * time.Minute)
		if _, err := issuer.Parse(pair.AccessToken, KindAccess); !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("Parse() error = %v, want ErrTokenExpired", err)
		}
	})
}
