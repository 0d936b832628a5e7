package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

var alice = &models.User{ID: "u-1", UserName: "alice", Email: "a@x.io", FullName: "Alice A"}

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestIssueAndVerify_Access(t *testing.T) {
	t.Parallel()

	i := newIssuer()
	tok, err := i.Issue(alice, TokenAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := i.Verify(tok, TokenAccess)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "u-1" || claims.Email != "a@x.io" || claims.UserName != "alice" || claims.FullName != "Alice A" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestIssue_RefreshCarriesNoProfile(t *testing.T) {
	t.Parallel()

	i := newIssuer()
	tok, err := i.Issue(alice, TokenRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	claims, err := i.Verify(tok, TokenRefresh)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Email != "" || claims.UserName != "" {
		t.Fatalf("refresh token must not carry profile claims: %+v", claims)
	}
}

func TestIssuePair_TokensAreUnique(t *testing.T) {
	t.Parallel()

	i := newIssuer()
	p1, err := i.IssuePair(alice)
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	p2, err := i.IssuePair(alice)
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if p1.RefreshToken == p2.RefreshToken || p1.AccessToken == p2.AccessToken {
		t.Fatalf("tokens issued back to back must differ")
	}
}

func TestVerify_KindsUseDistinctSecrets(t *testing.T) {
	t.Parallel()

	i := newIssuer()
	tok, _ := i.Issue(alice, TokenRefresh)
	if _, err := i.Verify(tok, TokenAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	i := newIssuer()
	i.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := i.Issue(alice, TokenAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	i.now = time.Now
	if _, err := i.Verify(tok, TokenAccess); err != common.ErrTokenExpired {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _ := newIssuer().Issue(alice, TokenAccess)
	other := NewTokenIssuer("other", "other", time.Hour, time.Hour)
	if _, err := other.Verify(tok, TokenAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	if _, err := newIssuer().Verify("not.a.jwt", TokenAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := newIssuer().Verify(tok, TokenAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := newIssuer().Verify(none, TokenAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	t.Parallel()

	tok, _ := newIssuer().Issue(&models.User{}, TokenAccess)
	if _, err := newIssuer().Verify(tok, TokenAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenKind_String(t *testing.T) {
	if TokenAccess.String() != "access" || TokenRefresh.String() != "refresh" {
		t.Fatalf("unexpected names")
	}
}
