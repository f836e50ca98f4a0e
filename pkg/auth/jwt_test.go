package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/strokeguard/strokeguard/pkg/auth"
)

func newHMACService(t *testing.T, expiration time.Duration) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "strokeguard-test",
		Expiration: expiration,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute)
	userID, tenantID := uuid.New(), uuid.New()

	token, err := svc.GenerateToken(userID, tenantID, []string{auth.RoleClinician})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, []string{auth.RoleClinician}, claims.Roles)
	assert.Equal(t, "strokeguard-test", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute)

	t.Run("expired", func(t *testing.T) {
		expired := newHMACService(t, -time.Minute)
		token, err := expired.GenerateToken(uuid.New(), uuid.New(), nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := auth.NewJWTService(auth.JWTConfig{Secret: "another-secret", Issuer: "strokeguard-test", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken(uuid.New(), uuid.New(), nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "elsewhere", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken(uuid.New(), uuid.New(), nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("missing tenant", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.New(), uuid.Nil, nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorContains(t, err, "no tenant")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestRSAModes(t *testing.T) {
	privPEM, pubPEM, err := auth.GenerateKeyPair()
	require.NoError(t, err)

	issuer, err := auth.NewJWTService(auth.JWTConfig{PrivateKeyPEM: string(privPEM), Issuer: "idp", Expiration: time.Minute})
	require.NoError(t, err)
	validator, err := auth.NewJWTService(auth.JWTConfig{PublicKeyPEM: string(pubPEM), Issuer: "idp"})
	require.NoError(t, err)

	assert.True(t, issuer.CanSign())
	assert.False(t, validator.CanSign())

	token, err := issuer.GenerateToken(uuid.New(), uuid.New(), []string{auth.RoleAuditor})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(auth.RoleAuditor))

	_, err = validator.GenerateToken(uuid.New(), uuid.New(), nil)
	assert.Error(t, err)

	t.Run("hmac token rejected by rsa validator", func(t *testing.T) {
		hmacToken, err := newHMACService(t, time.Minute).GenerateToken(uuid.New(), uuid.New(), nil)
		require.NoError(t, err)
		_, err = validator.ValidateToken(hmacToken)
		assert.Error(t, err)
	})
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{Issuer: "x"})
	assert.Error(t, err)

	_, err = auth.NewJWTService(auth.JWTConfig{PublicKeyPEM: "not pem"})
	assert.Error(t, err)
}

func TestClaims_HasAnyRole(t *testing.T) {
	c := auth.Claims{Roles: []string{auth.RoleAuditor}}
	assert.True(t, c.HasAnyRole(auth.RoleAdmin, auth.RoleAuditor))
	assert.False(t, c.HasAnyRole(auth.RoleClinician))
	assert.False(t, c.HasAnyRole())
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newHMACService(t, time.Minute)
	token, err := svc.GenerateToken(uuid.New(), uuid.New(), []string{auth.RoleClinician})
	require.NoError(t, err)

	interceptor := auth.UnaryAuthInterceptor(svc, "/grpc.health.v1.Health/Check")
	handler := func(ctx context.Context, _ any) (any, error) {
		claims, ok := auth.ClaimsFromContext(ctx)
		if !ok {
			return "anonymous", nil
		}
		return claims.Roles[0], nil
	}
	call := func(ctx context.Context, method string) (any, error) {
		return interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	}
	withAuth := func(v string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", v))
	}

	t.Run("valid bearer token", func(t *testing.T) {
		got, err := call(withAuth("Bearer "+token), "/strokeguard.risk.v1.RiskService/AssessPatient")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleClinician, got)
	})

	t.Run("skipped method", func(t *testing.T) {
		got, err := call(context.Background(), "/grpc.health.v1.Health/Check")
		require.NoError(t, err)
		assert.Equal(t, "anonymous", got)
	})

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "no metadata", ctx: context.Background()},
		{name: "no header", ctx: metadata.NewIncomingContext(context.Background(), metadata.MD{})},
		{name: "not bearer", ctx: withAuth(token)},
		{name: "bad token", ctx: withAuth("Bearer nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(tt.ctx, "/strokeguard.risk.v1.RiskService/AssessPatient")
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	_, err := auth.RequireAnyRole(context.Background(), auth.RoleAdmin)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := auth.ContextWithClaims(context.Background(), &auth.Claims{Roles: []string{auth.RoleAuditor}})
	_, err = auth.RequireAnyRole(ctx, auth.RoleClinician, auth.RoleAdmin)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	claims, err := auth.RequireAnyRole(ctx, auth.RoleAuditor)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleAuditor}, claims.Roles)
}
