package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/pkg/postgres"
)

func TestConfig_PoolConfig(t *testing.T) {
	tests := []struct {
		name         string
		cfg          postgres.Config
		wantMax      int32
		wantLifetime time.Duration
		wantIdle     time.Duration
	}{
		{
			name:         "defaults",
			cfg:          postgres.Config{URL: "postgres://u:p@localhost:5432/strokeguard?sslmode=disable&pool_max_conns=7"},
			wantMax:      7,
			wantLifetime: time.Hour,
			wantIdle:     30 * time.Minute,
		},
		{
			name: "explicit limits override the URL",
			cfg: postgres.Config{
				URL:             "postgres://u:p@db.internal:5433/strokeguard?pool_max_conns=7",
				MaxConns:        25,
				MinConns:        2,
				MaxConnLifetime: 10 * time.Minute,
				MaxConnIdleTime: time.Minute,
			},
			wantMax:      25,
			wantLifetime: 10 * time.Minute,
			wantIdle:     time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.PoolConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, got.MaxConns)
			assert.Equal(t, tt.wantLifetime, got.MaxConnLifetime)
			assert.Equal(t, tt.wantIdle, got.MaxConnIdleTime)
			if tt.cfg.MinConns > 0 {
				assert.Equal(t, tt.cfg.MinConns, got.MinConns)
			}
		})
	}

	t.Run("malformed url", func(t *testing.T) {
		_, err := postgres.Config{URL: "postgres://u:p@host:notaport/db"}.PoolConfig()
		assert.Error(t, err)
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	require.NoError(t, postgres.HealthCheck(context.Background(), pingerFunc(func(context.Context) error { return nil })))

	down := errors.New("connection refused")
	err := postgres.HealthCheck(context.Background(), pingerFunc(func(context.Context) error { return down }))
	assert.ErrorIs(t, err, down)
}
