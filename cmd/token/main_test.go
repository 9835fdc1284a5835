package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"lakala-sdk/internal/auth"
	"lakala-sdk/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestRun(t *testing.T) {
	t.Run("Admin token", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"-sub", "root@example.com", "-role", "admin", "-ttl", "1h"}, testSecret, &out))

		claims, err := auth.ParseToken([]byte(testSecret), strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, "root@example.com", claims.Subject)
		assert.Equal(t, utils.RoleAdmin, claims.Role)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("Defaults to operator", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"-sub", "ops@example.com"}, testSecret, &out))

		claims, err := auth.ParseToken([]byte(testSecret), strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, utils.RoleOperator, claims.Role)
		assert.WithinDuration(t, time.Now().Add(defaultTTL), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			args   []string
			secret string
		}{
			{"Missing subject", nil, testSecret},
			{"Unknown role", []string{"-sub", "a", "-role", "root"}, testSecret},
			{"Non-positive ttl", []string{"-sub", "a", "-ttl", "0s"}, testSecret},
			{"Bad flag", []string{"-nope"}, testSecret},
			{"Missing secret", []string{"-sub", "a"}, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var out bytes.Buffer
				assert.Error(t, run(tt.args, tt.secret, &out))
				assert.Empty(t, out.String())
			})
		}
	})
}
