package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := loadFromEnv(envFrom(map[string]string{"APP_URL_FROM_ANYWHERE": "http://localhost:8080"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "data/bins.db", cfg.SQLitePath)
	assert.Equal(t, "lk", cfg.HolidayRegion)
	assert.Equal(t, 5*time.Second, cfg.GeolocationTimeout)
	assert.Nil(t, cfg.RSAPublicKey)
	assert.False(t, cfg.LDFlag_CORSHighSecurity)
	assert.NotEmpty(t, cfg.LDFlag_SendgridFromEmail)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubB64 := base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	cfg, err := loadFromEnv(envFrom(map[string]string{
		"APP_URL_FROM_ANYWHERE":      "https://bins.example.com",
		"STORE_DRIVER":               "Postgres",
		"DB_URL":                     "postgres://localhost/bins",
		"REDIS_DB":                   "2",
		"GEOLOCATION_TIMEOUT":        "750ms",
		"CORS_HIGH_SECURITY":         "true",
		"SKIP_HOLIDAY_COLLECTIONS":   "1",
		"AUTH_RSA_PUBLIC_KEY_BASE64": pubB64,
	}))
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 750*time.Millisecond, cfg.GeolocationTimeout)
	assert.True(t, cfg.LDFlag_CORSHighSecurity)
	assert.True(t, cfg.LDFlag_SkipHolidayCollections)
	require.NotNil(t, cfg.RSAPublicKey)
	assert.Equal(t, key.PublicKey.N, cfg.RSAPublicKey.N)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"APP_URL_FROM_ANYWHERE": "http://localhost"}
	}
	cases := map[string]func(m map[string]string){
		"missing url":     func(m map[string]string) { delete(m, "APP_URL_FROM_ANYWHERE") },
		"postgres no url": func(m map[string]string) { m["STORE_DRIVER"] = "postgres" },
		"unknown driver":  func(m map[string]string) { m["STORE_DRIVER"] = "mongo" },
		"bad bool":        func(m map[string]string) { m["SEED_DB_WITH_TEST_DATA"] = "maybe" },
		"bad duration":    func(m map[string]string) { m["LOGO_TIMEOUT"] = "soon" },
		"bad redis db":    func(m map[string]string) { m["REDIS_DB"] = "one" },
		"bad public key":  func(m map[string]string) { m["AUTH_RSA_PUBLIC_KEY_BASE64"] = "!!" },
		"non-pem key bytes": func(m map[string]string) {
			m["AUTH_RSA_PUBLIC_KEY_BASE64"] = base64.StdEncoding.EncodeToString([]byte("nope"))
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := base()
			mutate(m)
			_, err := loadFromEnv(envFrom(m))
			assert.Error(t, err)
		})
	}
}
