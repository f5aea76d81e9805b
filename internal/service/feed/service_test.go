package feed_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GraceTang323/LinkedUp/internal/app"
	"github.com/GraceTang323/LinkedUp/internal/cache"
	"github.com/GraceTang323/LinkedUp/internal/config"
	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/service/feed"
)

//
// Test helpers
//

// seedDirectory wipes the DB and inserts a deterministic directory around
// the campus center (43.0757, -89.4040).
//
// Dataset:
//   - me:      at the center, stored search radius 1 km
//   - close:   ~0.44 km north of the center
//   - far:     ~5 km north of the center
//   - drifter: no saved location, stored search radius 1 km
func seedDirectory(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	require.NoError(t, gdb.Exec("DELETE FROM users").Error)

	mk := func(uid, name string, lat, lng *float64) db.User {
		return db.User{
			UID:                  uid,
			Name:                 name,
			Lat:                  lat,
			Lng:                  lng,
			NotificationsEnabled: true,
			SearchRadiusKm:       db.DefaultSearchRadiusKm,
			LocationVisible:      true,
		}
	}
	f := func(v float64) *float64 { return &v }

	users := []db.User{
		mk("me", "Me", f(43.0757), f(-89.4040)),
		mk("close", "Close Student", f(43.0797), f(-89.4040)),
		mk("far", "Far Student", f(43.1207), f(-89.4040)),
		mk("drifter", "Drifter", nil, nil),
	}
	require.NoError(t, gdb.Create(&users).Error)
}

func setupService(t *testing.T) *mux.Router {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	seedDirectory(t, gdb)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(gdb, redisCache, logger)

	router := mux.NewRouter()
	feed.NewService(appCtx).Register(router)
	return router
}

func getNearby(t *testing.T, router *mux.Router, path string) (int, []string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp struct {
		Candidates []struct {
			UID string `json:"uid"`
		} `json:"candidates"`
	}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}

	uids := make([]string, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		uids = append(uids, c.UID)
	}
	return rec.Code, uids
}

//
// Tests
//

// TestNearby_DefaultsToStoredSearchRadius checks that the one-shot listing
// honors the caller's saved search-radius setting when no radius_km query
// param is given: only the ~0.44 km neighbor fits inside the default 1 km.
func TestNearby_DefaultsToStoredSearchRadius(t *testing.T) {
	router := setupService(t)

	code, uids := getNearby(t, router, "/nearby?uid=me")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"close"}, uids)
}

// TestNearby_ExplicitRadiusOverridesSetting widens the circle past the
// stored 1 km setting.
func TestNearby_ExplicitRadiusOverridesSetting(t *testing.T) {
	router := setupService(t)

	code, uids := getNearby(t, router, "/nearby?uid=me&radius_km=10")
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{"close", "far"}, uids)
}

// TestNearby_NoSavedLocationIsUnfiltered: a caller who never saved a
// location cannot anchor a radius, so the full visible directory comes back.
func TestNearby_NoSavedLocationIsUnfiltered(t *testing.T) {
	router := setupService(t)

	code, uids := getNearby(t, router, "/nearby?uid=drifter")
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{"me", "close", "far"}, uids)
}

// TestNearby_RejectsBadRadius covers the malformed query param.
func TestNearby_RejectsBadRadius(t *testing.T) {
	router := setupService(t)

	code, _ := getNearby(t, router, "/nearby?uid=me&radius_km=-2")
	assert.Equal(t, http.StatusBadRequest, code)
}
