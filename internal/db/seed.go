package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Campus center used for demo locations (Madison, WI).
const (
	seedCenterLat = 43.0757
	seedCenterLng = -89.4040
)

var seedMajors = []string{
	"Computer Science", "Biology", "Economics", "Mechanical Engineering",
	"Psychology", "History", "Mathematics", "Nursing",
}

var seedInterests = []string{
	"hiking", "board games", "climbing", "coffee", "photography",
	"intramural soccer", "live music", "cooking",
}

var seedClasses = []string{
	"CS407", "CS540", "MATH340", "ECON301", "BIO151", "PSYCH202",
}

// SeedTestData resets the database and populates it with a demo campus
// directory plus some pre-existing interest and match edges.
//
// Behavior:
//  1. Clears users, interest edges, match edges and messages.
//  2. Creates 20 students scattered around the campus center.
//  3. Generates one-sided interests, promoting every 3rd pair to a mutual
//     match (both interest directions plus both match halves).
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"chat_messages", "match_edges", "interest_edges", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE chat_messages AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'chat_messages'")
	}

	log.Println("Cleared existing data")

	// --- Seed Users ---
	uids := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		uid := fmt.Sprintf("student-%02d", i)
		uids = append(uids, uid)

		// scatter within ~2km of the campus center
		lat := seedCenterLat + (r.Float64()-0.5)*0.036
		lng := seedCenterLng + (r.Float64()-0.5)*0.036

		interests := pickSome(r, seedInterests, 3)
		classes := pickSome(r, seedClasses, 2)

		user := User{
			UID:                  uid,
			Name:                 fmt.Sprintf("Student %d", i),
			Major:                seedMajors[r.Intn(len(seedMajors))],
			Bio:                  "Looking to meet people on campus!",
			PhoneNumber:          fmt.Sprintf("608-555-%04d", 1000+i),
			Lat:                  &lat,
			Lng:                  &lng,
			Interests:            interests,
			Classes:              classes,
			NotificationsEnabled: true,
			SearchRadiusKm:       DefaultSearchRadiusKm,
			LocationVisible:      true,
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed interest edges, every 3rd pair mutual ---
	counter := 0
	for _, from := range uids {
		for j := 0; j < 4; j++ {
			to := uids[r.Intn(len(uids))]
			if to == from {
				continue
			}

			edge := InterestEdge{OwnerID: from, CounterpartID: to, Liked: true}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return fmt.Errorf("failed to seed interest: %w", err)
			}

			if counter%3 == 0 {
				// reciprocal interest plus both match halves
				recip := InterestEdge{OwnerID: to, CounterpartID: from, Liked: true}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&recip)

				matches := []MatchEdge{
					{OwnerID: from, CounterpartID: to, Matched: true},
					{OwnerID: to, CounterpartID: from, Matched: true},
				}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&matches)
			}
			counter++
		}
	}

	return nil
}

func pickSome(r *rand.Rand, pool []string, n int) []string {
	idx := r.Perm(len(pool))
	out := make([]string, 0, n)
	for _, k := range idx[:n] {
		out = append(out, pool[k])
	}
	return out
}
