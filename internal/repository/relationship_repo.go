package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/db"
)

// MatchOutcome reports what an ExpressInterest call resulted in.
type MatchOutcome string

const (
	// AlreadyMatched: the pair was matched before the call; nothing written.
	AlreadyMatched MatchOutcome = "already_matched"
	// NewMatch: reciprocity was detected and both match halves were created.
	NewMatch MatchOutcome = "new_match"
	// OneSidedInterestRecorded: interest stored, no reciprocal edge yet.
	OneSidedInterestRecorded MatchOutcome = "one_sided_interest_recorded"
)

// MatchedUser is a match counterpart resolved to its display name.
type MatchedUser struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// RelationshipRepository owns the interest/match state machine: recording
// one-sided interest, detecting reciprocity, creating symmetric match
// records, and removing all relationship traces for a pair or for a deleted
// account.
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new repository bound to the given DB
// connection.
func NewRelationshipRepository(database *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: database}
}

// ExpressInterest records actor's interest in target and promotes the pair
// to a match when the reciprocal interest already exists.
//
// Behavior:
//   - If the pair is already matched → AlreadyMatched, no writes (duplicate
//     match guard).
//   - The actor's interest edge is upserted; duplicate calls are safe.
//   - The reciprocal check runs strictly after the upsert is acknowledged.
//   - On reciprocity, both match halves are written in one transaction.
//
// Both sides racing inside the same round trip can each observe "no
// reciprocal edge yet" and remain one-sided; the next interaction by either
// side repairs it. This matches the upstream behavior, which does not use a
// serializable read-modify-write.
func (r *RelationshipRepository) ExpressInterest(
	ctx context.Context,
	actor, target string,
) (MatchOutcome, error) {
	if actor == "" {
		return "", apperrors.NotAuthenticated("express interest")
	}
	if target == "" {
		return "", apperrors.InvalidArgument("target uid must not be empty")
	}
	if actor == target {
		return "", apperrors.InvalidArgument("cannot express interest in yourself")
	}

	// already matched?
	var matched int64
	err := r.db.WithContext(ctx).
		Model(&db.MatchEdge{}).
		Where("owner_id = ? AND counterpart_id = ? AND matched = ?", actor, target, true).
		Count(&matched).Error
	if err != nil {
		return "", apperrors.Repository("check existing match", err)
	}
	if matched > 0 {
		return AlreadyMatched, nil
	}

	// upsert the actor's interest edge
	edge := db.InterestEdge{OwnerID: actor, CounterpartID: target, Liked: true}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "counterpart_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked"}),
		}).
		Create(&edge).Error
	if err != nil {
		return "", apperrors.Repository("record interest", err)
	}

	// reciprocal interest?
	var reciprocal int64
	err = r.db.WithContext(ctx).
		Model(&db.InterestEdge{}).
		Where("owner_id = ? AND counterpart_id = ? AND liked = ?", target, actor, true).
		Count(&reciprocal).Error
	if err != nil {
		return "", apperrors.Repository("check reciprocal interest", err)
	}
	if reciprocal == 0 {
		return OneSidedInterestRecorded, nil
	}

	// mutual: create both halves atomically
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		halves := []db.MatchEdge{
			{OwnerID: actor, CounterpartID: target, Matched: true},
			{OwnerID: target, CounterpartID: actor, Matched: true},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&halves).Error
	})
	if err != nil {
		return "", apperrors.Repository("create match", err)
	}

	return NewMatch, nil
}

// ListMatches returns the actor's matches resolved to display names.
// Counterparts whose profile no longer exists are silently skipped. Rows are
// ordered by counterpart uid for determinism only; callers must not depend
// on ordering.
func (r *RelationshipRepository) ListMatches(ctx context.Context, actor string) ([]MatchedUser, error) {
	ids, err := r.ListMatchIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []MatchedUser{}, nil
	}

	var users []db.User
	err = r.db.WithContext(ctx).
		Select("uid", "name").
		Where("uid IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, apperrors.Repository("resolve match profiles", err)
	}

	byUID := make(map[string]db.User, len(users))
	for _, u := range users {
		byUID[u.UID] = u
	}

	matches := make([]MatchedUser, 0, len(ids))
	for _, id := range ids {
		u, ok := byUID[id]
		if !ok {
			continue // profile deleted out from under the edge
		}
		matches = append(matches, MatchedUser{UID: u.UID, Name: u.Name})
	}
	return matches, nil
}

// ListMatchIDs is the lightweight variant returning bare counterpart uids.
func (r *RelationshipRepository) ListMatchIDs(ctx context.Context, actor string) ([]string, error) {
	if actor == "" {
		return nil, apperrors.NotAuthenticated("list matches")
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.MatchEdge{}).
		Where("owner_id = ? AND matched = ?", actor, true).
		Order("counterpart_id ASC").
		Pluck("counterpart_id", &ids).Error
	if err != nil {
		return nil, apperrors.Repository("list match ids", err)
	}
	return ids, nil
}

// CountMatches returns how many matches the actor has. Used together with
// the Redis cache (DB is the fallback).
func (r *RelationshipRepository) CountMatches(ctx context.Context, actor string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.MatchEdge{}).
		Where("owner_id = ? AND matched = ?", actor, true).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Repository("count matches", err)
	}
	return count, nil
}

// Unlink removes every trace of the pair: both interest directions and both
// match halves, in a single all-or-nothing transaction. Records that do not
// exist are skipped (delete-if-present); a store failure rolls the whole
// operation back.
func (r *RelationshipRepository) Unlink(ctx context.Context, actor, target string) error {
	if actor == "" {
		return apperrors.NotAuthenticated("unlink")
	}
	if target == "" || actor == target {
		return apperrors.InvalidArgument("target must be another user")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("(owner_id = ? AND counterpart_id = ?) OR (owner_id = ? AND counterpart_id = ?)",
				actor, target, target, actor).
			Delete(&db.InterestEdge{}).Error; err != nil {
			return err
		}
		return tx.
			Where("(owner_id = ? AND counterpart_id = ?) OR (owner_id = ? AND counterpart_id = ?)",
				actor, target, target, actor).
			Delete(&db.MatchEdge{}).Error
	})
	if err != nil {
		return apperrors.Repository("unlink", err)
	}
	return nil
}

// CascadeDeleteUser removes every relationship record referencing a deleted
// account: each other user's edges pointing at deletedUID, then the deleted
// user's own interest and match namespaces.
//
// The fan-out over the directory is O(N) and each counterparty's cleanup is
// its own transaction: a failure partway through leaves earlier users
// cleaned and later ones not. The operation is idempotent, so a failed run
// can simply be repeated.
func (r *RelationshipRepository) CascadeDeleteUser(ctx context.Context, deletedUID string) error {
	if deletedUID == "" {
		return apperrors.InvalidArgument("uid must not be empty")
	}

	var uids []string
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("uid <> ?", deletedUID).
		Pluck("uid", &uids).Error
	if err != nil {
		return apperrors.Repository("list directory", err)
	}

	for _, uid := range uids {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.
				Where("owner_id = ? AND counterpart_id = ?", uid, deletedUID).
				Delete(&db.MatchEdge{}).Error; err != nil {
				return err
			}
			return tx.
				Where("owner_id = ? AND counterpart_id = ?", uid, deletedUID).
				Delete(&db.InterestEdge{}).Error
		})
		if err != nil {
			return apperrors.Repository("cascade delete for counterpart "+uid, err)
		}
	}

	// the deleted user's own namespaces
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", deletedUID).Delete(&db.MatchEdge{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ?", deletedUID).Delete(&db.InterestEdge{}).Error
	})
	if err != nil {
		return apperrors.Repository("cascade delete own records", err)
	}
	return nil
}
