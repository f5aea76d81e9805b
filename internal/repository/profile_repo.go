package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/db"
)

// ProfileRepository provides data access for user profiles: the placeholder
// row created on first authentication, owner-only mutation, and the settings
// fields with their documented defaults.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Bootstrap creates a placeholder profile for a first-seen uid. Existing
// rows are left untouched, so calling it on every sign-in is safe.
func (r *ProfileRepository) Bootstrap(ctx context.Context, uid string) (*db.User, error) {
	if uid == "" {
		return nil, apperrors.NotAuthenticated("bootstrap profile")
	}

	user := db.User{
		UID:                  uid,
		NotificationsEnabled: true,
		SearchRadiusKm:       db.DefaultSearchRadiusKm,
		LocationVisible:      true,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, apperrors.Repository("bootstrap profile", err)
	}
	return r.Get(ctx, uid)
}

// Get fetches a profile by uid. Not-found surfaces as gorm.ErrRecordNotFound
// wrapped in a RepositoryError.
func (r *ProfileRepository) Get(ctx context.Context, uid string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if err != nil {
		return nil, apperrors.Repository("load profile", err)
	}
	return &user, nil
}

// UpdateProfile mutates the displayable profile fields. Blank name, major or
// phone number are rejected before any write, matching the app's form
// validation.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, uid, name, major, bio, phoneNumber string) error {
	if uid == "" {
		return apperrors.NotAuthenticated("update profile")
	}
	if strings.TrimSpace(phoneNumber) == "" {
		return apperrors.InvalidArgument("please enter a valid phone number")
	}
	if strings.TrimSpace(name) == "" {
		return apperrors.InvalidArgument("please specify a name")
	}
	if strings.TrimSpace(major) == "" {
		return apperrors.InvalidArgument("please specify a major, or 'Undecided' if not applicable")
	}

	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"name":         name,
			"major":        major,
			"bio":          bio,
			"phone_number": phoneNumber,
		}).Error
	if err != nil {
		return apperrors.Repository("update profile", err)
	}
	return nil
}

// UpdatePreferences replaces the interest and class tag sets.
func (r *ProfileRepository) UpdatePreferences(ctx context.Context, uid string, interests, classes []string) error {
	if uid == "" {
		return apperrors.NotAuthenticated("update preferences")
	}

	// struct-based update so the JSON serializer handles the slices
	err := r.db.WithContext(ctx).
		Model(&db.User{UID: uid}).
		Select("interests", "classes").
		Updates(db.User{Interests: interests, Classes: classes}).Error
	if err != nil {
		return apperrors.Repository("update preferences", err)
	}
	return nil
}

// UpdateSettings stores the notification, search-radius and visibility
// settings.
func (r *ProfileRepository) UpdateSettings(ctx context.Context, uid string, notificationsEnabled bool, searchRadiusKm float64, locationVisible bool) error {
	if uid == "" {
		return apperrors.NotAuthenticated("update settings")
	}
	if searchRadiusKm <= 0 {
		return apperrors.InvalidArgument("search radius must be positive")
	}

	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"notifications_enabled": notificationsEnabled,
			"search_radius_km":      searchRadiusKm,
			"location_visible":      locationVisible,
		}).Error
	if err != nil {
		return apperrors.Repository("update settings", err)
	}
	return nil
}

// UpdatePhoto stores the profile photo payload (base64 raster image).
func (r *ProfileRepository) UpdatePhoto(ctx context.Context, uid, photoBase64 string) error {
	if uid == "" {
		return apperrors.NotAuthenticated("update photo")
	}

	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("uid = ?", uid).
		Update("profile_photo_base64", photoBase64).Error
	if err != nil {
		return apperrors.Repository("update photo", err)
	}
	return nil
}

// Delete removes the profile row itself. Relationship cleanup is the
// RelationshipRepository's CascadeDeleteUser, which callers run first.
func (r *ProfileRepository) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return apperrors.InvalidArgument("uid must not be empty")
	}
	err := r.db.WithContext(ctx).Delete(&db.User{}, "uid = ?", uid).Error
	if err != nil {
		return apperrors.Repository("delete profile", err)
	}
	return nil
}
