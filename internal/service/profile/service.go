package profile

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/GraceTang323/LinkedUp/internal/app"
	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/cache"
	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/repository"
)

// Service implements the profile HTTP API: bootstrap on first sign-in,
// profile/preferences/settings mutation, and account deletion with the
// relationship fan-out.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	rels     *repository.RelationshipRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		rels:     repository.NewRelationshipRepository(appCtx.DB),
	}
}

type userView struct {
	UID                  string   `json:"uid"`
	Name                 string   `json:"name"`
	Major                string   `json:"major"`
	Bio                  string   `json:"bio"`
	PhoneNumber          string   `json:"phone_number"`
	Interests            []string `json:"interests"`
	Classes              []string `json:"classes"`
	ProfilePhotoBase64   string   `json:"profile_photo_base64,omitempty"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
	SearchRadiusKm       float64  `json:"search_radius_km"`
	LocationVisible      bool     `json:"location_visible"`
}

func toView(u *db.User) userView {
	return userView{
		UID:                  u.UID,
		Name:                 u.Name,
		Major:                u.Major,
		Bio:                  u.Bio,
		PhoneNumber:          u.PhoneNumber,
		Interests:            u.Interests,
		Classes:              u.Classes,
		ProfilePhotoBase64:   u.ProfilePhotoBase64,
		NotificationsEnabled: u.NotificationsEnabled,
		SearchRadiusKm:       u.SearchRadiusKm,
		LocationVisible:      u.LocationVisible,
	}
}

// Bootstrap handles POST /users: creates the placeholder profile for a
// first-seen uid. Safe to call on every sign-in.
func (s *Service) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID string `json:"uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	user, err := s.profiles.Bootstrap(r.Context(), req.UID)
	if err != nil {
		s.appCtx.Logger.Error("Bootstrap failed", "uid", req.UID, "err", err)
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toView(user))
}

// Get handles GET /users/{uid}.
func (s *Service) Get(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	user, err := s.profiles.Get(r.Context(), uid)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toView(user))
}

// Update handles PUT /users/{uid}: the displayable profile fields. A name
// change is visible to the discovery feed, so listeners are woken up.
func (s *Service) Update(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req struct {
		Name        string `json:"name"`
		Major       string `json:"major"`
		Bio         string `json:"bio"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	err := s.profiles.UpdateProfile(r.Context(), uid, req.Name, req.Major, req.Bio, req.PhoneNumber)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	if err := s.appCtx.RedisCache.Publish(r.Context(), cache.TopicDirectoryChanged); err != nil {
		s.appCtx.Logger.Warn("failed to publish directory change", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// UpdatePreferences handles PUT /users/{uid}/preferences.
func (s *Service) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req struct {
		Interests []string `json:"interests"`
		Classes   []string `json:"classes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	if err := s.profiles.UpdatePreferences(r.Context(), uid, req.Interests, req.Classes); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// UpdateSettings handles PUT /users/{uid}/settings. Toggling location
// visibility changes what the feed may show, so listeners are woken up.
func (s *Service) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req struct {
		NotificationsEnabled bool    `json:"notifications_enabled"`
		SearchRadiusKm       float64 `json:"search_radius_km"`
		LocationVisible      bool    `json:"location_visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	err := s.profiles.UpdateSettings(r.Context(), uid, req.NotificationsEnabled, req.SearchRadiusKm, req.LocationVisible)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	if err := s.appCtx.RedisCache.Publish(r.Context(), cache.TopicDirectoryChanged); err != nil {
		s.appCtx.Logger.Warn("failed to publish directory change", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// UpdatePhoto handles PUT /users/{uid}/photo.
func (s *Service) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req struct {
		PhotoBase64 string `json:"photo_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	if err := s.profiles.UpdatePhoto(r.Context(), uid, req.PhotoBase64); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete handles DELETE /users/{uid}: fans out across every other user's
// relationship records, then removes the user's own data and profile row.
func (s *Service) Delete(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	ctx := r.Context()

	s.appCtx.Logger.Info("deleting user", "uid", uid)

	if err := s.rels.CascadeDeleteUser(ctx, uid); err != nil {
		s.appCtx.Logger.Error("CascadeDeleteUser failed", "uid", uid, "err", err)
		apperrors.WriteError(w, err)
		return
	}
	if err := s.profiles.Delete(ctx, uid); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	// other users' stale counts age out via the cache TTL
	s.appCtx.RedisCache.InvalidateMatchCount(ctx, uid)

	if err := s.appCtx.RedisCache.Publish(ctx, cache.TopicDirectoryChanged); err != nil {
		s.appCtx.Logger.Warn("failed to publish directory change", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Register attaches the profile endpoints to the router.
func (s *Service) Register(r *mux.Router) {
	r.HandleFunc("/users", s.Bootstrap).Methods(http.MethodPost)
	r.HandleFunc("/users/{uid}", s.Get).Methods(http.MethodGet)
	r.HandleFunc("/users/{uid}", s.Update).Methods(http.MethodPut)
	r.HandleFunc("/users/{uid}", s.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/users/{uid}/preferences", s.UpdatePreferences).Methods(http.MethodPut)
	r.HandleFunc("/users/{uid}/settings", s.UpdateSettings).Methods(http.MethodPut)
	r.HandleFunc("/users/{uid}/photo", s.UpdatePhoto).Methods(http.MethodPut)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
