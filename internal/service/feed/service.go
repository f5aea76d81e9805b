package feed

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/GraceTang323/LinkedUp/internal/app"
	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/discovery"
	"github.com/GraceTang323/LinkedUp/internal/repository"
	"github.com/GraceTang323/LinkedUp/internal/server"
)

// Service exposes the discovery feed over HTTP: a one-shot nearby listing,
// location read/write, and a websocket that streams the full candidate list
// on every directory change.
type Service struct {
	appCtx   *app.AppContext
	feed     *discovery.Feed
	profiles *repository.ProfileRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		feed:     discovery.NewFeed(appCtx.DB, appCtx.RedisCache, appCtx.Logger),
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// Nearby handles GET /nearby?uid=&radius_km=: a single snapshot of the
// candidate list, narrowed to candidates within a radius of the caller's
// saved location. The radius is radius_km when given, otherwise the caller's
// stored search-radius setting. A caller without a saved location gets the
// unfiltered list.
func (s *Service) Nearby(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	ctx := r.Context()

	stream, err := s.feed.SubscribeNearby(ctx, uid)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	candidates := <-stream.C()
	stream.Cancel()

	radius := 0.0
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			apperrors.WriteError(w, apperrors.InvalidArgument("radius_km must be a positive number"))
			return
		}
	} else if user, err := s.profiles.Get(ctx, uid); err == nil {
		radius = user.SearchRadiusKm
	}

	if radius > 0 {
		origin, err := s.feed.LoadLocation(ctx, uid)
		if err != nil {
			apperrors.WriteError(w, err)
			return
		}
		if origin != nil {
			candidates = discovery.FilterByRadius(candidates, *origin, radius)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

// SubscribeNearby handles GET /ws/nearby?uid=: upgrades to a websocket and
// pushes the complete candidate list on every directory change. Closing the
// socket cancels the subscription.
func (s *Service) SubscribeNearby(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")

	stream, err := s.feed.SubscribeNearby(r.Context(), uid)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	conn, err := server.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		stream.Cancel()
		s.appCtx.Logger.Error("websocket upgrade failed", "err", err)
		return
	}

	server.ServeStream(conn, stream, s.appCtx.Logger)
}

// GetLocation handles GET /users/{uid}/location. A user who never saved a
// location gets 404.
func (s *Service) GetLocation(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	loc, err := s.feed.LoadLocation(r.Context(), uid)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	if loc == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no saved location"})
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// SaveLocation handles PUT /users/{uid}/location.
func (s *Service) SaveLocation(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var loc discovery.LatLng
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	if err := s.feed.SaveLocation(r.Context(), uid, loc); err != nil {
		s.appCtx.Logger.Error("SaveLocation failed", "uid", uid, "err", err)
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// Register attaches the discovery endpoints to the router.
func (s *Service) Register(r *mux.Router) {
	r.HandleFunc("/nearby", s.Nearby).Methods(http.MethodGet)
	r.HandleFunc("/ws/nearby", s.SubscribeNearby).Methods(http.MethodGet)
	r.HandleFunc("/users/{uid}/location", s.GetLocation).Methods(http.MethodGet)
	r.HandleFunc("/users/{uid}/location", s.SaveLocation).Methods(http.MethodPut)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
