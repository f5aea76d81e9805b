package linkup

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/GraceTang323/LinkedUp/internal/app"
	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/chat"
	"github.com/GraceTang323/LinkedUp/internal/repository"
)

// Service implements the link-up HTTP API: expressing interest, listing and
// counting matches, and unlinking. It contains the business logic on top of
// the repository and cache layers.
type Service struct {
	appCtx *app.AppContext
	repo   *repository.RelationshipRepository
}

// NewService creates a new link-up service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewRelationshipRepository(appCtx.DB),
	}
}

type linkUpRequest struct {
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
}

type linkUpResponse struct {
	Outcome repository.MatchOutcome `json:"outcome"`
	RoomID  string                  `json:"room_id,omitempty"`
}

// LinkUp handles POST /linkup: records actor's interest in target and
// reports the outcome. When the pair is (or already was) matched, the
// deterministic chat room id is included so the client can open the room.
func (s *Service) LinkUp(w http.ResponseWriter, r *http.Request) {
	var req linkUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	s.appCtx.Logger.Debug("LinkUp called", "actor", req.ActorID, "target", req.TargetID)

	outcome, err := s.repo.ExpressInterest(r.Context(), req.ActorID, req.TargetID)
	if err != nil {
		s.appCtx.Logger.Error("ExpressInterest failed", "err", err)
		apperrors.WriteError(w, err)
		return
	}

	resp := linkUpResponse{Outcome: outcome}
	switch outcome {
	case repository.NewMatch:
		// counts changed for both sides
		s.appCtx.RedisCache.InvalidateMatchCount(r.Context(), req.ActorID, req.TargetID)
		resp.RoomID = chat.RoomID(req.ActorID, req.TargetID)
	case repository.AlreadyMatched:
		resp.RoomID = chat.RoomID(req.ActorID, req.TargetID)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListMatches handles GET /users/{uid}/matches: matches resolved to display
// names. Ordering is not part of the contract.
func (s *Service) ListMatches(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	matches, err := s.repo.ListMatches(r.Context(), uid)
	if err != nil {
		s.appCtx.Logger.Error("ListMatches failed", "uid", uid, "err", err)
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// ListMatchIDs handles GET /users/{uid}/matches/ids: the lightweight
// bare-uid variant.
func (s *Service) ListMatchIDs(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	ids, err := s.repo.ListMatchIDs(r.Context(), uid)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"match_ids": ids})
}

// MatchCount handles GET /users/{uid}/matches/count.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:<uid>).
//  2. On cache miss, falls back to the DB.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) MatchCount(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	ctx := r.Context()

	if n, found, err := s.appCtx.RedisCache.GetMatchCount(ctx, uid); err == nil && found {
		writeJSON(w, http.StatusOK, map[string]int64{"count": n})
		return
	}

	count, err := s.repo.CountMatches(ctx, uid)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	if err := s.appCtx.RedisCache.SetMatchCount(ctx, uid, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache match count", "uid", uid, "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// Unlink handles DELETE /users/{uid}/matches/{target}: removes all four
// potential relationship records for the pair in one batch.
func (s *Service) Unlink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uid, target := vars["uid"], vars["target"]

	if err := s.repo.Unlink(r.Context(), uid, target); err != nil {
		s.appCtx.Logger.Error("Unlink failed", "actor", uid, "target", target, "err", err)
		apperrors.WriteError(w, err)
		return
	}

	s.appCtx.RedisCache.InvalidateMatchCount(r.Context(), uid, target)
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

// Register attaches the link-up endpoints to the router.
func (s *Service) Register(r *mux.Router) {
	r.HandleFunc("/linkup", s.LinkUp).Methods(http.MethodPost)
	r.HandleFunc("/users/{uid}/matches", s.ListMatches).Methods(http.MethodGet)
	r.HandleFunc("/users/{uid}/matches/ids", s.ListMatchIDs).Methods(http.MethodGet)
	r.HandleFunc("/users/{uid}/matches/count", s.MatchCount).Methods(http.MethodGet)
	r.HandleFunc("/users/{uid}/matches/{target}", s.Unlink).Methods(http.MethodDelete)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
