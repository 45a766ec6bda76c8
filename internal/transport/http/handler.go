package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
	"github.com/abhikumar45444/movie-night-decider/internal/tmdb"

	"github.com/go-chi/chi/v5"
)

// RoomSvc covers room lifecycle and the derived read models.
type RoomSvc interface {
	CreateRoom(ctx context.Context) (*domain.Room, error)
	CloseRoom(ctx context.Context, code string) error
	Movies(ctx context.Context, code string) ([]domain.Movie, error)
	Matches(ctx context.Context, code string) ([]domain.Movie, error)
}

type MemberSvc interface {
	List(ctx context.Context, roomCode string) ([]domain.Participant, error)
}

// RoomHub routes joins and votes through the per-room serialization
// point, so REST mutations reach websocket subscribers too.
type RoomHub interface {
	Join(ctx context.Context, roomCode, username string) (*domain.Participant, error)
	Vote(ctx context.Context, roomCode, userID string, movieID int64, yes bool) (domain.Progress, error)
}

// Catalog is the slice of the TMDB client the discovery endpoints use.
type Catalog interface {
	MovieDetails(ctx context.Context, id int64) (*domain.Movie, error)
	SearchMovies(ctx context.Context, query string) ([]domain.Movie, error)
}

type Handler struct {
	roomSvc   RoomSvc
	memberSvc MemberSvc
	hub       RoomHub
	catalog   Catalog
}

func NewHandler(room RoomSvc, member MemberSvc, hub RoomHub, catalog Catalog) *Handler {
	return &Handler{
		roomSvc:   room,
		memberSvc: member,
		hub:       hub,
		catalog:   catalog,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Message: "Movie Night Decider API",
		Status:  "running",
	})
}

// POST /api/rooms/create
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.CreateRoom(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrCodesExhausted) {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "room code space exhausted"})
			return
		}
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to create room"})
		return
	}

	writeJSON(w, http.StatusOK, CreateRoomResponse{
		RoomCode: room.Code,
		Message:  "Room created successfully",
	})
}

// POST /api/rooms/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	username := strings.TrimSpace(req.Username)
	if code == "" || username == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room_code and username are required"})
		return
	}

	p, err := h.hub.Join(r.Context(), code, username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		case errors.Is(err, domain.ErrRoomClosed):
			// closed rooms refuse admission only; the distinct message
			// tells a sealed room apart from a dead code
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room closed"})
		case errors.Is(err, domain.ErrStoreUnavail):
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable"})
		default:
			slog.Error("handler.JoinRoom:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		UserID:   p.UserID,
		RoomCode: p.RoomCode,
		Username: p.Username,
		Message:  "Joined successfully",
	})
}

// POST /api/rooms/{roomCode}/close
func (h *Handler) CloseRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "roomCode"))

	if err := h.roomSvc.CloseRoom(r.Context(), code); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.CloseRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, CloseRoomResponse{
		RoomCode: code,
		Message:  "Room closed",
	})
}

// GET /api/rooms/{roomCode}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "roomCode"))

	parts, err := h.memberSvc.List(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetParticipants:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := ParticipantsResponse{Participants: make([]ParticipantItem, 0, len(parts))}
	for _, p := range parts {
		resp.Participants = append(resp.Participants, ParticipantItem{
			UserID:   p.UserID,
			Username: p.Username,
			JoinedAt: p.JoinedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/rooms/{roomCode}/movies
func (h *Handler) GetMovies(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "roomCode"))

	movies, err := h.roomSvc.Movies(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetMovies:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if movies == nil {
		movies = []domain.Movie{}
	}

	writeJSON(w, http.StatusOK, MoviesResponse{Movies: movies})
}

// GET /api/rooms/{roomCode}/matches
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "roomCode"))

	matches, err := h.roomSvc.Matches(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetMatches:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if matches == nil {
		matches = []domain.Movie{}
	}

	writeJSON(w, http.StatusOK, MatchesResponse{Matches: matches})
}

// POST /api/vote
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	if code == "" || req.UserID == "" || req.MovieID == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room_code, user_id and movie_id are required"})
		return
	}
	if req.Vote != 0 && req.Vote != 1 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "vote must be 0 or 1"})
		return
	}

	progress, err := h.hub.Vote(r.Context(), code, req.UserID, req.MovieID, req.Vote == 1)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		case errors.Is(err, domain.ErrNotInRoom):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user not in room"})
		case errors.Is(err, domain.ErrMovieNotInRoom):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "movie not in room"})
		case errors.Is(err, domain.ErrStoreUnavail):
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable"})
		default:
			slog.Error("handler.Vote:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, VoteResponse{
		Message:  "Vote recorded",
		Progress: progress,
	})
}

// GET /api/movies/search?query=
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	results, err := h.catalog.SearchMovies(r.Context(), query)
	if err != nil {
		slog.Error("handler.SearchMovies:", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "movie search failed"})
		return
	}
	if results == nil {
		results = []domain.Movie{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GET /api/movies/{movieID}
func (h *Handler) GetMovieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid movie id"})
		return
	}

	movie, err := h.catalog.MovieDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "movie not found"})
			return
		}
		slog.Error("handler.GetMovieDetails:", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "failed to fetch movie details"})
		return
	}

	writeJSON(w, http.StatusOK, movie)
}
