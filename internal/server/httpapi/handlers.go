package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/auth"
	"github.com/DaH-115/ticketeer/internal/errs"
	"github.com/DaH-115/ticketeer/internal/metadata"
	"github.com/DaH-115/ticketeer/internal/model"
	"github.com/DaH-115/ticketeer/internal/service"
)

// Handler wires services into HTTP handlers.
type Handler struct {
	engagement service.Engagement
	reconciler service.Reconciler
	cache      *metadata.Cache
	validate   *validator.Validate
	log        *zap.Logger
}

// NewHandler constructs the handler set.
func NewHandler(
	engagement service.Engagement,
	reconciler service.Reconciler,
	cache *metadata.Cache,
	log *zap.Logger,
) *Handler {
	return &Handler{
		engagement: engagement,
		reconciler: reconciler,
		cache:      cache,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Comments ---

type createCommentRequest struct {
	AuthorID string `json:"authorId" validate:"required,uuid"`
	Content  string `json:"content"`
}

// CreateComment handles POST /reviews/{reviewID}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, msgContentRequired)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	authorID, err := uuid.FromString(req.AuthorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	id, err := h.engagement.CreateComment(r.Context(), principal, reviewID, authorID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, msgContentRequired)
		case errors.Is(err, errs.ErrForbidden):
			writeError(w, http.StatusForbidden, msgNoPermission)
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgReviewNotFound)
		default:
			h.internal(w, "create comment", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      id.String(),
		"message": msgCommentCreated,
	})
}

// ListComments handles GET /reviews/{reviewID}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	comments, err := h.engagement.ListComments(r.Context(), reviewID)
	if err != nil {
		h.internal(w, "list comments", err)
		return
	}
	out := make([]commentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentResponse(&comments[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateComment handles PUT /comments/{reviewID}/{commentID}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	err := h.engagement.UpdateComment(r.Context(), principal, reviewID, commentID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, msgContentRequired)
		case errors.Is(err, errs.ErrForbidden):
			writeError(w, http.StatusForbidden, msgNoPermission)
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgCommentNotFound)
		default:
			h.internal(w, "update comment", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteComment handles DELETE /comments/{reviewID}/{commentID}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}

	err := h.engagement.DeleteComment(r.Context(), principal, reviewID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrForbidden):
			writeError(w, http.StatusForbidden, msgNoPermission)
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgCommentNotFound)
		default:
			h.internal(w, "delete comment", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Likes ---

// Like handles POST /reviews/{reviewID}/like.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	likeCount, err := h.engagement.Like(r.Context(), principal, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgReviewNotFound)
		case errors.Is(err, errs.ErrConflict):
			writeError(w, http.StatusConflict, msgAlreadyLiked)
		default:
			h.internal(w, "like", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"likeCount": likeCount})
}

// Unlike handles DELETE /reviews/{reviewID}/like.
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	if err := h.engagement.Unlike(r.Context(), principal, reviewID); err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgReviewNotFound)
		case errors.Is(err, errs.ErrConflict):
			writeError(w, http.StatusConflict, msgNotLiked)
		default:
			h.internal(w, "unlike", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LikeStatus handles GET /reviews/{reviewID}/like.
func (h *Handler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	liked, likeCount, err := h.engagement.LikeStatus(r.Context(), principal, reviewID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgReviewNotFound)
			return
		}
		h.internal(w, "like status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likeCount": likeCount})
}

// --- Reviews ---

// GetReview handles GET /reviews/{reviewID}. The response is decorated
// with certification and genre names from the metadata cache; enrichment
// failure degrades to null fields, never an error.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	review, err := h.engagement.GetReview(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgReviewNotFound)
			return
		}
		h.internal(w, "get review", err)
		return
	}

	enriched := h.cache.Enrich(r.Context(), []metadata.MovieRef{
		{ID: review.MovieID, GenreIDs: review.GenreIDs},
	})
	writeJSON(w, http.StatusOK, toReviewResponse(review, &enriched[0]))
}

type updateReviewRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// UpdateReview handles PUT /reviews/{reviewID}.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	err := h.engagement.UpdateReview(r.Context(), principal, reviewID, req.Title, req.Content, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, msgBadRequest)
		case errors.Is(err, errs.ErrForbidden):
			writeError(w, http.StatusForbidden, msgNoPermission)
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgReviewNotFound)
		default:
			h.internal(w, "update review", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteReview handles DELETE /reviews/{reviewID}.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	if err := h.engagement.DeleteReview(r.Context(), principal, reviewID); err != nil {
		switch {
		case errors.Is(err, errs.ErrForbidden):
			writeError(w, http.StatusForbidden, msgNoPermission)
		case errors.Is(err, errs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgReviewNotFound)
		default:
			h.internal(w, "delete review", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Reconciliation ---

// SyncLikedCount handles PUT /users/{uid}/sync-liked-count, self only.
func (h *Handler) SyncLikedCount(w http.ResponseWriter, r *http.Request) {
	h.syncCount(w, r, h.reconciler.SyncLikedCount)
}

// SyncMyTicketsCount handles PUT /users/{uid}/sync-my-tickets-count, self only.
func (h *Handler) SyncMyTicketsCount(w http.ResponseWriter, r *http.Request) {
	h.syncCount(w, r, h.reconciler.SyncMyTicketsCount)
}

func (h *Handler) syncCount(
	w http.ResponseWriter, r *http.Request,
	sync func(ctx context.Context, uid uuid.UUID) (model.CountSync, error),
) {
	principal, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	uid, ok := pathUUID(w, r, "uid")
	if !ok {
		return
	}
	if err := auth.CheckOwnership(principal, uid); err != nil {
		writeError(w, http.StatusForbidden, msgNoPermission)
		return
	}

	result, err := sync(r.Context(), uid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgProfileNotFound)
			return
		}
		h.internal(w, "sync count", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Metadata ---

// MovieMetadata handles GET /movies/{movieID}/metadata. Genre ids may be
// passed as a comma-separated "genres" query parameter.
func (h *Handler) MovieMetadata(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	genreIDs, err := parseGenreIDs(r.URL.Query().Get("genres"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	enriched := h.cache.Enrich(r.Context(), []metadata.MovieRef{{ID: movieID, GenreIDs: genreIDs}})
	writeJSON(w, http.StatusOK, enriched[0])
}

// --- helpers ---

func (h *Handler) internal(w http.ResponseWriter, op string, err error) {
	h.log.Error("operation failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func parseGenreIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type commentResponse struct {
	ID            string  `json:"id"`
	ReviewID      string  `json:"reviewId"`
	AuthorID      string  `json:"authorId"`
	Content       string  `json:"content"`
	DisplayName   string  `json:"displayName"`
	PhotoKey      *string `json:"photoKey"`
	ActivityLevel string  `json:"activityLevel"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:            c.ID.String(),
		ReviewID:      c.ReviewID.String(),
		AuthorID:      c.AuthorID.String(),
		Content:       c.Content,
		DisplayName:   c.DisplayName,
		PhotoKey:      c.PhotoKey,
		ActivityLevel: string(c.ActivityLevel),
		CreatedAt:     c.CreatedAt.Format(timeFormat),
		UpdatedAt:     c.UpdatedAt.Format(timeFormat),
	}
}

type reviewResponse struct {
	ID            string   `json:"id"`
	AuthorID      string   `json:"authorId"`
	MovieID       int64    `json:"movieId"`
	MovieTitle    string   `json:"movieTitle"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Rating        int      `json:"rating"`
	LikeCount     int      `json:"likeCount"`
	CommentsCount int      `json:"commentsCount"`
	Certification *string  `json:"certification"`
	Genres        []string `json:"genres"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func toReviewResponse(r *model.Review, e *metadata.Enriched) reviewResponse {
	return reviewResponse{
		ID:            r.ID.String(),
		AuthorID:      r.AuthorID.String(),
		MovieID:       r.MovieID,
		MovieTitle:    r.MovieTitle,
		Title:         r.Title,
		Content:       r.Content,
		Rating:        r.Rating,
		LikeCount:     r.LikeCount,
		CommentsCount: r.CommentsCount,
		Certification: e.Certification,
		Genres:        e.Genres,
		CreatedAt:     r.CreatedAt.Format(timeFormat),
		UpdatedAt:     r.UpdatedAt.Format(timeFormat),
	}
}
