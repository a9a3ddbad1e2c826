package profile

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"student_connect/internal/http_server/middleware/identity"
	resp "student_connect/internal/lib/api/response"
	sl "student_connect/internal/lib/logger"
	"student_connect/internal/models"
	profileService "student_connect/internal/profile"
)

type UpdateRequest struct {
	FullName    *string           `json:"fullName"`
	School      *string           `json:"school"`
	Course      *string           `json:"course"`
	Year        *string           `json:"year"`
	Country     *string           `json:"country"`
	Bio         *string           `json:"bio"`
	Interests   []string          `json:"interests"`
	AvatarURL   *string           `json:"avatar"`
	SocialLinks map[string]string `json:"socialLinks"`
}

type Response struct {
	resp.Response
	Data models.PublicAccount `json:"data"`
}

type DirectoryResponse struct {
	resp.Response
	Data DirectoryData `json:"data"`
}

type DirectoryData struct {
	Profiles []models.PublicAccount `json:"profiles"`
}

// Get serves GET /api/profile/me for the authenticated account.
func Get(log *slog.Logger, svc *profileService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.Get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := identity.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Not authorized, no token provided"))

			return
		}

		p, err := svc.Get(r.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, profileService.ErrAccountNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to get profile", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(""),
			Data:     p,
		})
	}
}

// Update serves PUT /api/profile/update. Absent fields are left untouched.
func Update(log *slog.Logger, svc *profileService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := identity.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Not authorized, no token provided"))

			return
		}

		var req UpdateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		p, err := svc.Patch(r.Context(), claims.AccountID, profileService.Update{
			FullName:    req.FullName,
			School:      req.School,
			Course:      req.Course,
			Year:        req.Year,
			Country:     req.Country,
			Bio:         req.Bio,
			Interests:   req.Interests,
			AvatarURL:   req.AvatarURL,
			SocialLinks: req.SocialLinks,
		})
		if err != nil {
			if errors.Is(err, profileService.ErrAccountNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to update profile", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK("Profile updated"),
			Data:     p,
		})
	}
}

// Directory serves GET /api/profile/directory with optional school and
// course query filters.
func Directory(log *slog.Logger, svc *profileService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.Directory"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if _, ok := identity.FromContext(r.Context()); !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Not authorized, no token provided"))

			return
		}

		profiles, err := svc.Directory(
			r.Context(),
			r.URL.Query().Get("school"),
			r.URL.Query().Get("course"),
		)
		if err != nil {
			log.Error("failed to list directory", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, DirectoryResponse{
			Response: resp.OK(""),
			Data:     DirectoryData{Profiles: profiles},
		})
	}
}
