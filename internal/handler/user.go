package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shoply/catalog-api/internal/middleware"
	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/repository"
)

// ProfileStore is the user surface the profile endpoints need.
type ProfileStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p repository.UpdateProfileParams) (model.User, error)
	Deactivate(ctx context.Context, id uint64) error
}

var _ ProfileStore = (*repository.UserRepo)(nil)

// UserHandler serves the public user lookup and the authenticated profile
// mutation endpoints.
type UserHandler struct {
	Users ProfileStore
}

func NewUserHandler(u ProfileStore) *UserHandler { return &UserHandler{Users: u} }

type updateProfileReq struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	UserName  *string `json:"userName"`
	Gender    *string `json:"gender"`
	DOB       *string `json:"dob"`
	Phone     *string `json:"phone"`
}

// GetByID returns the public shape of any user.
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// UpdateProfile applies a partial update to the authenticated user's
// profile fields.  Absent JSON keys leave the stored value untouched.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, repository.UpdateProfileParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Gender:    req.Gender,
		DOB:       req.DOB,
		Phone:     req.Phone,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// DeleteAccount deactivates the authenticated user.  The row is kept so
// session audit records retain a valid owner; the account simply stops
// authenticating.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete account failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Account deleted successfully"})
}
