package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// UserHandler handles profile reads and edits plus the admin-only user
// management operations.
type UserHandler struct {
	directory ports.DirectoryService
	audit     ports.AuditRepository
}

func NewUserHandler(directory ports.DirectoryService, audit ports.AuditRepository) *UserHandler {
	return &UserHandler{directory: directory, audit: audit}
}

type updateUserRequest struct {
	DisplayName string   `json:"display_name" validate:"required,min=2"`
	Bio         string   `json:"bio"`
	City        string   `json:"city"`
	AvatarURL   string   `json:"avatar_url"`
	InterestIDs []string `json:"interest_ids"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user organizer moderator admin"`
}

type blockUserRequest struct {
	Until time.Time `json:"until" validate:"required"`
}

type interestListResponse struct {
	Items []*domain.Interest `json:"items"`
}

type auditListResponse struct {
	Items []*domain.AuditEntry `json:"items"`
	Count int                  `json:"count"`
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.directory.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PUT /v1/users/:id — profile edits only. Role, credentials
// and block state are untouchable through this route.
//
// @Summary      Update a user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Profile fields"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actorID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	targetID := c.Param("id")
	current, err := h.directory.GetUser(c.Request().Context(), targetID)
	if err != nil {
		return err
	}

	current.DisplayName = req.DisplayName
	current.Bio = req.Bio
	current.City = req.City
	current.AvatarURL = req.AvatarURL
	current.InterestIDs = req.InterestIDs

	if err := h.directory.UpdateUser(c.Request().Context(), actorID, current); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, current)
}

// ChangeRole handles PUT /v1/admin/users/:id/role.
//
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/users/{id}/role [put]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	adminID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.directory.ChangeUserRole(c.Request().Context(), adminID, c.Param("id"), domain.Role(req.Role), c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role updated"})
}

// Block handles POST /v1/admin/users/:id/block.
//
// @Summary      Suspend a user until a given time
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User id"
// @Param        body  body      blockUserRequest  true  "Suspension end"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/users/{id}/block [post]
func (h *UserHandler) Block(c echo.Context) error {
	adminID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req blockUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.directory.BlockUser(c.Request().Context(), adminID, c.Param("id"), req.Until, c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user blocked"})
}

// Unblock handles DELETE /v1/admin/users/:id/block.
//
// @Summary      Lift a user suspension
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/users/{id}/block [delete]
func (h *UserHandler) Unblock(c echo.Context) error {
	adminID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.directory.UnblockUser(c.Request().Context(), adminID, c.Param("id"), c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user unblocked"})
}

// ListInterests handles GET /v1/interests.
//
// @Summary      List interest categories
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  interestListResponse
// @Router       /v1/interests [get]
func (h *UserHandler) ListInterests(c echo.Context) error {
	interests, err := h.directory.ListInterests(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interestListResponse{Items: interests})
}

// AuditLog handles GET /v1/admin/audit — the most recent privileged actions,
// newest first.
//
// @Summary      Read the audit log
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max entries to return (default 50)"
// @Success      200    {object}  auditListResponse
// @Failure      403    {object}  map[string]string
// @Router       /v1/admin/audit [get]
func (h *UserHandler) AuditLog(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.audit.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, auditListResponse{Items: entries, Count: len(entries)})
}
