package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-management-api/internal/application"
	"github.com/oksasatya/user-management-api/internal/domain/apperror"
	"github.com/oksasatya/user-management-api/internal/domain/entity"
	"github.com/oksasatya/user-management-api/internal/domain/repository"
	"github.com/oksasatya/user-management-api/pkg/response"
)

type UserHandler struct {
	Svc             *userapp.Service
	Logger          *logrus.Logger
	DefaultPageSize int
	MaxPageSize     int
	Debug           bool
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, defaultPageSize, maxPageSize int, debug bool) *UserHandler {
	return &UserHandler{
		Svc:             svc,
		Logger:          logger,
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
		Debug:           debug,
	}
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	writeError(c, h.Logger, h.Debug, err)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindingError(err))
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user created", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindingError(err))
		return
	}
	lq, err := h.listQuery(q)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.Svc.ListUsers(c.Request.Context(), lq)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(page.Items), "users", page.Meta)
}

// listQuery applies defaults (page 1, newest first) and range checks.
func (h *UserHandler) listQuery(q listUsersQuery) (userapp.ListQuery, error) {
	verr := &apperror.ValidationError{}
	out := userapp.ListQuery{
		Page:     1,
		PageSize: h.DefaultPageSize,
		SortBy:   repository.SortCreatedAt,
		SortDesc: true,
		Filter: repository.UserFilter{
			Username:  q.Username,
			Email:     q.Email,
			FirstName: q.FirstName,
			LastName:  q.LastName,
			Active:    q.Active,
			Search:    q.Search,
		},
	}
	if q.Page != nil {
		if *q.Page < 1 {
			verr.Add("page", "must be greater than or equal to 1")
		}
		out.Page = *q.Page
	}
	if q.PageSize != nil {
		if *q.PageSize < 1 || *q.PageSize > h.MaxPageSize {
			verr.Add("page_size", fmt.Sprintf("must be between 1 and %d", h.MaxPageSize))
		}
		out.PageSize = *q.PageSize
	}
	if q.Role != "" {
		role := entity.Role(q.Role)
		out.Filter.Role = &role
	}
	if q.SortBy != "" {
		out.SortBy = q.SortBy
	}
	if q.SortDesc != nil {
		out.SortDesc = *q.SortDesc
	}
	if err := verr.OrNil(); err != nil {
		return userapp.ListQuery{}, err
	}
	return out, nil
}

func (h *UserHandler) Statistics(c *gin.Context) {
	st, err := h.Svc.GetStatistics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st, "user statistics", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	var q searchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindingError(err))
		return
	}
	users, err := h.Svc.SearchUsers(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "search results", nil)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.Svc.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

func (h *UserHandler) GetByEmail(c *gin.Context) {
	u, err := h.Svc.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// Update serves both PUT and PATCH; absent fields are left unchanged.
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindingError(err))
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *UserHandler) Activate(c *gin.Context) {
	u, err := h.Svc.ActivateUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user activated", nil)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	u, err := h.Svc.DeactivateUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user deactivated", nil)
}
