package controllers

import (
	"net/http"
	"strings"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/models"
	"github.com/cristopher43/gamer-zeta-frontend/services"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	sessions SessionCloser
	admin    *services.AdminService
}

func NewAdminController(sessions SessionCloser, admin *services.AdminService) *AdminController {
	return &AdminController{sessions: sessions, admin: admin}
}

func (a *AdminController) Dashboard(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	dashboard, err := a.admin.Dashboard(c.Request.Context(), token)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListProducts answers every product, optionally filtered by ?search.
func (a *AdminController) ListProducts(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	products, err := a.admin.Products(c.Request.Context(), token, c.Query("search"))
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (a *AdminController) GetProduct(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	product, err := a.admin.Product(c.Request.Context(), token, id)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (a *AdminController) CreateProduct(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage("Name and category are required"))
		return
	}
	if req.Price.IsNegative() {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage("Price cannot be negative"))
		return
	}

	product, err := a.admin.CreateProduct(c.Request.Context(), token, req)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (a *AdminController) UpdateProduct(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage("Price cannot be negative"))
		return
	}

	product, err := a.admin.UpdateProduct(c.Request.Context(), token, id, req)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (a *AdminController) DeleteProduct(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := a.admin.DeleteProduct(c.Request.Context(), token, id); err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AdminController) ListUsers(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	users, err := a.admin.Users(c.Request.Context(), token)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *AdminController) GetUser(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	user, err := a.admin.User(c.Request.Context(), token, id)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *AdminController) CreateUser(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	user, err := a.admin.CreateUser(c.Request.Context(), token, req)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser leaves the password unchanged when the request omits it.
func (a *AdminController) UpdateUser(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	user, err := a.admin.UpdateUser(c.Request.Context(), token, id, req)
	if err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *AdminController) DeleteUser(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := a.admin.DeleteUser(c.Request.Context(), token, id); err != nil {
		respondError(c, a.sessions, err)
		return
	}
	c.Status(http.StatusNoContent)
}
