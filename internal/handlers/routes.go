package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/services/auth"
	"github.com/hasakeplay/cms-backend/internal/services/catalog"
	"github.com/hasakeplay/cms-backend/internal/services/contact"
	"github.com/hasakeplay/cms-backend/internal/services/news"
	"github.com/hasakeplay/cms-backend/internal/services/product"
	"github.com/hasakeplay/cms-backend/internal/services/project"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps is everything the router needs. A nil service leaves its routes
// unmounted.
type Deps struct {
	APIBase     string
	CSRFEnabled bool
	Cookies     CookieConfig

	Auth     auth.Service
	Products product.Service
	Catalogs catalog.Service
	News     news.Service
	Projects project.Service
	Contacts contact.Service
	Media    utils.MediaStore
	System   *SystemHandler

	// per-IP limits; zero values fall back to the defaults below
	LoginLimiter   *middleware.RateLimiter
	ContactLimiter *middleware.RateLimiter
}

func SetupRoutes(router *gin.Engine, d Deps) {
	logrus.Info("Setting up routes...")

	if d.APIBase == "" {
		d.APIBase = "/api/v1"
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = middleware.NewRateLimiter("login", 10, time.Minute)
	}
	if d.ContactLimiter == nil {
		d.ContactLimiter = middleware.NewRateLimiter("contact", 5, 10*time.Minute)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Server is running!", "status": "ok"})
	})
	if d.System != nil {
		router.GET("/healthz", d.System.Health)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.AdminAuth(d.Auth)
	api := router.Group(d.APIBase)
	api.Use(middleware.CSRF(d.CSRFEnabled))

	// Auth Routes
	authHandler := NewAuthHandler(d.Auth, d.Cookies)
	authGroup := api.Group("/auth")
	{
		authGroup.GET("/csrf", authHandler.CSRFToken)
		authGroup.POST("/login", d.LoginLimiter.Middleware(), authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", admin, authHandler.Me)
	}

	// Product Tree Routes
	if d.Products != nil {
		productHandler := NewProductHandler(d.Products)
		products := api.Group("/products")
		{
			products.GET("/root", productHandler.ListRoot)
			products.GET("/children", productHandler.ListChildren)
			products.GET("/node", productHandler.GetNode)
			products.GET("/search", productHandler.Search)
			products.GET("", productHandler.List)
			products.GET("/:slug", productHandler.GetBySlug)

			products.POST("", admin, productHandler.CreateProduct)
			products.PUT("/:id", admin, productHandler.UpdateProduct)
			products.DELETE("/:id", admin, productHandler.DeleteProduct)
			products.POST("/:id/repair", admin, productHandler.RepairProduct)
		}
	}

	// Catalog Routes
	if d.Catalogs != nil {
		catalogHandler := NewCatalogHandler(d.Catalogs)
		catalogs := api.Group("/catalogs")
		{
			catalogs.GET("", catalogHandler.ListPublic)
			catalogs.GET("/list", admin, catalogHandler.ListAdmin)
			catalogs.GET("/:slug/open", catalogHandler.Open)
			catalogs.GET("/:slug", catalogHandler.GetBySlug)

			catalogs.POST("", admin, catalogHandler.Create)
			catalogs.POST("/upload", admin, catalogHandler.Upload)
			catalogs.PUT("/:id/file", admin, catalogHandler.ReplaceFile)
			catalogs.PUT("/:id", admin, catalogHandler.Update)
			catalogs.DELETE("/:id", admin, catalogHandler.Delete)
		}
	}

	// News Routes
	if d.News != nil {
		newsHandler := NewNewsHandler(d.News)
		newsGroup := api.Group("/news")
		{
			newsGroup.GET("", newsHandler.ListPublic)
			newsGroup.GET("/list", admin, newsHandler.ListAdmin)
			newsGroup.GET("/:slug", newsHandler.GetBySlug)

			newsGroup.POST("", admin, newsHandler.Create)
			newsGroup.PUT("/:id", admin, newsHandler.Update)
			newsGroup.DELETE("/:id", admin, newsHandler.Delete)
		}
	}

	// Project Routes
	if d.Projects != nil {
		projectHandler := NewProjectHandler(d.Projects)
		projects := api.Group("/projects")
		{
			projects.GET("", projectHandler.ListPublic)
			projects.GET("/by-slug/:slug", projectHandler.GetBySlug)
			projects.GET("/slug/check", admin, projectHandler.CheckSlug)
			projects.GET("/slugify", admin, projectHandler.PreviewSlug)
			projects.POST("/:id/slug/regenerate", admin, projectHandler.RegenerateSlug)
			projects.POST("/slugs/backfill", admin, projectHandler.BackfillSlugs)
			projects.GET("/list", admin, projectHandler.ListAdmin)
			projects.GET("/:id", projectHandler.GetOne)

			projects.POST("", admin, projectHandler.Create)
			projects.PUT("/:id", admin, projectHandler.Update)
			projects.DELETE("/:id", admin, projectHandler.Delete)
		}
	}

	// Contact Routes
	if d.Contacts != nil {
		contactHandler := NewContactHandler(d.Contacts)
		contacts := api.Group("/contacts")
		{
			contacts.POST("", d.ContactLimiter.Middleware(), contactHandler.Submit)
			contacts.GET("", admin, contactHandler.List)
			contacts.GET("/:id", admin, contactHandler.GetOne)
		}
	}

	// Media Routes
	if d.Media != nil {
		uploadHandler := NewUploadHandler(d.Media)
		uploads := api.Group("/upload", admin)
		{
			uploads.POST("/single", uploadHandler.Single)
			uploads.POST("/multi", uploadHandler.Multi)
		}
	}

	// Diagnostics
	if d.System != nil {
		debug := router.Group("/debug", admin)
		{
			debug.GET("/auth-config", d.System.AuthConfig)
			debug.GET("/status", d.System.DebugStatus)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Route not found"))
	})
}
