package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/handler"
	mw "github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, company scoping, and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Company-scoped routes
		r.Route("/companies/{cid}", func(r chi.Router) {
			r.Use(mw.RequireCompany)

			// Tables (floor plan management is admin work; waiters read)
			tableHandler := handler.NewTableHandler(queries)
			r.Route("/tables", func(r chi.Router) {
				r.Get("/", tableHandler.List)
				r.Get("/{id}", tableHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleAdmin))
					r.Post("/", tableHandler.Create)
					r.Put("/{id}", tableHandler.Update)
					r.Delete("/{id}", tableHandler.Delete)
				})
				r.Patch("/{id}/status", tableHandler.UpdateStatus)
			})

			// Products (menu management is admin work)
			productHandler := handler.NewProductHandler(queries)
			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.List)
				r.Get("/{id}", productHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleAdmin))
					r.Post("/", productHandler.Create)
					r.Put("/{id}", productHandler.Update)
					r.Delete("/{id}", productHandler.Delete)
				})
			})

			// Customers
			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterRoutes)

			// Orders
			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, queries, newOrderStore)
			orderHandler := handler.NewOrderHandler(orderService, queries)
			r.Route("/orders", orderHandler.RegisterRoutes)
		})
	})

	return r
}
