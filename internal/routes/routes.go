package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/handlers"
	"github.com/ram-app/ram-api/internal/middleware"
	"github.com/ram-app/ram-api/internal/models"
)

// NewRouter wires all API routes. Three tiers: public, authenticated
// (session required), and admin (session plus a fresh role check against
// storage).
func NewRouter(
	guard *authz.Guard,
	loginLimiter *middleware.RateLimiter,
	auth *handlers.AuthHandler,
	pets *handlers.PetHandler,
	family *handlers.FamilyHandler,
	providers *handlers.ProviderHandler,
	posts *handlers.PostHandler,
	reports *handlers.ReportHandler,
	notifications *handlers.NotificationHandler,
	admin *handlers.AdminHandler,
) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public endpoints.
	router.Handle("/api/register", loginLimiter.Limit(http.HandlerFunc(auth.Register))).Methods(http.MethodPost)
	router.Handle("/api/login", loginLimiter.Limit(http.HandlerFunc(auth.Login))).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", auth.Logout).Methods(http.MethodPost)

	router.HandleFunc("/api/providers", providers.ListProviders).Methods(http.MethodGet)
	router.HandleFunc("/api/providers/{providerID}", providers.GetProvider).Methods(http.MethodGet)
	router.HandleFunc("/api/posts", posts.ListPosts).Methods(http.MethodGet)
	router.HandleFunc("/api/posts/{slug}", posts.GetPost).Methods(http.MethodGet)

	// Authenticated endpoints.
	authed := router.PathPrefix("/api").Subrouter()
	authed.Use(guard.Authenticate)

	authed.HandleFunc("/me", auth.Me).Methods(http.MethodGet)
	authed.HandleFunc("/me", auth.UpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/me/provider", providers.GetMyProvider).Methods(http.MethodGet)

	authed.HandleFunc("/pets", pets.CreatePet).Methods(http.MethodPost)
	authed.HandleFunc("/pets", pets.ListMyPets).Methods(http.MethodGet)
	authed.HandleFunc("/pets/{petID}", pets.GetPet).Methods(http.MethodGet)
	authed.HandleFunc("/pets/{petID}", pets.UpdatePet).Methods(http.MethodPut)
	authed.HandleFunc("/pets/{petID}", pets.DeletePet).Methods(http.MethodDelete)

	authed.HandleFunc("/pets/{petID}/owners", family.ListOwners).Methods(http.MethodGet)
	authed.HandleFunc("/pets/{petID}/owners/{userID}", family.RemoveOwner).Methods(http.MethodDelete)
	authed.HandleFunc("/pets/{petID}/invites", family.CreateInvite).Methods(http.MethodPost)
	authed.HandleFunc("/pets/{petID}/invites", family.ListInvites).Methods(http.MethodGet)
	authed.HandleFunc("/invites/redeem", family.RedeemInvite).Methods(http.MethodPost)

	authed.HandleFunc("/providers", providers.CreateProvider).Methods(http.MethodPost)
	authed.HandleFunc("/providers/{providerID}", providers.UpdateProvider).Methods(http.MethodPut)

	authed.HandleFunc("/reports", reports.CreateReport).Methods(http.MethodPost)

	authed.HandleFunc("/notifications", notifications.ListNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/{notificationID}/read", notifications.MarkRead).Methods(http.MethodPost)

	// Admin endpoints.
	adminRouter := router.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(guard.Authenticate, guard.RequireRoleMiddleware(models.RoleAdmin))

	adminRouter.HandleFunc("/posts", posts.CreatePost).Methods(http.MethodPost)
	adminRouter.HandleFunc("/posts/{postID}", posts.UpdatePost).Methods(http.MethodPut)
	adminRouter.HandleFunc("/posts/{postID}", posts.DeletePost).Methods(http.MethodDelete)

	adminRouter.HandleFunc("/providers/{providerID}", providers.DeactivateProvider).Methods(http.MethodDelete)

	adminRouter.HandleFunc("/reports", reports.ListOpenReports).Methods(http.MethodGet)
	adminRouter.HandleFunc("/reports/{reportID}", reports.GetReport).Methods(http.MethodGet)
	adminRouter.HandleFunc("/reports/{reportID}/resolve", reports.ResolveReport).Methods(http.MethodPost)

	adminRouter.HandleFunc("/users/{userID}/role", admin.UpdateUserRole).Methods(http.MethodPut)
	adminRouter.HandleFunc("/users/{userID}", admin.DeactivateUser).Methods(http.MethodDelete)

	return router
}
