package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/observability"
	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
	"github.com/aussiebroadwan/shopfront/pkg/httpx"
	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
	"github.com/aussiebroadwan/shopfront/pkg/slogx"

	_ "github.com/aussiebroadwan/shopfront/api/shop" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	files        filestore.FileStore

	AuthService    *service.AuthService
	UserService    *service.UserService
	ProductService *service.ProductService
	CartService    *service.CartService

	// Metrics and Gatherer are optional. With a Gatherer, /metrics is served.
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	// PublicBaseURL is the front-end origin used in emailed links, and
	// AllowedOrigins the Origin header values that may replace it.
	PublicBaseURL  string
	AllowedOrigins []string

	// AvatarDir, when set, is served under filestore.URLPrefix.
	AvatarDir string
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	files filestore.FileStore,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		files:        files,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProducts()
	r.registerCarts()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Shopfront API
//	@version		0.1.0
//	@description	Storefront backend: accounts with email verification and password reset, products and cart items owned by users, and admin user management.
//	@description
//	@description				Session tokens are HS256 JWTs valid for 30 days.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/shopfront
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token, sent raw or as "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Metrics wrap the mux directly so the matched pattern is visible to them.
	httpx.Chain(r.Metrics.HTTPMiddleware(r.Mux), r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authenticated() httpx.Middleware {
	return httpx.VerifyAuth(r.verifier, roleIn(domain.Roles...))
}

func (r *Router) adminOnly() httpx.Middleware {
	return httpx.VerifyAuth(r.verifier, roleIn(domain.RoleAdmin))
}

// roleIn admits a role claim only if it names a known Role in allowed.
func roleIn(allowed ...domain.Role) httpx.RoleCheck {
	return func(claim string) bool {
		role, ok := domain.ParseRole(claim)
		return ok && role.In(allowed...)
	}
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:    r.AuthService,
		Files:          r.files,
		PublicBaseURL:  r.PublicBaseURL,
		AllowedOrigins: r.AllowedOrigins,
	}

	// Credential and token endpoints - strict, keyed by IP + email where
	// the body has one so one address cannot be brute forced from many IPs
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Account updates - moderate, by user
	r.Mux.Handle("PUT /api/auth/profile/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			r.authenticated(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /api/auth/password/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePassword),
			r.authenticated(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/avatar/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateAvatar),
			r.authenticated(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProducts() {
	h := &ProductsHandler{ProductService: r.ProductService}

	public := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.RateLimitByIP(httpx.PublicLimit))
	}
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.authenticated(), httpx.RateLimitByUser(httpx.LenientLimit))
	}

	r.Mux.Handle("GET /api/products", public(h.HandleList))
	r.Mux.Handle("GET /api/products/{id}", public(h.HandleGet))
	r.Mux.Handle("GET /api/users/{id}/products", public(h.HandleListByOwner))
	r.Mux.Handle("POST /api/products", secured(h.HandleCreate))
	r.Mux.Handle("PUT /api/products/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/products/{id}", secured(h.HandleDelete))
}

func (r *Router) registerCarts() {
	h := &CartsHandler{CartService: r.CartService}

	public := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.RateLimitByIP(httpx.PublicLimit))
	}
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.authenticated(), httpx.RateLimitByUser(httpx.LenientLimit))
	}

	r.Mux.Handle("GET /api/carts", public(h.HandleList))
	r.Mux.Handle("GET /api/carts/{id}", public(h.HandleGet))
	r.Mux.Handle("GET /api/users/{id}/carts", public(h.HandleListByOwner))
	r.Mux.Handle("POST /api/carts", secured(h.HandleCreate))
	r.Mux.Handle("PUT /api/carts/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/carts/{id}", secured(h.HandleDelete))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService:    r.UserService,
		Files:          r.files,
		PublicBaseURL:  r.PublicBaseURL,
		AllowedOrigins: r.AllowedOrigins,
	}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.adminOnly(), httpx.RateLimitByUser(httpx.ModerateLimit))
	}

	r.Mux.Handle("POST /api/users", admin(h.HandleCreate))
	r.Mux.Handle("GET /api/users", admin(h.HandleList))
	r.Mux.Handle("GET /api/users/{id}", admin(h.HandleGet))
	r.Mux.Handle("DELETE /api/users/{id}", admin(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", observability.Handler(r.Gatherer))
	}

	if r.AvatarDir != "" {
		fs := http.StripPrefix(filestore.URLPrefix, http.FileServer(http.Dir(r.AvatarDir)))
		r.Mux.Handle("GET "+filestore.URLPrefix, noListing(fs))
	}
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		next.ServeHTTP(w, req)
	})
}
