package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteCallback   = "/callback"

	// Identity provider account settings
	RouteAccount = "/account"

	// API Routes
	RouteAPIDashboard = "/api/dashboard"
	RouteAPIEvents    = "/api/events"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
