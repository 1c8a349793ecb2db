package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth     = RouteApiV1 + "/auth"
	RouteLogin    = RouteAuth + "/login"
	RouteRegister = RouteAuth + "/register"
	RouteLogout   = RouteAuth + "/logout"
	RouteToken    = RouteAuth + "/token"
	RouteTokens   = RouteAuth + "/tokens"
	RouteTokenOne = RouteToken + "/:name"

	// files
	RouteFile     = RouteApiV1 + "/file"
	RouteFileID   = RouteFile + "/:fid"
	RouteFileName = RouteFileID + "/:name"
	RouteFileInfo = RouteFileName + "/info"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
