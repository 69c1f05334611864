package action

// Route es el destino elegido por el Router para un Request.
type Route string

const (
	RouteVerifyEmail       Route = "verify_email"
	RouteResetPassword     Route = "reset_password"
	RouteSignIn            Route = "sign_in"
	RouteMissingParameters Route = "missing_parameters"
	RouteUnrecognized      Route = "unrecognized"
)

// Dispatch es el resultado de rutear un Request.
// Flow es nil para RouteSignIn (se entra por la superficie de completion)
// y para los casos sin acción, donde Outcome ya es final.
type Dispatch struct {
	Route   Route
	Flow    Flow
	Outcome Outcome
}

// Router elige el flow según el modo del Request.
type Router struct {
	client TokenClient
}

// NewRouter crea un Router que instancia flows contra client.
func NewRouter(client TokenClient) *Router {
	return &Router{client: client}
}

// Route clasifica el Request sin instanciar nada.
func (r *Router) Route(req Request) Route {
	switch {
	case req.Mode == "":
		return RouteMissingParameters
	case !req.Mode.Known():
		return RouteUnrecognized
	case req.Token == "":
		return RouteMissingParameters
	}
	switch req.Mode {
	case ModeVerifyEmail:
		return RouteVerifyEmail
	case ModeResetPassword:
		return RouteResetPassword
	default:
		return RouteSignIn
	}
}

// Dispatch instancia exactamente un flow para verificación o reset.
// "Sin acción" y "acción desconocida" devuelven un Outcome Error distinguible de Idle.
func (r *Router) Dispatch(req Request) Dispatch {
	route := r.Route(req)
	d := Dispatch{Route: route}
	switch route {
	case RouteVerifyEmail:
		d.Flow = NewVerifyEmailFlow(r.client, req)
	case RouteResetPassword:
		d.Flow = NewPasswordResetFlow(r.client, req)
	case RouteSignIn:
		d.Outcome = Outcome{State: StateIdle, ContinueTarget: req.ContinueTarget}
		return d
	case RouteUnrecognized:
		d.Outcome = failed(KindUnrecognizedAction)
		return d
	default:
		d.Outcome = failed(KindMissingParameters)
		return d
	}
	d.Outcome = d.Flow.Outcome()
	return d
}
