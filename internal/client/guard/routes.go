package guard

import "github.com/dmitrijs2005/gophauth/internal/client/services"

const (
	RouteHome           = "home"
	RouteLogin          = "login"
	RouteRegister       = "register"
	RouteActivate       = "activate"
	RouteValidateTOTP   = "validate-totp"
	RouteValidateBackup = "validate-backup"
	RouteProfile        = "profile"
	RouteUserManagement = "user-management"
	RouteAbout          = "about"
	RouteStatus         = "status"
	RouteLogout         = "logout"
	RouteHelp           = "help"
	RouteExit           = "exit"
)

type Route struct {
	Name        string
	Requirement Requirement
}

var routes = map[string]Route{
	RouteHome:           {RouteHome, RequiresAuth},
	RouteLogin:          {RouteLogin, GuestOnly},
	RouteRegister:       {RouteRegister, GuestOnly},
	RouteActivate:       {RouteActivate, GuestOnly},
	RouteValidateTOTP:   {RouteValidateTOTP, Public},
	RouteValidateBackup: {RouteValidateBackup, Public},
	RouteProfile:        {RouteProfile, RequiresAuth},
	RouteUserManagement: {RouteUserManagement, RequiresAuth},
	RouteAbout:          {RouteAbout, RequiresAuth},
	RouteStatus:         {RouteStatus, Public},
	RouteLogout:         {RouteLogout, Public},
	RouteHelp:           {RouteHelp, Public},
	RouteExit:           {RouteExit, Public},
}

// Lookup returns the declared route. Unknown names are Public.
func Lookup(name string) (Route, bool) {
	r, ok := routes[name]
	if !ok {
		return Route{Name: name, Requirement: Public}, false
	}
	return r, true
}

// Check evaluates the named route against state.
func Check(name string, state services.State) Decision {
	r, _ := Lookup(name)
	return Evaluate(r.Requirement, state)
}
