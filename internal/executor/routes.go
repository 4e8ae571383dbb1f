package executor

import "net/http"

// Route maps a mutation name to a backend endpoint. The queued payload
// is sent verbatim as the JSON request body.
type Route struct {
	Method string
	Path   string
}

// DefaultRoutes returns the mutation registry for the inventory backend.
func DefaultRoutes() map[string]Route {
	return map[string]Route{
		"session.addCount": {Method: http.MethodPost, Path: "/api/v1/sessions/counts"},
		"session.close":    {Method: http.MethodPost, Path: "/api/v1/sessions/close"},
		"inventory.adjust": {Method: http.MethodPost, Path: "/api/v1/inventory/adjustments"},
		"parlevel.set":     {Method: http.MethodPut, Path: "/api/v1/par-levels"},
		"posmap.link":      {Method: http.MethodPost, Path: "/api/v1/pos/mappings"},
		"artsale.record":   {Method: http.MethodPost, Path: "/api/v1/art-sales"},
	}
}
