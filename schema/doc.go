// Package schema describes the routes a remote API accepts: for every
// (path, method) pair, the path, query and header parameters it takes,
// whether it accepts a request body, and the shape of the response body
// for each status code it declares.
//
// A [Registry] is built once, either in code with [New] or from a route
// manifest with [Parse], and then attached to a client. The client checks
// every outgoing operation against it before touching the network:
//
//	reg, err := schema.New(schema.Route{
//		Path:       "/repos/{owner}/{repo}",
//		PathParams: []string{"owner", "repo"},
//		Methods: map[string]schema.Operation{
//			http.MethodGet: {
//				Responses: map[int]schema.Shape{
//					http.StatusOK:       schema.ShapeJSON,
//					http.StatusNotFound: schema.ShapeJSON,
//				},
//			},
//		},
//	})
//
// # Manifests
//
// [Parse] reads the same information from YAML (or JSON, which is valid
// YAML):
//
//	routes:
//	  - path: /user/repos
//	    methods:
//	      get:
//	        query: [page, per_page]
//	        responses:
//	          200: json
//
// A Registry never changes after construction and is safe for
// concurrent use.
package schema
