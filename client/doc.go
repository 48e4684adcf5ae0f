// Package client provides the request engine: a configured client that
// renders an [Operation] into one HTTP request, dispatches it and resolves
// the response into a [Result] keyed by status code.
//
// # Building a Client
//
// Use [Build] with a base URL and functional options:
//
//	c, err := client.Build("https://api.github.com",
//		client.WithToken(token),
//		client.WithHeaders(map[string]string{"Accept": "application/vnd.github+json"}),
//		client.WithTimeout(10*time.Second),
//	)
//
// The configuration is fixed once Build returns, so a single Client can
// be shared by any number of goroutines.
//
// # Making Requests
//
// Describe the call with an [Operation] and pass it to [Client.Request]:
//
//	res, err := c.Request(ctx, client.Operation{
//		Method:     http.MethodGet,
//		Path:       "/repos/{owner}/{repo}",
//		PathParams: client.Pairs("owner", "golang", "repo", "go"),
//	})
//
// err is only non-nil when no response was received: an invalid
// operation, a body that cannot be encoded, or a transport failure.
// Every status code, 4xx and 5xx included, comes back as a Result.
// Branch on [Result.Code] before trusting the body:
//
//	switch res.Code {
//	case http.StatusOK:
//		repo, err := client.As[Repo](res)
//	case http.StatusNotFound:
//		...
//	}
//
// [Endpoint] packages the method, path and success type for a route:
//
//	getRepo := client.Endpoint[Repo]{Method: http.MethodGet, Path: "/repos/{owner}/{repo}", Code: http.StatusOK}
//	repo, res, err := getRepo.Call(ctx, c, client.Operation{PathParams: ...})
//
// # Request Rendering
//
// Path parameters replace the first matching {name} placeholder, in the
// order given. Query parameters render as "?k1=v1&k2=v2&", with no
// percent-encoding and the trailing separator kept. Headers merge in a
// fixed order: client defaults, then per-call headers, then
// Content-Type: application/json (unless multipart), then Authorization.
//
// # Response Bodies
//
// The response body is read once and offered to a chain of [Decoder]s:
// JSON, then raw bytes, then UTF-8 text. The first decoder that succeeds
// wins; if none does, the body is [KindNone]. Decode failures are never
// returned as errors.
//
// # Route Schemas
//
// Attach a [github.com/adamwoolhether/rester/schema.Registry] with
// [WithSchema] to reject operations that use undeclared parameters
// before anything is sent, and to resolve bodies for undeclared status
// codes as raw bytes.
package client
