//go:build integration

package e2e_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/rester/client"
	"github.com/adamwoolhether/rester/schema"
)

const token = "ghp_e2e"

const manifest = `
routes:
  - path: /user
    methods:
      get:
        responses:
          200: json
          401: json
  - path: /user/repos
    methods:
      get:
        query: [page, per_page]
        responses:
          200: json
      post:
        body: json
        responses:
          201: json
          422: json
  - path: /repos/{owner}/{repo}
    path_params: [owner, repo]
    methods:
      get:
        responses:
          200: json
          404: json
  - path: /repos/{owner}/{repo}/releases/{id}/assets
    path_params: [owner, repo, id]
    methods:
      post:
        query: [name]
        body: multipart
        responses:
          201: json
`

// -------------------------------------------------------------------------
// Types
// -------------------------------------------------------------------------

type user struct {
	Login string `json:"login"`
	ID    int    `json:"id"`
}

type repo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
}

type asset struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

var allRepos = []repo{
	{Name: "alpha", FullName: "octocat/alpha"},
	{Name: "beta", FullName: "octocat/beta", Private: true},
	{Name: "gamma", FullName: "octocat/gamma"},
	{Name: "delta", FullName: "octocat/delta"},
	{Name: "epsilon", FullName: "octocat/epsilon"},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return false
	}
	return true
}

// newGitHub starts an in-process server that behaves like the handful of
// GitHub endpoints the flows touch.
func newGitHub(t *testing.T) string {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, user{Login: "octocat", ID: 583231})
	})

	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		page, err := strconv.Atoi(orDefault(r.URL.Query().Get("page"), "1"))
		if err != nil || page < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad page"})
			return
		}
		perPage, err := strconv.Atoi(orDefault(r.URL.Query().Get("per_page"), "2"))
		if err != nil || perPage < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad per_page"})
			return
		}

		start := min((page-1)*perPage, len(allRepos))
		end := min(start+perPage, len(allRepos))
		writeJSON(w, http.StatusOK, allRepos[start:end])
	})

	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		var in repo
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name is required"})
			return
		}
		in.FullName = "octocat/" + in.Name
		writeJSON(w, http.StatusCreated, in)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		full := r.PathValue("owner") + "/" + r.PathValue("repo")
		for _, rp := range allRepos {
			if rp.FullName == full {
				writeJSON(w, http.StatusOK, rp)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})

	mux.HandleFunc("POST /repos/{owner}/{repo}/releases/{id}/assets", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		f, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		defer f.Close()

		size, err := io.Copy(io.Discard, f)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}

		writeJSON(w, http.StatusCreated, asset{Name: r.URL.Query().Get("name"), Size: int(size)})
	})

	// Always answers with a status the manifest does not declare.
	mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTeapot, map[string]string{"message": "short and stout"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts.URL
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func newClient(t *testing.T, baseURL string, opts ...client.Option) *client.Client {
	t.Helper()

	reg, err := schema.Parse([]byte(manifest))
	if err != nil {
		t.Fatalf("parsing manifest: %v", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	base := []client.Option{
		client.WithSchema(reg),
		client.WithToken(token),
		client.WithLogger(log),
		client.WithUserAgent("rester-e2e/1.0"),
		client.WithHeaders(map[string]string{"Accept": "application/vnd.github+json"}),
	}

	c, err := client.Build(baseURL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return c
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestE2E_CurrentUser(t *testing.T) {
	c := newClient(t, newGitHub(t))

	getUser := client.Endpoint[user]{Method: http.MethodGet, Path: "/user", Code: http.StatusOK}

	u, res, err := getUser.Call(t.Context(), c, client.Operation{})
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if diff := cmp.Diff(user{Login: "octocat", ID: 583231}, u); diff != "" {
		t.Errorf("unexpected user (-exp +got):\n%s", diff)
	}
	if res.Shape != schema.ShapeJSON {
		t.Errorf("exp shape %s, got %s", schema.ShapeJSON, res.Shape)
	}
}

func TestE2E_BadCredentials(t *testing.T) {
	c := newClient(t, newGitHub(t))

	res, err := c.Request(t.Context(), client.Operation{Method: http.MethodGet, Path: "/user", Token: "wrong"})
	if err != nil {
		t.Fatalf("exp non-2xx to be a result, got: %v", err)
	}

	if res.Code != http.StatusUnauthorized {
		t.Errorf("exp code %d, got %d", http.StatusUnauthorized, res.Code)
	}
	if err := res.Expect(http.StatusOK); !errors.Is(err, client.ErrAuthFailure) {
		t.Errorf("exp err %v; got: %v", client.ErrAuthFailure, err)
	}
}

func TestE2E_PaginateRepos(t *testing.T) {
	c := newClient(t, newGitHub(t))

	var got []string
	for page := 1; ; page++ {
		res, err := c.Request(t.Context(), client.Operation{
			Method: http.MethodGet,
			Path:   "/user/repos",
			Query:  client.Pairs("page", page, "per_page", 2),
		})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}

		repos, err := client.Expect[[]repo](res, http.StatusOK)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(repos) == 0 {
			break
		}

		for _, rp := range repos {
			got = append(got, rp.Name)
		}

		if page > len(allRepos) {
			t.Fatal("pagination did not terminate")
		}
	}

	exp := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("unexpected repos (-exp +got):\n%s", diff)
	}
}

func TestE2E_SingleRepo(t *testing.T) {
	c := newClient(t, newGitHub(t))

	getRepo := client.Endpoint[repo]{Method: http.MethodGet, Path: "/repos/{owner}/{repo}", Code: http.StatusOK}

	testCases := map[string]struct {
		name    string
		expCode int
		exp     repo
	}{
		"existing": {name: "beta", expCode: http.StatusOK, exp: repo{Name: "beta", FullName: "octocat/beta", Private: true}},
		"missing":  {name: "zeta", expCode: http.StatusNotFound},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, res, err := getRepo.Call(t.Context(), c, client.Operation{
				PathParams: client.Pairs("owner", "octocat", "repo", tc.name),
			})
			if res == nil {
				t.Fatalf("exp result, got err: %v", err)
			}
			if res.Code != tc.expCode {
				t.Fatalf("exp code %d, got %d", tc.expCode, res.Code)
			}

			if tc.expCode != http.StatusOK {
				if !errors.Is(err, client.ErrUnexpectedStatusCode) {
					t.Errorf("exp err %v; got: %v", client.ErrUnexpectedStatusCode, err)
				}
				if !strings.Contains(string(res.Body.Bytes()), "Not Found") {
					t.Errorf("exp not found body, got %q", res.Body.Bytes())
				}
				return
			}

			if err != nil {
				t.Fatalf("exp nil err, got: %v", err)
			}
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("unexpected repo (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestE2E_CreateRepo(t *testing.T) {
	c := newClient(t, newGitHub(t))

	createRepo := client.Endpoint[repo]{Method: http.MethodPost, Path: "/user/repos", Code: http.StatusCreated}

	got, _, err := createRepo.Call(t.Context(), c, client.Operation{Body: map[string]any{"name": "zeta", "private": true}})
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if diff := cmp.Diff(repo{Name: "zeta", FullName: "octocat/zeta", Private: true}, got); diff != "" {
		t.Errorf("unexpected repo (-exp +got):\n%s", diff)
	}

	_, res, err := createRepo.Call(t.Context(), c, client.Operation{Body: map[string]any{}})
	if !errors.Is(err, client.ErrUnexpectedStatusCode) || res.Code != http.StatusUnprocessableEntity {
		t.Errorf("exp 422 status error, got: %v", err)
	}
}

func TestE2E_UploadAsset(t *testing.T) {
	c := newClient(t, newGitHub(t))

	form := client.Form{}.AddBlob("file", client.Blob{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("release notes")})

	res, err := c.Request(t.Context(), client.Operation{
		Method:     http.MethodPost,
		Path:       "/repos/{owner}/{repo}/releases/{id}/assets",
		PathParams: client.Pairs("owner", "octocat", "repo", "alpha", "id", 1),
		Query:      client.Pairs("name", "notes.txt"),
		Body:       form,
		Multipart:  true,
	})
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	got, err := client.Expect[asset](res, http.StatusCreated)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(asset{Name: "notes.txt", Size: len("release notes")}, got); diff != "" {
		t.Errorf("unexpected asset (-exp +got):\n%s", diff)
	}
}

func TestE2E_SchemaRejects(t *testing.T) {
	c := newClient(t, newGitHub(t))

	testCases := map[string]struct {
		op     client.Operation
		expErr error
	}{
		"undeclared route": {
			op:     client.Operation{Method: http.MethodGet, Path: "/user/emails"},
			expErr: schema.ErrUnknownRoute,
		},
		"undeclared query": {
			op:     client.Operation{Method: http.MethodGet, Path: "/user/repos", Query: client.Pairs("sort", "name")},
			expErr: schema.ErrUnknownParam,
		},
		"body on a get": {
			op:     client.Operation{Method: http.MethodGet, Path: "/user", Body: map[string]string{}},
			expErr: schema.ErrBodyNotAllowed,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Request(t.Context(), tc.op)
			if !errors.Is(err, tc.expErr) {
				t.Errorf("exp err %v; got: %v", tc.expErr, err)
			}
		})
	}
}

func TestE2E_UndeclaredStatusIsBlob(t *testing.T) {
	baseURL := newGitHub(t)

	reg, err := schema.Parse([]byte(manifest + fmt.Sprintf(`
  - path: /user/emails
    methods:
      get:
        responses:
          %d: json
`, http.StatusOK)))
	if err != nil {
		t.Fatal(err)
	}

	c, err := client.Build(baseURL, client.WithSchema(reg))
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Request(t.Context(), client.Operation{Method: http.MethodGet, Path: "/user/emails"})
	if err != nil {
		t.Fatal(err)
	}

	if res.Code != http.StatusTeapot {
		t.Errorf("exp code %d, got %d", http.StatusTeapot, res.Code)
	}
	if res.Body.Kind != client.KindBlob {
		t.Errorf("exp kind %s, got %s", client.KindBlob, res.Body.Kind)
	}
}
