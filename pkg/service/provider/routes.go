package provider

import (
	"os"
	"sort"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

const modelIDPrefix = "model-"

// Route maps a model ID to the provider serving it. APIModel, when set, is
// the name the provider's API expects for that model.
type Route struct {
	Model    string             `toml:"model"`
	Provider types.ProviderKind `toml:"provider"`
	APIModel string             `toml:"api_model"`
}

// Routes is an immutable model routing table. Use NewRoutes, DefaultRoutes
// or LoadRoutes to build one.
type Routes struct {
	table    map[string]Route
	fallback types.ProviderKind
}

// NewRoutes builds a table from routes. Later entries override earlier ones
// for the same model. Unknown models resolve to fallback.
func NewRoutes(routes []Route, fallback types.ProviderKind) (*Routes, error) {
	if fallback == "" {
		fallback = types.ProviderEcho
	}
	if !fallback.IsValid() {
		return nil, goerr.New("invalid fallback provider", goerr.V("provider", fallback))
	}

	table := make(map[string]Route, len(routes))
	for _, r := range routes {
		key := NormalizeModelID(r.Model)
		if key == "" {
			return nil, goerr.New("route model is required", goerr.V("provider", r.Provider))
		}
		kind, err := parseProvider(string(r.Provider))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid route provider", goerr.V("model", r.Model))
		}
		r.Provider = kind
		table[key] = r
	}

	return &Routes{table: table, fallback: fallback}, nil
}

// DefaultRoutes returns the built-in table
func DefaultRoutes() *Routes {
	routes, err := NewRoutes(defaultRoutes, types.ProviderEcho)
	if err != nil {
		panic("default routes are invalid: " + err.Error())
	}
	return routes
}

var defaultRoutes = []Route{
	{Model: "gpt-4", Provider: types.ProviderOpenAI},
	{Model: "gpt-4-turbo", Provider: types.ProviderOpenAI},
	{Model: "gpt-4o", Provider: types.ProviderOpenAI},
	{Model: "gpt-3.5-turbo", Provider: types.ProviderOpenAI},

	{Model: "claude-3-opus", Provider: types.ProviderAnthropic, APIModel: "claude-3-opus-20240229"},
	{Model: "claude-3-sonnet", Provider: types.ProviderAnthropic, APIModel: "claude-3-sonnet-20240229"},
	{Model: "claude-3-haiku", Provider: types.ProviderAnthropic, APIModel: "claude-3-haiku-20240307"},
	{Model: "claude-3.5-sonnet", Provider: types.ProviderAnthropic, APIModel: "claude-3-5-sonnet-20241022"},

	{Model: "gemini-2.0-flash", Provider: types.ProviderGemini},
	{Model: "gemini-2.0-flash-exp", Provider: types.ProviderGemini},
	{Model: "gemini-1.5-flash", Provider: types.ProviderGemini},
	{Model: "gemini-1.5-pro", Provider: types.ProviderGemini},

	{Model: "echo", Provider: types.ProviderEcho},
}

type routesFile struct {
	Fallback string  `toml:"fallback"`
	Route    []Route `toml:"route"`
}

// LoadRoutes reads a TOML route table. Entries in the file are added on top
// of the built-in defaults.
//
//	fallback = "echo"
//
//	[[route]]
//	model = "gpt-4o-mini"
//	provider = "openai"
func LoadRoutes(path string) (*Routes, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read route file", goerr.V("path", path))
	}

	var file routesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse route file", goerr.V("path", path))
	}

	fallback := types.ProviderEcho
	if file.Fallback != "" {
		kind, err := parseProvider(file.Fallback)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid fallback provider", goerr.V("path", path))
		}
		fallback = kind
	}

	all := make([]Route, 0, len(defaultRoutes)+len(file.Route))
	all = append(all, defaultRoutes...)
	all = append(all, file.Route...)

	routes, err := NewRoutes(all, fallback)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid route file", goerr.V("path", path))
	}
	return routes, nil
}

// parseProvider accepts "google" as an alias of gemini
func parseProvider(s string) (types.ProviderKind, error) {
	if strings.EqualFold(strings.TrimSpace(s), "google") {
		return types.ProviderGemini, nil
	}
	return types.ParseProviderKind(s)
}

// NormalizeModelID strips the "model-" prefix and lowercases the ID
func NormalizeModelID(modelID string) string {
	id := strings.TrimSpace(modelID)
	if len(id) >= len(modelIDPrefix) && strings.EqualFold(id[:len(modelIDPrefix)], modelIDPrefix) {
		id = id[len(modelIDPrefix):]
	}
	return strings.ToLower(id)
}

// Resolve returns the route for modelID. Unknown models get the fallback
// provider with the normalized ID as the API model name.
func (r *Routes) Resolve(modelID string) Route {
	key := NormalizeModelID(modelID)
	route, ok := r.table[key]
	if !ok {
		route = Route{Model: key, Provider: r.fallback}
	}
	if route.APIModel == "" {
		route.APIModel = route.Model
	}
	return route
}

// Fallback returns the provider used for unknown models
func (r *Routes) Fallback() types.ProviderKind {
	return r.fallback
}

// Models returns every route ordered by model ID
func (r *Routes) Models() []Route {
	result := make([]Route, 0, len(r.table))
	for _, route := range r.table {
		result = append(result, route)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Model < result[j].Model
	})
	return result
}
