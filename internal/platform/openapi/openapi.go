package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bidan/registry/internal/platform/auth"
)

// Generator builds an OpenAPI 3.0 document from the routes registered on
// an echo instance.
type Generator struct {
	routes  func() []*echo.Route
	version string
	baseURL string
}

// NewGenerator reads routes from e each time the document is generated.
func NewGenerator(e *echo.Echo, version, baseURL string) *Generator {
	return &Generator{routes: e.Routes, version: version, baseURL: baseURL}
}

var documentedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// GenerateSpec produces the OpenAPI 3.0 document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	routes := g.routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	paths := make(map[string]interface{})
	for _, r := range routes {
		if !documentedMethods[r.Method] || selfPaths[r.Path] || strings.HasSuffix(r.Path, "*") {
			continue
		}
		path, params := openAPIPath(r.Path)
		item, _ := paths[path].(map[string]interface{})
		if item == nil {
			item = make(map[string]interface{})
			paths[path] = item
		}
		item[strings.ToLower(r.Method)] = g.buildOperation(r, params)
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Clinic Visit Registry API",
			"version":     g.version,
			"description": "Patient visit register with date and age normalisation",
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": componentSchemas(),
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]interface{}{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
	}
}

// openAPIPath turns "/visits/:row" into "/visits/{row}" and returns the
// path parameter names.
func openAPIPath(echoPath string) (string, []string) {
	segments := strings.Split(echoPath, "/")
	var params []string
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			params = append(params, s[1:])
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/"), params
}

func (g *Generator) buildOperation(r *echo.Route, pathParams []string) map[string]interface{} {
	doc := operationDocs[r.Method+" "+r.Path]

	parameters := make([]map[string]interface{}, 0, len(pathParams)+len(doc.Query))
	for _, p := range pathParams {
		parameters = append(parameters, map[string]interface{}{
			"name": p, "in": "path", "required": true, "schema": paramSchema(p),
		})
	}
	for _, q := range doc.Query {
		parameters = append(parameters, map[string]interface{}{
			"name": q.Name, "in": "query", "description": q.Description, "schema": map[string]string{"type": q.Type},
		})
	}

	op := map[string]interface{}{
		"summary":     doc.Summary,
		"operationId": operationID(r),
		"tags":        []string{tagOf(r.Path)},
		"parameters":  parameters,
		"responses":   buildResponses(r.Method, doc),
	}
	if doc.Summary == "" {
		op["summary"] = r.Method + " " + r.Path
	}
	if doc.Body != "" {
		op["requestBody"] = map[string]interface{}{
			"required": true,
			"content": map[string]interface{}{
				echo.MIMEApplicationJSON: map[string]interface{}{
					"schema": map[string]string{"$ref": "#/components/schemas/" + doc.Body},
				},
			},
		}
	}
	if !publicPath(r.Path) {
		op["security"] = []map[string][]string{{"bearerAuth": {}}}
	}
	return op
}

func paramSchema(name string) map[string]interface{} {
	if name == "row" {
		return map[string]interface{}{"type": "integer", "minimum": 2}
	}
	return map[string]interface{}{"type": "string"}
}

func buildResponses(method string, doc operationDoc) map[string]interface{} {
	code := "200"
	switch {
	case method == http.MethodPost && doc.Created:
		code = "201"
	case method == http.MethodDelete:
		code = "204"
	}

	ok := map[string]interface{}{"description": "Success"}
	switch {
	case doc.Content != "":
		ok["content"] = map[string]interface{}{doc.Content: map[string]interface{}{}}
	case doc.Response != "":
		ok["content"] = map[string]interface{}{
			echo.MIMEApplicationJSON: map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/" + doc.Response},
			},
		}
	}

	errorRef := map[string]interface{}{
		"description": "Error",
		"content": map[string]interface{}{
			echo.MIMEApplicationJSON: map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/Error"},
			},
		},
	}
	return map[string]interface{}{code: ok, "default": errorRef}
}

// operationID derives a stable id, e.g. "get_visits_row".
func operationID(r *echo.Route) string {
	var parts []string
	for _, s := range strings.Split(strings.TrimPrefix(r.Path, "/api/v1"), "/") {
		s = strings.TrimPrefix(s, ":")
		s = strings.NewReplacer("-", "_", ".", "_").Replace(s)
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(r.Method) + "_" + strings.Join(parts, "_")
}

// tagOf groups routes by their first segment below /api/v1.
func tagOf(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if rest == path {
		return "system"
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func publicPath(path string) bool {
	return auth.DefaultPublicRoutes.Public(path)
}

// Handler serves the generated document.
func (g *Generator) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	}
}

// ── Swagger UI ──────────────────────────────────────────────────────────

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Clinic Visit Registry API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [
        SwaggerUIBundle.presets.apis,
        SwaggerUIBundle.SwaggerUIStandalonePreset
      ],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

var selfPaths = map[string]bool{"/openapi.json": true, "/docs": true}

// RegisterRoutes registers the OpenAPI endpoints.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	e.GET("/openapi.json", g.Handler())
	e.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
