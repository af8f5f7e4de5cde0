package openapi

type queryParam struct {
	Name        string
	Type        string
	Description string
}

// operationDoc describes one route. Routes without an entry are still
// documented, with a generated summary.
type operationDoc struct {
	Summary  string
	Query    []queryParam
	Body     string
	Response string
	// Content overrides the JSON response with another media type.
	Content string
	Created bool
}

var (
	langParam   = queryParam{"lang", "string", "Response language (id, en); overrides Accept-Language"}
	searchParam = queryParam{"q", "string", "Case and accent insensitive search"}
)

var operationDocs = map[string]operationDoc{
	"GET /api/v1/visits": {
		Summary: "List visits",
		Query: []queryParam{
			searchParam,
			{"today_only", "boolean", "Only visits dated today"},
			{"limit", "integer", "Page size"},
			{"offset", "integer", "Start index"},
			{"page", "integer", "1-based page, used when offset is absent"},
			langParam,
		},
		Response: "VisitPage",
	},
	"POST /api/v1/visits": {
		Summary:  "Register a visit",
		Body:     "VisitInput",
		Response: "VisitView",
		Created:  true,
	},
	"GET /api/v1/visits/search": {
		Summary:  "Search by registration number",
		Query:    []queryParam{{"reg", "string", "Registration number fragment"}, langParam},
		Response: "SearchResult",
	},
	"GET /api/v1/visits/export": {
		Summary: "Download every visit as an XLSX workbook",
		Content: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	},
	"GET /api/v1/visits/:row":    {Summary: "Get a visit", Query: []queryParam{langParam}, Response: "VisitView"},
	"PUT /api/v1/visits/:row":    {Summary: "Replace a visit", Body: "VisitInput", Response: "VisitView"},
	"DELETE /api/v1/visits/:row": {Summary: "Delete a visit"},
	"GET /api/v1/service-status": {
		Summary: "Today's service status",
		Query: []queryParam{
			{"show", "string", "all, served or not-served"},
			searchParam,
			langParam,
		},
		Response: "ServiceStatus",
	},
	"GET /api/v1/service-status/unserved": {Summary: "Today's unserved visits", Query: []queryParam{langParam}, Response: "Unserved"},
	"POST /api/v1/service-status/:row/serve": {
		Summary:  "Record therapy and mark a visit served",
		Body:     "ServeRequest",
		Response: "VisitView",
	},
	"GET /api/v1/dashboard": {
		Summary:  "Dashboard for a period",
		Query:    []queryParam{{"period", "string", "today, week, month, year or YYYY-MM"}, langParam},
		Response: "Dashboard",
	},
	"GET /api/v1/dashboard/month/:yearMonth": {Summary: "Dashboard for a calendar month (YYYY-MM)", Query: []queryParam{langParam}, Response: "Dashboard"},
	"GET /api/v1/normalize/date": {
		Summary:  "Normalise a date",
		Query:    []queryParam{{"raw", "string", "Date as typed"}, langParam},
		Response: "DateResult",
	},
	"GET /api/v1/normalize/age": {
		Summary:  "Normalise an age",
		Query:    []queryParam{{"raw", "string", "Age as typed"}, langParam},
		Response: "AgeResult",
	},
	"GET /api/v1/live": {
		Summary: "WebSocket feed of visit and reminder events",
		Query:   []queryParam{{"topics", "string", "Comma separated topics: visits, reminder"}},
	},
	"POST /api/v1/sandbox/seed": {
		Summary:  "Append synthetic visits (development only)",
		Body:     "SeedConfig",
		Response: "SeedResult",
		Created:  true,
	},
	"GET /health":    {Summary: "Liveness"},
	"GET /health/db": {Summary: "Database health and pool statistics"},
	"GET /metrics":   {Summary: "Prometheus metrics", Content: "text/plain"},
}

func str() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func integer() map[string]interface{} {
	return map[string]interface{}{"type": "integer"}
}

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func arrayOf(name string) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": ref(name)}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func visitInputProperties() map[string]interface{} {
	return map[string]interface{}{
		"registration_number": str(),
		"visit_date":          map[string]interface{}{"type": "string", "description": "Any readable date; stored as YYYY-MM-DD. Empty means today."},
		"full_name":           str(),
		"guardian":            str(),
		"address":             str(),
		"age":                 map[string]interface{}{"type": "string", "example": "9 th 6 bl"},
		"complaint":           str(),
		"therapy":             map[string]interface{}{"type": "string", "description": "Non-empty once the patient has been served"},
		"notes":               str(),
	}
}

func componentSchemas() map[string]interface{} {
	view := visitInputProperties()
	for k, v := range map[string]interface{}{
		"row":                integer(),
		"id":                 str(),
		"served_at":          map[string]interface{}{"type": "string", "format": "date-time"},
		"visit_date_input":   str(),
		"visit_date_display": str(),
		"age_display":        str(),
		"age_category":       str(),
		"age_category_label": str(),
		"status":             map[string]interface{}{"type": "string", "enum": []string{"served", "not-served"}},
		"status_label":       str(),
	} {
		view[k] = v
	}

	return map[string]interface{}{
		"VisitInput": object(visitInputProperties(), "registration_number", "full_name", "address", "age"),
		"VisitView":  object(view),
		"VisitPage": object(map[string]interface{}{
			"data":     map[string]interface{}{"type": "array", "items": ref("VisitView")},
			"total":    integer(),
			"limit":    integer(),
			"offset":   integer(),
			"has_more": map[string]interface{}{"type": "boolean"},
			"links":    map[string]interface{}{"type": "array", "items": object(map[string]interface{}{"relation": str(), "url": str()})},
		}),
		"SearchResult": object(map[string]interface{}{"term": str(), "total": integer(), "results": arrayOf("VisitView")}),
		"ServiceStatus": object(map[string]interface{}{
			"date":         str(),
			"date_display": str(),
			"total":        integer(),
			"served":       integer(),
			"not_served":   integer(),
			"show":         str(),
			"visits":       arrayOf("VisitView"),
		}),
		"Unserved":     object(map[string]interface{}{"total": integer(), "message": str(), "visits": arrayOf("VisitView")}),
		"ServeRequest": object(map[string]interface{}{"therapy": str()}, "therapy"),
		"Dashboard": object(map[string]interface{}{
			"selection":          object(map[string]interface{}{"period": str(), "year": integer(), "month": integer()}),
			"label":              str(),
			"metrics":            object(map[string]interface{}{"total": integer(), "served": integer(), "pending": integer()}),
			"services":           map[string]interface{}{"type": "array", "items": object(map[string]interface{}{"type": str(), "count": integer()})},
			"ages":               map[string]interface{}{"type": "array", "items": object(map[string]interface{}{"category": str(), "label": str(), "count": integer(), "percent": map[string]interface{}{"type": "number"}})},
			"age_stats":          map[string]interface{}{"type": "object"},
			"patient_categories": map[string]interface{}{"type": "array", "items": object(map[string]interface{}{"category": str(), "label": str(), "count": integer()})},
			"recent":             arrayOf("VisitView"),
		}),
		"DateResult": object(map[string]interface{}{
			"raw": str(), "valid": map[string]interface{}{"type": "boolean"}, "input": str(), "display": str(),
			"calendar": map[string]interface{}{"type": "boolean"},
		}),
		"AgeResult": object(map[string]interface{}{
			"raw": str(), "years": integer(), "months": integer(), "valid": map[string]interface{}{"type": "boolean"},
			"note": str(), "display": str(), "clean": str(), "total_months": integer(),
			"category": str(), "category_label": str(), "simple_category": str(),
		}),
		"SeedConfig": object(map[string]interface{}{
			"count": integer(), "days": integer(),
			"servedRatio": map[string]interface{}{"type": "number"}, "seed": integer(),
		}),
		"SeedResult": object(map[string]interface{}{
			"rows": integer(), "served": integer(), "duration": integer(),
		}),
		"Error": object(map[string]interface{}{
			"message": map[string]interface{}{
				"description": "A string, or a map of field name to problem for validation errors",
			},
		}),
	}
}
