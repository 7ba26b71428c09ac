// Package http implements the HTTP handlers of the dashboard API. Handlers
// stay thin: they parse and validate the query string, call a service and
// render the result with go-chi/render.
//
// # Endpoints
//
//	GET  /api/health, /api/health/ready, /api/health/live
//	GET  /api/version
//	GET  /api/dashboard/{summary,yearly,quarterly,top-manufacturers,trend,options,category-share,records}
//	GET  /api/dataset/status
//	POST /api/dataset/reload
//
// # Query Parameters
//
//	category      repeatable, matched case-insensitively
//	manufacturer  repeatable, matched case-insensitively
//	start, end    inclusive YYYY-MM-DD bounds
//	group_by      repeatable or comma separated: vehicle_category, manufacturer
//	n             1..100, default 10
//
// Successful responses use the envelope
//
//	{"status": "success", "data": ..., "count": N}
//
// # Error Handling
//
// Errors follow RFC 7807 Problem Details. Invalid parameters reply 400, a
// reload already running replies 409 and a dataset that cannot be loaded
// replies 503:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard/yearly",
//	    "trace_id": "..."
//	}
package http
