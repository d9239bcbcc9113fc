// Package handlers implements the HTTP API: metadata search, on-demand
// thumbnail and preview generation, pre-transcoded video renditions, and
// the health endpoint.
package handlers
