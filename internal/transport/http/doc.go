// Package http provides the HTTP transport layer for the dashboard API.
// Handlers are thin: they decode query parameters, delegate to the service
// layer, and render JSON via chi/render. All error responses go through the
// shared error handler, which emits RFC 7807 problem documents.
package http
