// Package api implements the HTTP transport layer: request decoding and
// validation, handler logic, and the mapping of service errors onto HTTP
// status codes. Handlers delegate all business logic to the service layer.
package api
