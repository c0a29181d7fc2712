package auth

// SeatTokenHeader carries the seat token for HTTP clients that cannot set an
// Authorization header (e.g. EventSource polyfills).
const SeatTokenHeader = "X-Seat-Token"
