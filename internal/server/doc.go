// Package server is the websocket transport for threadboard.
//
// A Hub owns every live connection. Each Client runs a read pump that decodes
// frames into protocol events and a write pump that drains its send buffer.
// The hub loop hands events to a Dispatcher one at a time and implements the
// delivery side of the engine, so the engine never touches a socket. The rest
// of the package covers configuration, origin checks, routing and the HTTP
// server lifecycle.
package server
