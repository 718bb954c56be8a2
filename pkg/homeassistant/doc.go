// Package homeassistant talks to the two Home Assistant APIs the daemon
// needs:
//
//   - the REST API, to read entity states and attributes (Client)
//   - the websocket API, to subscribe to the event that requests a
//     recalibration (Listener)
//
// Both authenticate with a long-lived access token.
package homeassistant
