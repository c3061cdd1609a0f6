// Package hostgate is a Go client for the hostgate content channel. It is
// what a trusted content context (or a test standing in for one) uses to
// call host operations, hold a trust session and read credentials.
//
// Usage:
//
//	c, err := hostgate.Dial(ctx, "ws://127.0.0.1:8711/ipc", token)
//	if err := c.EstablishTrust(ctx); err != nil { ... }
//	secret, found, err := c.GetCredential(ctx, "github")
//
// Credentials arrive sealed under the session key and are opened locally;
// the plaintext never crosses the wire.
package hostgate
