// Package cli provides the interactive swa-antarang command-line client.
//
// NewApp wires configuration, the session store, the identity backend, the
// profile loader and one session controller; App.Run waits for the session
// restore, starts the background watchers and runs the REPL until the user
// exits.
//
// Commands: login, signup, logout, refresh, whoami [--offline],
// role [merchant|driver|customer]. whoami and role go through the same role
// gate the web shell uses; whoami --offline reads the session store only.
package cli
