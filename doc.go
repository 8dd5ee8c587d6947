// Package gateway is the shell of a micro-frontend host: it
// authenticates the user against a pluggable identity backend, keeps the
// session alive across reloads and plugin mounts, and exposes a narrow
// versioned messaging channel that independently-deployed plugins use to
// register routes, raise notifications and react to session changes.
//
// Auth providers:
//   - Provider is the capability surface (login, silent verification,
//     refresh, logout); AutoLoginProvider adds credential-less sessions.
//     Variants cover a token backend, its claims-elevated ldap flavor,
//     GitHub OAuth federation, a mnemonic-selecting catalog backend, the
//     anonymous no-op, and a pending placeholder used until configuration
//     has been read. NewProvider maps the configured name to a variant
//     and treats an unrecognized name as a fatal configuration fault.
//
// Boot sequence:
//   - Orchestrator.Run executes the one-shot startup: fetch the site
//     document, construct the provider, verify or auto-establish the
//     session, push configuration into host state, load plugin bundles
//     concurrently, and release first paint, bounded so a broken plugin
//     can never hang the shell.
//
// Messaging:
//   - Bus carries {type, payload} envelopes between the host and all
//     mounted plugins, dropping anything outside the reserved namespace
//     at the trust boundary. Listener folds recognized messages into
//     host state and is the single writer of the plugin Registry. Host
//     actions flagged for broadcast are re-emitted so plugins observe
//     them without direct store coupling.
package gateway
