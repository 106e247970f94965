// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder on stdout or any sink,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Both nodes accept a context and extract the logger from it, so every line
// carries the role ("lock-control", "lock-panel") that produced it.
package logger
