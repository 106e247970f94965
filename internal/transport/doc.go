// Package transport abstracts the point-to-point serial link as a byte stream.
//
// A Link wraps any io.ReadWriteCloser: a real serial port opened with
// OpenSerial, or one end of an in-process Pipe used by the simulator and
// tests. A single reader goroutine per link feeds received bytes into a
// bounded queue so callers can poll for availability, block for the next
// byte or flush stale input. There are no retries at this layer.
package transport
