// Package client provides the bounded HTTP request pools used for listing
// pages and detail pages.
//
// Each pool caps in-flight requests with a FIFO semaphore while all pools
// share one keep-alive transport. Responses are read fully so callers can
// decode, dump, or discard them without holding a connection.
package client
