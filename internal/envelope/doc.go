// Package envelope decodes listing API responses.
//
// The API answers in JSON or XML depending on the request and on whether the
// call failed at the gateway, wraps results in a response/header/body
// envelope, and sends a single result as an object rather than an array.
// Decode normalizes all of these into a Page and classifies failures as
// *APIError or *DecodeError.
package envelope
