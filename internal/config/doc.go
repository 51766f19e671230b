// Package config resolves the collector's run configuration.
//
// Values come from the process environment, a dotenv file, an optional YAML
// file and built-in defaults, in that order of precedence. Variable names
// (PER, MAX_PAGES, SIDO_CODE, ...) are the ones existing deployments already
// export. The API credential may also be kept in the OS keyring.
package config
