// Explaingate replays SQL statements through the explain plan admission
// cache and reports which ones would have their plan captured.
//
// Usage:
//
//	explaingate replay queries.sql                 # decisions for a file
//	explaingate replay --cache-size 2 < queries.sql # read from stdin
//	explaingate replay --options '{"explain_cache_timeout_seconds": 60}' -
//	explaingate version
package main
