// Package cache implements the Gateway interface and its two backends:
// SQLiteGateway for durable deployments, and MemoryGateway for tests and
// the smoke-test bootstrap.
package cache
