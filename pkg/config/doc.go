// Package config implements Palisade's two configuration surfaces:
// job-scope string->string configuration carried alongside a batch of
// RegisterDataRequests (palisade.input.*), and the deployment-scope YAML
// configuration a Palisade service reads on startup (cache path, token
// TTL, per-dependency timeouts).
package config
