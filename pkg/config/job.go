package config

import (
	"encoding/json"
	"strconv"

	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
)

// Job-scope configuration keys.
const (
	KeyRegisterRequests = "palisade.input.register.requests"
	KeyMaxMapHint       = "palisade.input.max.map.hint"
	KeySerialiser       = "palisade.input.serialiser"
)

// JobConfig is the job-scope string->string configuration a batch
// executor threads alongside its requests. Zero value is a valid, empty
// configuration.
type JobConfig struct {
	values map[string]string
}

// NewJobConfig returns an empty JobConfig.
func NewJobConfig() JobConfig {
	return JobConfig{values: make(map[string]string)}
}

// Get returns the raw string stored under key.
func (c JobConfig) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores value verbatim under key.
func (c *JobConfig) Set(key, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value
}

// AddDataRequest appends req to the JSON array stored under
// KeyRegisterRequests, preserving the order requests were added in.
func (c *JobConfig) AddDataRequest(req model.RegisterDataRequest) error {
	requests, err := c.GetDataRequests()
	if err != nil {
		return err
	}
	requests = append(requests, req)

	raw, err := json.Marshal(requests)
	if err != nil {
		return perrors.NewInvalidArgument("failed to encode data requests", err).WithOperation("AddDataRequest")
	}
	c.Set(KeyRegisterRequests, string(raw))
	return nil
}

// GetDataRequests decodes the JSON array stored under
// KeyRegisterRequests. A fresh configuration with nothing stored yields
// an empty slice and no error.
func (c JobConfig) GetDataRequests() ([]model.RegisterDataRequest, error) {
	raw, ok := c.Get(KeyRegisterRequests)
	if !ok || raw == "" {
		return []model.RegisterDataRequest{}, nil
	}

	var requests []model.RegisterDataRequest
	if err := json.Unmarshal([]byte(raw), &requests); err != nil {
		return nil, perrors.NewInvalidArgument("malformed data request list", err).
			WithCode(perrors.CodeNoRequests).WithOperation("GetDataRequests")
	}
	return requests, nil
}

// SetMaxParallelismHint stores H. A negative hint fails synchronously and
// leaves any previously stored value unchanged.
func (c *JobConfig) SetMaxParallelismHint(h int) error {
	if h < 0 {
		return perrors.NewInvalidArgument("max-parallelism hint must be non-negative", nil).
			WithCode(perrors.CodeInvalidHint).WithOperation("SetMaxParallelismHint")
	}
	c.Set(KeyMaxMapHint, strconv.Itoa(h))
	return nil
}

// GetMaxParallelismHint decodes the stored hint; an absent key yields 0
// (unbounded).
func (c JobConfig) GetMaxParallelismHint() (int, error) {
	raw, ok := c.Get(KeyMaxMapHint)
	if !ok || raw == "" {
		return 0, nil
	}

	h, err := strconv.Atoi(raw)
	if err != nil {
		return 0, perrors.NewInvalidArgument("malformed max-parallelism hint", err).
			WithCode(perrors.CodeInvalidHint).WithOperation("GetMaxParallelismHint")
	}
	if h < 0 {
		return 0, perrors.NewInvalidArgument("stored max-parallelism hint is negative", nil).
			WithCode(perrors.CodeInvalidHint).WithOperation("GetMaxParallelismHint")
	}
	return h, nil
}

// SetSerialiser stores descriptor, JSON-encoded, under KeySerialiser.
// Palisade never interprets its contents; the record reader downstream
// does.
func (c *JobConfig) SetSerialiser(descriptor any) error {
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return perrors.NewInvalidArgument("failed to encode serialiser descriptor", err).WithOperation("SetSerialiser")
	}
	c.Set(KeySerialiser, string(raw))
	return nil
}

// GetSerialiser decodes the descriptor stored under KeySerialiser into
// out. found is false if nothing was ever set.
func (c JobConfig) GetSerialiser(out any) (found bool, err error) {
	raw, ok := c.Get(KeySerialiser)
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, perrors.NewInvalidArgument("malformed serialiser descriptor", err).WithOperation("GetSerialiser")
	}
	return true, nil
}
