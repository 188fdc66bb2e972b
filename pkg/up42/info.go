package up42

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/psantana5/up42-go/pkg/auth"
)

// infoCache holds the lazily fetched info record of an entity. No lock is
// held while fetching, so two concurrent first reads may both fetch.
type infoCache struct {
	mu    sync.Mutex
	info  map[string]interface{}
	valid bool
}

func (c *infoCache) get() (map[string]interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info, c.valid
}

func (c *infoCache) set(info map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
	c.valid = true
}

func (c *infoCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = nil
	c.valid = false
}

func (c *infoCache) has() bool {
	_, ok := c.get()
	return ok
}

func getRecord(ctx context.Context, a *auth.Auth, url string) (map[string]interface{}, error) {
	var record map[string]interface{}
	if err := a.Requester().Get(ctx, url, &record); err != nil {
		return nil, err
	}
	if record == nil {
		record = map[string]interface{}{}
	}
	return record, nil
}

// decodeRecord copies a loosely typed API record into a typed struct
func decodeRecord(in, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func stringField(record map[string]interface{}, key string) string {
	s, _ := record[key].(string)
	return s
}

func projectURL(a *auth.Auth, projectID string) string {
	return fmt.Sprintf("%s/projects/%s", a.Endpoint(), projectID)
}
