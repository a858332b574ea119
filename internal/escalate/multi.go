package escalate

import (
	"context"
	"fmt"
	"sync"
)

// Multi wraps multiple action layers and fans out to all of them
type Multi struct {
	layers []ActionLayer
}

// NewMulti creates a Multi action layer that triggers all provided backends
func NewMulti(layers ...ActionLayer) *Multi {
	return &Multi{layers: layers}
}

// Trigger fires every backend concurrently and waits for all of them.
// The result is the status of the first backend, in declaration order,
// that answered without error. If none did, the first error is returned.
func (m *Multi) Trigger(ctx context.Context, ec EmergencyContext) (CallStatus, error) {
	if len(m.layers) == 0 {
		return CallStatus{Status: StatusIgnored, Message: "no action layer configured"}, nil
	}

	statuses := make([]CallStatus, len(m.layers))
	errs := make([]error, len(m.layers))

	var wg sync.WaitGroup
	for i, layer := range m.layers {
		wg.Add(1)
		go func(i int, layer ActionLayer) {
			defer wg.Done()
			// A panic here would escape the controller's recover
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%s panic: %v", layer.Name(), r)
				}
			}()
			statuses[i], errs[i] = layer.Trigger(ctx, ec)
		}(i, layer)
	}
	wg.Wait()

	var firstErr error
	for i := range m.layers {
		if errs[i] == nil {
			return statuses[i], nil
		}
		if firstErr == nil {
			firstErr = errs[i]
		}
	}
	return CallStatus{}, firstErr
}

// Name returns "multi"
func (m *Multi) Name() string {
	return "multi"
}

// Close closes every wrapped backend that holds a connection
func (m *Multi) Close() {
	for _, layer := range m.layers {
		if closer, ok := layer.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
