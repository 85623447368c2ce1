package asynqexec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	airlock "github.com/goliatone/go-airlock"
	"github.com/goliatone/go-airlock/internal/hydrate"
)

// Client is the slice of *asynq.Client the executor needs, kept narrow so
// tests can substitute a recorder.
type Client interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Payload is the JSON body handed to asynq workers. Workers look the task up
// by the intent's name and decode this envelope.
type Payload struct {
	IntentID string         `json:"intent_id"`
	Args     []any          `json:"args,omitempty"`
	Kwargs   map[string]any `json:"kwargs,omitempty"`
	Origin   string         `json:"origin,omitempty"`
}

// KwargsInto binds the keyword payload to dst, a struct pointer, matching
// keys to json tags. Unknown keys are ignored so producers can add kwargs
// before every worker understands them.
func (p Payload) KwargsInto(dst any) error {
	return hydrate.Decode(p.Kwargs, dst)
}

// New returns an executor that turns each approved intent into an asynq task
// named after the intent and enqueues it on client. Dispatch options map
// onto asynq options; unknown keys fail the dispatch so typos surface
// instead of silently dropping hints.
func New(client Client) airlock.Executor {
	return func(ctx context.Context, intent *airlock.Intent) error {
		if client == nil {
			return fmt.Errorf("asynqexec: client is required")
		}
		body, err := json.Marshal(Payload{
			IntentID: intent.ID().String(),
			Args:     intent.Args(),
			Kwargs:   intent.Kwargs(),
			Origin:   intent.Origin(),
		})
		if err != nil {
			return fmt.Errorf("asynqexec: encode %s: %w", intent.Name(), err)
		}
		opts, err := Options(intent.DispatchOptions())
		if err != nil {
			return fmt.Errorf("asynqexec: %s: %w", intent.Name(), err)
		}
		if _, err := client.EnqueueContext(ctx, asynq.NewTask(intent.Name(), body), opts...); err != nil {
			return fmt.Errorf("asynqexec: enqueue %s: %w", intent.Name(), err)
		}
		return nil
	}
}
