package asynqexec

import (
	"fmt"
	"sort"
	"time"

	"github.com/hibiken/asynq"
)

// Dispatch option keys the executor understands.
const (
	OptQueue     = "queue"
	OptMaxRetry  = "max_retry"
	OptProcessIn = "process_in"
	OptProcessAt = "process_at"
	OptTimeout   = "timeout"
	OptDeadline  = "deadline"
	OptTaskID    = "task_id"
	OptGroup     = "group"
	OptRetention = "retention"
	OptUnique    = "unique"
)

// Options maps intent dispatch options onto asynq options. Keys are
// processed in sorted order; an unknown key or uncoercible value errors.
func Options(options map[string]any) ([]asynq.Option, error) {
	if len(options) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]asynq.Option, 0, len(keys))
	for _, key := range keys {
		value := options[key]
		switch key {
		case OptQueue:
			name, err := asString(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.Queue(name))
		case OptMaxRetry:
			n, err := asInt(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.MaxRetry(n))
		case OptProcessIn:
			d, err := asDuration(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.ProcessIn(d))
		case OptProcessAt:
			at, err := asTime(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.ProcessAt(at))
		case OptTimeout:
			d, err := asDuration(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.Timeout(d))
		case OptDeadline:
			at, err := asTime(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.Deadline(at))
		case OptTaskID:
			id, err := asString(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.TaskID(id))
		case OptGroup:
			name, err := asString(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.Group(name))
		case OptRetention:
			d, err := asDuration(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.Retention(d))
		case OptUnique:
			d, err := asDuration(key, value)
			if err != nil {
				return nil, err
			}
			out = append(out, asynq.Unique(d))
		default:
			return nil, fmt.Errorf("unsupported dispatch option %q", key)
		}
	}
	return out, nil
}

func asString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("dispatch option %q wants a non-empty string, got %T", key, value)
	}
	return s, nil
}

func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("dispatch option %q wants an integer, got %T", key, value)
}

func asDuration(key string, value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("dispatch option %q: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("dispatch option %q wants a duration, got %T", key, value)
}

func asTime(key string, value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("dispatch option %q: %w", key, err)
		}
		return at, nil
	}
	return time.Time{}, fmt.Errorf("dispatch option %q wants a timestamp, got %T", key, value)
}
