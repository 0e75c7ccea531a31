// Package events carries gallery notifications and worker tasks over redis
// streams.
package events

import (
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	TypePublished    Type = "asset.published"
	TypeUnpublished  Type = "asset.unpublished"
	TypeDeleted      Type = "asset.deleted"
	TypeStyleChanged Type = "asset.style_changed"
)

// Event is a gallery notification emitted after a committed transition.
type Event struct {
	Type          Type
	AssetID       string
	UserID        string
	Style         string
	PreviousStyle string
	At            time.Time
}

func (e Event) values() map[string]any {
	return map[string]any{
		"type":           string(e.Type),
		"asset_id":       e.AssetID,
		"user_id":        e.UserID,
		"style":          e.Style,
		"previous_style": e.PreviousStyle,
		"at":             e.At.UTC().Format(time.RFC3339Nano),
	}
}

type TaskKind string

const (
	TaskThumbnail TaskKind = "thumbnail"
	TaskCleanup   TaskKind = "cleanup"
)

// Task is a unit of work for the media worker.
type Task struct {
	Kind         TaskKind
	AssetID      string
	ImageKey     string
	ThumbnailKey string
}

var ErrUnknownTask = errors.New("unknown task kind")

func (t Task) values() map[string]any {
	return map[string]any{
		"type":          string(t.Kind),
		"asset_id":      t.AssetID,
		"image_key":     t.ImageKey,
		"thumbnail_key": t.ThumbnailKey,
	}
}

// ParseTask reads a task back from stream message values.
func ParseTask(values map[string]any) (Task, error) {
	task := Task{
		Kind:         TaskKind(stringValue(values, "type")),
		AssetID:      stringValue(values, "asset_id"),
		ImageKey:     stringValue(values, "image_key"),
		ThumbnailKey: stringValue(values, "thumbnail_key"),
	}
	switch task.Kind {
	case TaskThumbnail:
		if task.AssetID == "" || task.ImageKey == "" {
			return Task{}, fmt.Errorf("thumbnail task needs asset_id and image_key")
		}
	case TaskCleanup:
		if task.ImageKey == "" && task.ThumbnailKey == "" {
			return Task{}, fmt.Errorf("cleanup task has no keys")
		}
	default:
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownTask, task.Kind)
	}
	return task, nil
}

func stringValue(values map[string]any, key string) string {
	switch v := values[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
