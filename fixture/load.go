package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/rephrase/core"
)

// Load reads task and event fixtures from disk. The format follows the file
// extension (.json, .yaml or .yml). An empty path yields an empty collection;
// a path that cannot be read is an error.
func Load(tasksPath, eventsPath string) (*Store, error) {
	var (
		tasks  []core.Task
		events []core.CalendarEvent
	)

	if err := decodeFile(tasksPath, &tasks); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if err := decodeFile(eventsPath, &events); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	for i, e := range events {
		if e.End.Before(e.Start) {
			return nil, fmt.Errorf("load events: event %q ends before it starts", e.ID)
		}
		if e.ID == "" {
			events[i].ID = fmt.Sprintf("event-%d", i+1)
		}
	}

	return New(tasks, events), nil
}

func decodeFile(path string, v any) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	case ".json":
		err = json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported fixture format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
