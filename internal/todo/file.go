package todo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nibzard/bouldy-go/internal/utils"
)

// Load reads and parses the task file at path. A missing file is an empty
// task list.
func Load(path string, schema Schema) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("read todo file: %w", err)
	}
	items := Parse(string(data), schema)
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Save rewrites the whole task file at path.
func Save(path string, items []Item, schema Schema) error {
	if err := utils.WriteFileAtomic(path, []byte(Serialize(items, schema)), 0644); err != nil {
		return fmt.Errorf("write todo file: %w", err)
	}
	return nil
}
