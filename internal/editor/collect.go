package editor

import (
	"strings"

	"github.com/Roelanb/autoremove-webui/internal/config"
)

// Collect reads the document back into a configuration. Free-text values
// are trimmed, an empty task name becomes "my_task", and strategy rows
// missing a name or remove condition are dropped without notice.
func Collect(d *Document) config.Configuration {
	out := config.Configuration{Tasks: []config.Task{}}
	for _, id := range d.order {
		c := d.cards[id]
		t := config.Task{
			Name:       strings.TrimSpace(c.Name),
			Client:     config.NormalizeClient(string(c.Client)),
			Host:       strings.TrimSpace(c.Host),
			Username:   strings.TrimSpace(c.Username),
			Password:   strings.TrimSpace(c.Password),
			DeleteData: c.DeleteData,
			Strategies: []config.Strategy{},
		}
		if t.Name == "" {
			t.Name = config.DefaultTaskName
		}
		for _, rid := range c.rows {
			r := d.rows[rid]
			name := strings.TrimSpace(r.Name)
			remove := strings.TrimSpace(r.Remove)
			if name == "" || remove == "" {
				continue
			}
			t.Strategies = append(t.Strategies, config.Strategy{
				Name:       name,
				Categories: strings.TrimSpace(r.Categories),
				Remove:     remove,
			})
		}
		out.Tasks = append(out.Tasks, t)
	}
	return out
}
