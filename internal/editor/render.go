package editor

import (
	"fmt"
	"strings"

	"github.com/Roelanb/autoremove-webui/internal/config"
)

// Render replaces every card with one card per task, in order. No tasks
// leaves only the placeholder.
func (d *Document) Render(tasks []config.Task) {
	d.reset()
	if len(tasks) == 0 {
		d.placeholder = true
		return
	}
	for _, t := range tasks {
		d.appendCard(t)
	}
}

// AddTask appends a card with default values and drops the placeholder.
func (d *Document) AddTask() CardID {
	d.placeholder = false
	return d.appendCard(config.NewTask())
}

// HTML projects the document into form markup. All values are attribute
// escaped.
func (d *Document) HTML() string {
	var b strings.Builder
	if d.placeholder {
		b.WriteString(`<p class="form-empty">`)
		b.WriteString(EscapeAttr(PlaceholderText))
		b.WriteString("</p>\n")
		return b.String()
	}
	for _, id := range d.order {
		writeCard(&b, d.cards[id], d.Rows(id))
	}
	return b.String()
}

func writeCard(b *strings.Builder, c *Card, rows []Row) {
	fmt.Fprintf(b, `<div class="task-card" data-card-id="%d">`+"\n", c.ID)
	b.WriteString(`  <div class="task-header"><h3 class="task-title">Task</h3>` +
		`<button type="button" class="btn btn-ghost btn-sm btn-remove-task" title="Remove task">Remove task</button></div>` + "\n")
	b.WriteString(`  <div class="form-grid">` + "\n")
	writeInput(b, "Task name", "text", "task-name", c.Name, "my_task")

	b.WriteString(`    <label class="field"><span class="field-label">Client</span><select class="input task-client">`)
	for _, cl := range config.Clients {
		sel := ""
		if cl == c.Client {
			sel = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, EscapeAttr(string(cl)), sel, EscapeAttr(string(cl)))
	}
	b.WriteString("</select></label>\n")

	writeInput(b, "Host", "text", "task-host", c.Host, "http://127.0.0.1:8080")
	writeInput(b, "Username", "text", "task-username", c.Username, "")
	writeInput(b, "Password", "password", "task-password", c.Password, "")
	checked := ""
	if c.DeleteData {
		checked = " checked"
	}
	fmt.Fprintf(b, `    <label class="field field-check"><input type="checkbox" class="input task-delete-data"%s /><span class="field-label">Delete data</span></label>`+"\n", checked)
	b.WriteString("  </div>\n")

	b.WriteString(`  <div class="strategies-block"><span class="strategies-label">Strategies</span>` + "\n")
	b.WriteString(`    <table class="strategy-table"><thead><tr><th>Name</th><th>Categories</th><th>Remove</th><th></th></tr></thead>` + "\n")
	b.WriteString(`    <tbody class="strategy-tbody">` + "\n")
	for _, r := range rows {
		fmt.Fprintf(b, `      <tr class="strategy-row" data-row-id="%d">`, r.ID)
		fmt.Fprintf(b, `<td><input type="text" class="input strategy-name" value="%s" placeholder="strategy name" /></td>`, EscapeAttr(r.Name))
		fmt.Fprintf(b, `<td><input type="text" class="input strategy-categories" value="%s" placeholder="e.g. autobrr-ipt" /></td>`, EscapeAttr(r.Categories))
		fmt.Fprintf(b, `<td><input type="text" class="input strategy-remove" value="%s" placeholder="%s" /></td>`, EscapeAttr(r.Remove), EscapeAttr("e.g. seeding_time > 388800"))
		b.WriteString(`<td><button type="button" class="btn btn-ghost btn-sm btn-remove-strategy" title="Remove strategy">×</button></td></tr>` + "\n")
	}
	b.WriteString("    </tbody></table>\n")
	b.WriteString(`    <button type="button" class="btn btn-ghost btn-sm btn-add-strategy">+ Add strategy</button>` + "\n")
	b.WriteString("  </div>\n</div>\n")
}

func writeInput(b *strings.Builder, label, typ, class, value, placeholder string) {
	fmt.Fprintf(b, `    <label class="field"><span class="field-label">%s</span><input type="%s" class="input %s" value="%s" placeholder="%s" /></label>`+"\n",
		EscapeAttr(label), typ, class, EscapeAttr(value), EscapeAttr(placeholder))
}
