package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleYAML = `my_task:
  client: qbittorrent
  host: http://127.0.0.1:8080
  username: admin
  password: secret
  delete_data: true
  strategies:
    old_seeds:
      categories:
        - autobrr-ipt
        - tv
      remove: seeding_time > 388800
    no_remove:
      categories: movies
    ratio:
      remove: ratio > 2
second:
  client: deluge
  host: localhost:9091
  strategies:
    all:
      remove: seeding_time > 0
not_a_task: 42
`

func TestParsedToForm(t *testing.T) {
	snap := Parse(sampleYAML)
	if snap.Err() != "" {
		t.Fatalf("unexpected error: %s", snap.Err())
	}
	if snap.Raw != sampleYAML {
		t.Fatalf("raw not preserved")
	}
	want := Configuration{Tasks: []Task{
		{
			Name:       "my_task",
			Client:     ClientQBittorrent,
			Host:       "http://127.0.0.1:8080",
			Username:   "admin",
			Password:   "secret",
			DeleteData: true,
			Strategies: []Strategy{
				{Name: "old_seeds", Categories: "autobrr-ipt, tv", Remove: "seeding_time > 388800"},
				{Name: "ratio", Categories: "", Remove: "ratio > 2"},
			},
		},
		{
			Name:       "second",
			Client:     ClientQBittorrent,
			Host:       "localhost:9091",
			Strategies: []Strategy{{Name: "all", Remove: "seeding_time > 0"}},
		},
	}}
	if !reflect.DeepEqual(*snap.Parsed, want) {
		t.Fatalf("parsed mismatch:\n got %+v\nwant %+v", *snap.Parsed, want)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	raw := "task: [unclosed"
	snap := Parse(raw)
	if snap.Parsed != nil {
		t.Fatalf("expected nil parsed, got %+v", snap.Parsed)
	}
	if snap.Err() == "" {
		t.Fatalf("expected parse error")
	}
	if snap.Raw != raw {
		t.Fatalf("raw should be kept verbatim, got %q", snap.Raw)
	}
}

func TestParseNonMappingIsEmpty(t *testing.T) {
	for _, raw := range []string{"", "- a\n- b\n", "just text"} {
		snap := Parse(raw)
		if snap.Err() != "" || snap.Parsed == nil || len(snap.Parsed.Tasks) != 0 {
			t.Fatalf("%q: expected empty task list, got %+v", raw, snap)
		}
	}
}

func TestFormToDocumentDropsIncomplete(t *testing.T) {
	cfg := Configuration{Tasks: []Task{
		{Name: "  ", Client: ClientTransmission},
		{
			Name:   " keep ",
			Client: ClientTransmission,
			Host:   " host ",
			Strategies: []Strategy{
				{Name: "a", Remove: "ratio > 1", Categories: " tv "},
				{Name: "", Remove: "ratio > 1"},
				{Name: "b", Remove: "  "},
			},
		},
	}}
	raw, err := EncodeDocument(FormToDocument(cfg))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `keep:
  client: transmission
  host: host
  strategies:
    a:
      remove: ratio > 1
      categories: tv
`
	if raw != want {
		t.Fatalf("unexpected yaml:\n%s\nwant:\n%s", raw, want)
	}
}

func TestFormRoundTripThroughYAML(t *testing.T) {
	cfg := Configuration{Tasks: []Task{
		{
			Name:       "t1",
			Client:     ClientUTorrent,
			Host:       "http://h:1",
			Username:   "u",
			Password:   "p",
			DeleteData: true,
			Strategies: []Strategy{{Name: "s", Categories: "a, b", Remove: "seeding_time > 10"}},
		},
		{Name: "t2", Client: ClientQBittorrent, Strategies: []Strategy{}},
	}}
	raw, err := EncodeDocument(FormToDocument(cfg))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snap := Parse(raw)
	if snap.Err() != "" {
		t.Fatalf("reparse: %s", snap.Err())
	}
	if !reflect.DeepEqual(*snap.Parsed, cfg) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *snap.Parsed, cfg)
	}
}

func TestValidateRaw(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", "non-empty YAML object"},
		{"list", "- a", "non-empty YAML object"},
		{"scalar task", "t: 1", "Task 't' must be an object."},
		{"no client", "t:\n  strategies: {}", "Task 't' must have 'client'."},
		{"no strategies", "t:\n  client: qbittorrent", "Task 't' must have 'strategies' (object)."},
		{"no remove", "t:\n  client: qbittorrent\n  strategies:\n    s:\n      categories: x", "Strategy 's' in task 't' must have 'remove'."},
		{"bad yaml", "t: [", "Invalid YAML"},
		{"ok", "t:\n  client: qbittorrent\n  strategies:\n    s:\n      remove: ratio > 1", ""},
	}
	for _, tc := range cases {
		err := ValidateRaw(tc.raw)
		if tc.want == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

const anchoredYAML = `common: &common
  client: transmission
  host: localhost:9091
  strategies:
    s1:
      remove: ratio > 1
task2:
  <<: *common
  host: seedbox:9091
  delete_data: true
task3: *common
`

func TestAnchorsAndMergeKeys(t *testing.T) {
	if err := ValidateRaw(anchoredYAML); err != nil {
		t.Fatalf("anchored config rejected: %v", err)
	}
	snap := Parse(anchoredYAML)
	if snap.Err() != "" {
		t.Fatalf("unexpected error: %s", snap.Err())
	}
	strats := []Strategy{{Name: "s1", Remove: "ratio > 1"}}
	cases := []struct {
		name string
		want Task
	}{
		{"common", Task{Name: "common", Client: ClientTransmission, Host: "localhost:9091", Strategies: strats}},
		{"merged overrides", Task{Name: "task2", Client: ClientTransmission, Host: "seedbox:9091", DeleteData: true, Strategies: strats}},
		{"alias", Task{Name: "task3", Client: ClientTransmission, Host: "localhost:9091", Strategies: strats}},
	}
	if len(snap.Parsed.Tasks) != len(cases) {
		t.Fatalf("tasks = %+v", snap.Parsed.Tasks)
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := snap.Parsed.Tasks[i]; !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestMergeSequenceEarlierWins(t *testing.T) {
	raw := `a: &a {client: utorrent, host: first, strategies: {}}
b: &b {client: transmission, host: second, strategies: {s: {remove: ratio > 1}}}
t:
  <<: [*a, *b]
`
	if err := ValidateRaw(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var task Task
	for _, tk := range Parse(raw).Parsed.Tasks {
		if tk.Name == "t" {
			task = tk
		}
	}
	if task.Client != ClientUTorrent || task.Host != "first" || len(task.Strategies) != 0 {
		t.Fatalf("merged task = %+v", task)
	}
}

func TestStoreReadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	snap := NewStore(path).Read()
	if snap.Err() != "Config file not found: "+path {
		t.Fatalf("unexpected error %q", snap.Err())
	}
	if snap.Parsed != nil || snap.Raw != "" {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestStoreWriteForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yml")
	st := NewStore(path)

	if _, err := st.WriteForm(Configuration{Tasks: []Task{{Name: " "}}}); err != ErrNoTasks {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("nothing should be written, err=%v", err)
	}

	raw, err := st.WriteForm(Configuration{Tasks: []Task{NewTask()}})
	if err != nil {
		t.Fatalf("write form: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != raw {
		t.Fatalf("file content %q != returned raw %q", got, raw)
	}
	snap := st.Read()
	if snap.Parsed == nil || len(snap.Parsed.Tasks) != 1 || snap.Parsed.Tasks[0].Strategies[0].Remove != DefaultRemove {
		t.Fatalf("unexpected snapshot after write: %+v", snap)
	}
}

func TestStoreWriteRawRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("orig"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path)
	if err := st.WriteRaw("t: 1"); err == nil {
		t.Fatalf("expected validation error")
	}
	got, _ := os.ReadFile(path)
	if string(got) != "orig" {
		t.Fatalf("file should be untouched, got %q", got)
	}
}

func TestNormalizeClient(t *testing.T) {
	cases := map[string]Client{
		"":             ClientQBittorrent,
		"deluge":       ClientQBittorrent,
		"transmission": ClientTransmission,
		" utorrent ":   ClientUTorrent,
	}
	for in, want := range cases {
		if got := NormalizeClient(in); got != want {
			t.Fatalf("NormalizeClient(%q) = %q, want %q", in, got, want)
		}
	}
}
