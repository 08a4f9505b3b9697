package config

import "strings"

type Client string

const (
	ClientQBittorrent  Client = "qbittorrent"
	ClientTransmission Client = "transmission"
	ClientUTorrent     Client = "utorrent"
)

// Clients lists the supported torrent clients in display order.
var Clients = []Client{ClientQBittorrent, ClientTransmission, ClientUTorrent}

func (c Client) Valid() bool {
	switch c {
	case ClientQBittorrent, ClientTransmission, ClientUTorrent:
		return true
	default:
		return false
	}
}

// NormalizeClient maps unknown or empty client names to qbittorrent.
func NormalizeClient(s string) Client {
	c := Client(strings.TrimSpace(s))
	if !c.Valid() {
		return ClientQBittorrent
	}
	return c
}

const (
	DefaultTaskName     = "my_task"
	DefaultStrategyName = "my_strategy"
	DefaultRemove       = "seeding_time > 0"
)

type Strategy struct {
	Name       string `json:"name"`
	Categories string `json:"categories"`
	Remove     string `json:"remove"`
}

type Task struct {
	Name       string     `json:"name"`
	Client     Client     `json:"client"`
	Host       string     `json:"host"`
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	DeleteData bool       `json:"delete_data"`
	Strategies []Strategy `json:"strategies"`
}

// NewTask returns the task a user gets from "add task".
func NewTask() Task {
	return Task{
		Name:   DefaultTaskName,
		Client: ClientQBittorrent,
		Strategies: []Strategy{
			{Name: DefaultStrategyName, Remove: DefaultRemove},
		},
	}
}

// Configuration is the form-friendly projection of the YAML document.
type Configuration struct {
	Tasks []Task `json:"tasks"`
}

// Snapshot is the result of reading and parsing the config document.
// Parsed is nil and Error non-empty when the document does not parse.
type Snapshot struct {
	Raw    string         `json:"raw"`
	Parsed *Configuration `json:"parsed"`
	Error  *string        `json:"error"`
}

// Err returns the snapshot error message or "".
func (s Snapshot) Err() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

func okSnapshot(raw string, parsed *Configuration) Snapshot {
	return Snapshot{Raw: raw, Parsed: parsed}
}

func errSnapshot(raw, msg string) Snapshot {
	return Snapshot{Raw: raw, Error: &msg}
}
