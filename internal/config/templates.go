package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "browser":
		return browserTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `listen_addr = "0.0.0.0:5555"
page_root = "pages"
dns_file = "dns.json"
doc_ext = ".smd"
read_timeout = "10s"
write_timeout = "10s"
max_request_bytes = 1024
max_connections = 128
rate_limit = 60
rate_window = "1m"
ops_addr = "127.0.0.1:8080"
cors_origins = ["http://localhost:3000"]
redis_addr = ""

[mqtt]
broker = ""
request_topic = "simplenet/request"
response_prefix = "simplenet/response"
qos = 1
`

const browserTemplate = `start_page = "default"
clear_screen = true
no_color = false
bookmarks_file = "bookmarks.json"
history_file = "history.json"
`
