package confdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/indigo-web/webserv/config"
	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Settings yaml.Node       `yaml:"settings"`
	Root     []Entry         `yaml:"root"`
	Servers  map[int][]Entry `yaml:"servers"`
}

type jsonDocument struct {
	Settings json.RawMessage `json:"settings"`
	Root     []Entry         `json:"root"`
	Servers  map[int][]Entry `json:"servers"`
}

// LoadFile reads the database from the file, choosing the format by its extension.
// The optional settings block of the document is applied onto cfg, unless it's nil.
func LoadFile(path string, cfg *config.Config) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, cfg)
	case ".json":
		return ParseJSON(data, cfg)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

func ParseYAML(data []byte, cfg *config.Config) (*Store, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml database: %w", err)
	}

	if cfg != nil {
		if err := cfg.DecodeYAML(&doc.Settings); err != nil {
			return nil, err
		}
	}

	return finalize(doc.Root, doc.Servers)
}

func ParseJSON(data []byte, cfg *config.Config) (*Store, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json database: %w", err)
	}

	if cfg != nil {
		if err := cfg.DecodeJSON(doc.Settings); err != nil {
			return nil, err
		}
	}

	return finalize(doc.Root, doc.Servers)
}

func finalize(root []Entry, servers map[int][]Entry) (*Store, error) {
	store := &Store{
		Servers: servers,
		Root:    root,
	}

	if store.Servers == nil {
		store.Servers = make(map[int][]Entry)
	}

	if err := store.Validate(); err != nil {
		return nil, err
	}

	return store, nil
}
