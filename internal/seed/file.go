package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or a list.
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	var single string
	if err := value.Decode(&single); err == nil {
		*s = []string{single}
		return nil
	}
	var multi []string
	if err := value.Decode(&multi); err != nil {
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
	*s = multi
	return nil
}

type Admin struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Product struct {
	Name        string     `yaml:"name"`
	Slug        string     `yaml:"slug"`
	Price       int64      `yaml:"price"`
	Categories  StringList `yaml:"categories"`
	Images      StringList `yaml:"images"`
	Sizes       StringList `yaml:"sizes"`
	Description string     `yaml:"description"`
	Featured    bool       `yaml:"featured"`
}

type File struct {
	Admins     []Admin    `yaml:"admins"`
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &f, nil
}

func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}
