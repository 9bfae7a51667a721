package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads tables from a YAML file. Sections missing from the file keep
// their built-in values.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return Parse(data)
}

// Parse reads tables from YAML bytes on top of the built-in content.
func Parse(data []byte) (*Tables, error) {
	var file Content
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse knowledge file: %w", err)
	}
	c := DefaultContent()
	if len(file.Greetings) > 0 {
		c.Greetings = file.Greetings
	}
	if file.GreetingAnswer != "" {
		c.GreetingAnswer = file.GreetingAnswer
	}
	if file.Menu.Trigger != "" {
		c.Menu.Trigger = file.Menu.Trigger
	}
	if file.Menu.Instruction != "" {
		c.Menu.Instruction = file.Menu.Instruction
	}
	if len(file.Menu.Steps) > 0 {
		c.Menu.Steps = file.Menu.Steps
	}
	if file.FAQ != nil {
		c.FAQ = file.FAQ
	}
	t, err := Compile(c)
	if err != nil {
		return nil, fmt.Errorf("knowledge file: %w", err)
	}
	return t, nil
}
