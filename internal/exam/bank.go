package exam

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadBank reads a YAML question bank:
//
//	questions:
//	  - text: What is the capital of France?
//	    options:
//	      - text: Paris
//	        correct: true
//	      - text: London
func LoadBank(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return ParseBank(data)
}

// ParseBank decodes and validates a YAML question bank.
func ParseBank(data []byte) ([]Question, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if err := Validate(file.Questions); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}
	return file.Questions, nil
}

func opts(correct int, texts ...string) []Option {
	out := make([]Option, len(texts))
	for i, t := range texts {
		out[i] = Option{Text: t, IsCorrect: i == correct}
	}
	return out
}

// DefaultBank returns the built-in ten-question general knowledge exam.
func DefaultBank() []Question {
	return []Question{
		{Text: "What is the capital of France?", Options: opts(2, "New York", "London", "Paris", "Dublin")},
		{Text: "Which planet is known as the Red Planet?", Options: opts(1, "Venus", "Mars", "Jupiter", "Saturn")},
		{Text: `Who wrote "Romeo and Juliet"?`, Options: opts(1, "William Wordsworth", "William Shakespeare", "John Keats", "Charles Dickens")},
		{Text: "What is the largest mammal?", Options: opts(1, "Elephant", "Blue Whale", "Giraffe", "Rhino")},
		{Text: "Which element has the chemical symbol O?", Options: opts(1, "Gold", "Oxygen", "Osmium", "Oxide")},
		{Text: "What is the square root of 64?", Options: opts(1, "6", "8", "10", "12")},
		{Text: "In which continent is the Sahara Desert located?", Options: opts(2, "Asia", "Australia", "Africa", "South America")},
		{Text: "Which gas do plants absorb from the atmosphere?", Options: opts(1, "Oxygen", "Carbon Dioxide", "Nitrogen", "Hydrogen")},
		{Text: "Who was the first person to walk on the Moon?", Options: opts(2, "Buzz Aldrin", "Yuri Gagarin", "Neil Armstrong", "Michael Collins")},
		{Text: "Which language is primarily spoken in Brazil?", Options: opts(2, "Spanish", "French", "Portuguese", "English")},
	}
}
