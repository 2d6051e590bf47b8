package sqlmagick

import (
	"fmt"
	"strings"
)

// cellPrefix starts the command line of a cell.
const cellPrefix = "%%"

// Cell is one command invocation: "%%name line" followed by a body.
type Cell struct {
	// Name is the command name.
	Name string
	// Line is the rest of the command line.
	Line string
	// Body is everything after the command line.
	Body string
}

// Input returns the body, or the command line when the body is blank.
// Commands that take a single argument accept it in either place.
func (c Cell) Input() string {
	if body := strings.TrimSpace(c.Body); body != "" {
		return body
	}
	return strings.TrimSpace(c.Line)
}

// String renders the cell back to text.
func (c Cell) String() string {
	head := cellPrefix + c.Name
	if c.Line != "" {
		head += " " + c.Line
	}
	if c.Body == "" {
		return head + "\n"
	}
	return head + "\n" + strings.TrimRight(c.Body, "\n") + "\n"
}

// ParseCell parses a single cell. Leading blank lines are ignored.
func ParseCell(text string) (Cell, error) {
	cells, err := ParseScript(text)
	if err != nil {
		return Cell{}, err
	}
	if len(cells) != 1 {
		return Cell{}, fmt.Errorf("%w: expected one cell, found %d", ErrInvalidCell, len(cells))
	}
	return cells[0], nil
}

// ParseScript splits a script into cells. Every line starting with "%%"
// begins a new cell. Blank lines and lines starting with "#" before the
// first cell are ignored; any other text there is an error.
func ParseScript(text string) ([]Cell, error) {
	var (
		cells   []Cell
		current *Cell
		body    []string
	)
	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			cells = append(cells, *current)
		}
		body = body[:0]
	}

	for i, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, cellPrefix) {
			flush()
			name, rest, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, cellPrefix)), " ")
			if name == "" {
				return nil, fmt.Errorf("%w: line %d has no command name", ErrInvalidCell, i+1)
			}
			current = &Cell{Name: name, Line: strings.TrimSpace(rest)}
			continue
		}
		if current == nil {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				return nil, fmt.Errorf("%w: line %d is outside of a cell", ErrInvalidCell, i+1)
			}
			continue
		}
		body = append(body, line)
	}
	flush()
	return cells, nil
}
