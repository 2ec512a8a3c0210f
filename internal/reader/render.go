package reader

import "strings"

// BlockKind is the presentation of one line of page text.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading1
	Heading2
	Bold
	Break
)

func (k BlockKind) String() string {
	switch k {
	case Heading1:
		return "heading1"
	case Heading2:
		return "heading2"
	case Bold:
		return "bold"
	case Break:
		return "break"
	}
	return "paragraph"
}

// Block is a rendered line. Text has the Markdown markers removed.
type Block struct {
	Kind BlockKind
	Text string
}

// Render turns page text into blocks, one per line.
func Render(page string) []Block {
	lines := strings.Split(page, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, renderLine(line))
	}
	return blocks
}

func renderLine(line string) Block {
	switch {
	case strings.HasPrefix(line, "# "):
		return Block{Kind: Heading1, Text: line[2:]}
	case strings.HasPrefix(line, "## "):
		return Block{Kind: Heading2, Text: line[3:]}
	case len(line) >= 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
		return Block{Kind: Bold, Text: line[2 : len(line)-2]}
	case strings.TrimSpace(line) != "":
		return Block{Kind: Paragraph, Text: line}
	}
	return Block{Kind: Break}
}
