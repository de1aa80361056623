package skill

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// ParseBundled parses the bundled-skill text format of spec.md §6: a
// key-value header (name, description, version, actions) followed by a
// blank line, followed by the guidance body kept verbatim so it can be
// dropped straight into the system prompt unmodified.
func ParseBundled(data []byte) (Skill, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := make(map[string]string)
	var bodyLines []string
	inBody := false

	for scanner.Scan() {
		line := scanner.Text()
		if inBody {
			bodyLines = append(bodyLines, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			inBody = true
			continue
		}
		key, value, ok := splitHeaderLine(trimmed)
		if !ok {
			return Skill{}, fmt.Errorf("skill: malformed header line %q", line)
		}
		header[strings.ToLower(key)] = value
	}
	if err := scanner.Err(); err != nil {
		return Skill{}, fmt.Errorf("skill: parse bundled file: %w", err)
	}

	name := header["name"]
	if name == "" {
		return Skill{}, fmt.Errorf("skill: bundled file missing required \"name\" header")
	}

	var actions []string
	if raw := header["actions"]; raw != "" {
		for _, a := range strings.Split(raw, ",") {
			a = strings.TrimSpace(a)
			if a != "" {
				actions = append(actions, a)
			}
		}
	}

	return Skill{
		Name:        name,
		Description: header["description"],
		Guidance:    strings.TrimRight(strings.Join(bodyLines, "\n"), "\n"),
		Actions:     actions,
		Source:      SourceBundled,
		Active:      true,
	}, nil
}

// splitHeaderLine splits a "key: value" header line.
func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
