package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed session log line.
type Entry struct {
	Time      string
	Level     string
	Component string
	Message   string
	Fields    string // remaining key=value pairs, sorted by key
	Raw       string
}

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3, "DPANIC": 4, "PANIC": 4, "FATAL": 5}

// AtLeast reports whether e is at or above level. Unparsed lines always pass.
func (e Entry) AtLeast(level string) bool {
	want, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		return true
	}
	got, ok := levelRank[e.Level]
	return !ok || got >= want
}

// Parse understands both logger encodings: JSON lines and the tab separated
// development console format. Anything else is kept as the message.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return fromFields(line, obj)
		}
	}

	parts := strings.Split(line, "\t")
	if len(parts) >= 4 {
		if _, ok := levelRank[strings.ToUpper(parts[1])]; ok {
			// time, level, caller, message, optional JSON fields
			obj := map[string]any{}
			if len(parts) >= 5 {
				_ = json.Unmarshal([]byte(parts[4]), &obj)
			}
			obj["ts"] = parts[0]
			obj["level"] = parts[1]
			obj["msg"] = parts[3]
			return fromFields(line, obj)
		}
	}
	return Entry{Message: line, Raw: line}
}

func fromFields(raw string, obj map[string]any) Entry {
	e := Entry{Raw: raw}
	e.Time = stringField(obj, "ts")
	e.Level = strings.ToUpper(stringField(obj, "level"))
	e.Message = stringField(obj, "msg")
	e.Component = stringField(obj, "component")
	for _, k := range []string{"ts", "level", "msg", "component", "caller", "stacktrace"} {
		delete(obj, k)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, obj[k]))
	}
	e.Fields = strings.Join(pairs, " ")
	return e
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Tail reads the last maxLines of path, parses them and keeps entries at or
// above minLevel.
func Tail(path string, maxLines int, minLevel string) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e := Parse(line)
		if e.AtLeast(minLevel) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
