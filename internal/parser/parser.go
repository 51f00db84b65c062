// Package parser turns Apache Common/Combined access log lines into records.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"weblog-hunter/internal/model"
)

// TimeLayout is the access log timestamp layout, e.g. 10/Oct/2020:13:55:36 +0000
const TimeLayout = "02/Jan/2006:15:04:05 -0700"

const placeholder = "-"

// maxLineSize bounds a single log line; request lines from scanners can be long
const maxLineSize = 1024 * 1024

var lineRegex = regexp.MustCompile(
	`^(?P<host>\S+)\s+` +
		`(?P<ident>\S+)\s+` +
		`(?P<user>\S+)\s+` +
		`\[(?P<time>[^\]]+)\]\s+` +
		`"(?P<method>[A-Z]+)\s+(?P<path>\S+)\s+(?P<protocol>[^"]+)"\s+` +
		`(?P<status>\S+)\s+` +
		`(?P<bytes>\S+)` +
		`(?:\s+"(?P<referer>[^"]*)"\s+"(?P<ua>[^"]*)")?` +
		`\s*$`,
)

var (
	groupHost     = lineRegex.SubexpIndex("host")
	groupIdent    = lineRegex.SubexpIndex("ident")
	groupUser     = lineRegex.SubexpIndex("user")
	groupTime     = lineRegex.SubexpIndex("time")
	groupMethod   = lineRegex.SubexpIndex("method")
	groupPath     = lineRegex.SubexpIndex("path")
	groupProtocol = lineRegex.SubexpIndex("protocol")
	groupStatus   = lineRegex.SubexpIndex("status")
	groupBytes    = lineRegex.SubexpIndex("bytes")
	groupReferer  = lineRegex.SubexpIndex("referer")
	groupUA       = lineRegex.SubexpIndex("ua")
)

// ParseLine parses a single access log line.
// It returns a *MalformedLineError when the line does not match the grammar.
func ParseLine(line string) (*model.Record, error) {
	line = strings.TrimRight(line, "\r\n")

	loc := lineRegex.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil, &MalformedLineError{Raw: line, Err: ErrUnrecognizedFormat}
	}
	group := func(i int) (string, bool) {
		if loc[2*i] < 0 {
			return "", false
		}
		return line[loc[2*i]:loc[2*i+1]], true
	}
	field := func(i int) string {
		s, _ := group(i)
		return s
	}

	status, err := parseStatus(field(groupStatus))
	if err != nil {
		return nil, &MalformedLineError{Raw: line, Err: err}
	}

	bytes, err := parseBytes(field(groupBytes))
	if err != nil {
		return nil, &MalformedLineError{Raw: line, Err: err}
	}

	ts, err := time.Parse(TimeLayout, field(groupTime))
	if err != nil {
		return nil, &MalformedLineError{Raw: line, Err: fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)}
	}

	record := &model.Record{
		Host:     field(groupHost),
		Ident:    optional(field(groupIdent)),
		User:     optional(field(groupUser)),
		Time:     ts,
		Method:   field(groupMethod),
		Path:     field(groupPath),
		Protocol: field(groupProtocol),
		Status:   status,
		Bytes:    bytes,
		Raw:      line,
	}

	// The referer/user-agent pair is optional as a whole
	if referer, ok := group(groupReferer); ok {
		record.Referer = optional(referer)
		record.UserAgent = optional(field(groupUA))
	}

	return record, nil
}

// ParseAll parses every non-blank line read from r.
// The first malformed line aborts parsing; no records are returned in that case.
func ParseAll(r io.Reader) ([]model.Record, error) {
	return parseReader(r, "")
}

// ParseFile opens path and parses it with ParseAll semantics
func ParseFile(path string) ([]model.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer file.Close()

	return parseReader(file, path)
}

func parseReader(r io.Reader, source string) ([]model.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var records []model.Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		record, err := ParseLine(line)
		if err != nil {
			malformed := err.(*MalformedLineError)
			malformed.Source = source
			malformed.Line = lineNum
			return nil, malformed
		}
		records = append(records, *record)
	}

	if err := scanner.Err(); err != nil {
		if source != "" {
			return nil, fmt.Errorf("failed to read %s after line %d: %w", source, lineNum, err)
		}
		return nil, fmt.Errorf("failed to read log after line %d: %w", lineNum, err)
	}

	return records, nil
}

func parseStatus(s string) (int, error) {
	if len(s) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
		}
	}
	status, _ := strconv.Atoi(s)
	if status < 100 || status > 599 {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidStatus, status)
	}
	return status, nil
}

func parseBytes(s string) (int64, error) {
	if s == placeholder {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBytes, s)
	}
	return n, nil
}

// optional maps the literal placeholder to nil and keeps every other value
func optional(s string) *string {
	if s == placeholder {
		return nil
	}
	return &s
}
