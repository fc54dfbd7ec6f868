package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/mod/semver"
)

// FormatName is the value of the header "format" field.
const FormatName = "shapecheck-trace"

// Version is the trace format version written by Encoder.
const Version = "v1.0.0"

// minVersion is the oldest readable trace version.
const minVersion = "v1.0.0"

// maxLineSize bounds one record.
const maxLineSize = 16 << 20

// Decoder reads events from a JSON lines stream. The first record must be a
// compatible header; it is consumed by the decoder and never returned.
type Decoder struct {
	sc     *bufio.Scanner
	line   int
	header bool
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{sc: sc}
}

// Line returns the line number of the last record read.
func (d *Decoder) Line() int {
	return d.line
}

// Next returns the next event, or io.EOF at the end of the stream. Blank
// lines are skipped. Malformed records yield a *FormatError.
func (d *Decoder) Next() (*Event, error) {
	for d.sc.Scan() {
		d.line++
		data := bytes.TrimSpace(d.sc.Bytes())
		if len(data) == 0 {
			continue
		}
		ev := new(Event)
		if err := json.Unmarshal(data, ev); err != nil {
			return nil, newFormatError(d.line, fmt.Sprintf("invalid JSON: %v", err),
				"Each line must hold exactly one JSON object")
		}
		if !d.header {
			if err := d.checkHeader(ev); err != nil {
				return nil, err
			}
			d.header = true
			continue
		}
		if err := validate(ev); err != nil {
			return nil, newFormatError(d.line, err.Error(), suggestionFor(ev.Ev))
		}
		return ev, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	if !d.header {
		return nil, newFormatError(d.line, "missing header", "Start the trace with a header record")
	}
	return nil, io.EOF
}

func (d *Decoder) checkHeader(ev *Event) error {
	if ev.Ev != EvHeader {
		return newFormatError(d.line, fmt.Sprintf("expected header record, got %q", ev.Ev),
			fmt.Sprintf(`Start the trace with {"ev":"header","format":%q,"version":%q}`, FormatName, Version))
	}
	if ev.Format != FormatName {
		return newFormatError(d.line, fmt.Sprintf("unsupported format %q", ev.Format),
			fmt.Sprintf("Set format to %q", FormatName))
	}
	if !semver.IsValid(ev.Version) {
		return newFormatError(d.line, fmt.Sprintf("invalid version %q", ev.Version),
			"Use a semantic version such as v1.0.0")
	}
	if semver.Major(ev.Version) != semver.Major(Version) || semver.Compare(ev.Version, minVersion) < 0 {
		return newFormatError(d.line, fmt.Sprintf("unsupported version %s", ev.Version),
			fmt.Sprintf("This reader accepts %s traces from %s on", semver.Major(Version), minVersion))
	}
	return nil
}

// validate checks the fields each record kind requires.
func validate(ev *Event) error {
	switch ev.Ev {
	case EvLoc:
		if ev.Site == 0 {
			return fmt.Errorf("loc record without site")
		}
	case EvObject:
		if ev.Object == nil || ev.Object.ID == 0 {
			return fmt.Errorf("object record without id")
		}
	case EvAlloc:
		if ev.Value == nil {
			return fmt.Errorf("alloc record without value")
		}
	case EvRead, EvWrite:
		if ev.Owner == nil {
			return fmt.Errorf("%s record without owner", ev.Ev)
		}
	case EvEnter, EvExit:
		if ev.Callee == nil {
			return fmt.Errorf("%s record without callee", ev.Ev)
		}
	case EvEnd:
	case EvHeader:
		return fmt.Errorf("duplicate header")
	default:
		return fmt.Errorf("unknown record kind %q", ev.Ev)
	}
	return nil
}

func suggestionFor(ev string) string {
	switch ev {
	case EvObject:
		return `Declare objects as {"ev":"object","object":{"id":N,"kind":"object|array|function"}}`
	case EvRead, EvWrite:
		return `Field records need "owner", "field" and "value"`
	case EvEnter, EvExit:
		return `Call records need "callee"; exit records also carry "receiver", "args" and "return"`
	case EvHeader:
		return "Only the first record may be a header"
	default:
		return "Use one of: loc, object, alloc, read, write, enter, exit, end"
	}
}

// Encoder writes events as JSON lines.
type Encoder struct {
	enc    *json.Encoder
	header bool
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Encode writes ev, preceded by a header on the first call.
func (e *Encoder) Encode(ev *Event) error {
	if !e.header {
		e.header = true
		if err := e.enc.Encode(&Event{Ev: EvHeader, Format: FormatName, Version: Version}); err != nil {
			return err
		}
	}
	return e.enc.Encode(ev)
}
