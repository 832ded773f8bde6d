package pipeline

import (
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// OutputName is the file name a generated image gets for a source file.
func OutputName(ts time.Time, sourceName string) string {
	return "generated_" + ts.Format(timestampLayout) + "_" + sourceName
}

// ManualName is the file name for a dashboard generation without a source.
func ManualName(ts time.Time, id, ext string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "generated_" + ts.Format(timestampLayout) + "_manual_" + id + ext
}

// UploadName is the file name for an image uploaded through the dashboard.
func UploadName(ts time.Time, original string) string {
	return "uploaded_" + ts.Format(timestampLayout) + "_" + original
}

// Origins reported by ParseName.
const (
	NameGenerated = "generated"
	NameManual    = "manual"
	NameUploaded  = "uploaded"
	NameOther     = "other"
)

// ParsedName is the result of ParseName.
type ParsedName struct {
	Origin     string
	Time       time.Time
	SourceName string
}

// ParseName reverses OutputName, ManualName and UploadName. Names that do
// not follow any of them come back with origin "other".
func ParseName(name string) ParsedName {
	for _, prefix := range []string{NameGenerated, NameUploaded} {
		rest, ok := strings.CutPrefix(name, prefix+"_")
		if !ok || len(rest) < len(timestampLayout)+2 || rest[len(timestampLayout)] != '_' {
			continue
		}
		ts, err := time.ParseInLocation(timestampLayout, rest[:len(timestampLayout)], time.Local)
		if err != nil {
			continue
		}
		source := rest[len(timestampLayout)+1:]

		switch {
		case prefix == NameUploaded:
			return ParsedName{Origin: NameUploaded, Time: ts, SourceName: source}
		case strings.HasPrefix(source, "manual_"):
			return ParsedName{Origin: NameManual, Time: ts}
		default:
			return ParsedName{Origin: NameGenerated, Time: ts, SourceName: source}
		}
	}
	return ParsedName{Origin: NameOther}
}
