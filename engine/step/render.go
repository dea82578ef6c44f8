package step

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/weaveflow/weaveflow/engine/core"
)

// segmentKind distinguishes prose from a file substitution in the
// rendered prompt (spec §4.3 step 3-4).
type segmentKind int

const (
	segmentPrompt segmentKind = iota
	segmentFile
)

// segment is one piece of the interleaved prompt/file sequence. For a
// file segment, value holds the resolved path, not file content — the
// content is read fresh at materialization time (step 4).
type segment struct {
	kind  segmentKind
	value string
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// renderSegments scans content for {{name}} tokens in left-to-right
// order and emits the interleaved prompt/file segment sequence. This is
// a plain ordered scan rather than a text/template execution, because
// the spec requires the exact interleaving of literal text and file
// substitutions to be observable and reproducible (§4.3 step 3) — a
// template engine that executes and returns a single rendered string
// would discard that structure.
func renderSegments(content string, nameToPath map[string]string) ([]segment, error) {
	var segments []segment
	lastEnd := 0
	for _, match := range tokenPattern.FindAllStringSubmatchIndex(content, -1) {
		start, end := match[0], match[1]
		nameStart, nameEnd := match[2], match[3]

		if text := strings.TrimSpace(content[lastEnd:start]); text != "" {
			segments = append(segments, segment{kind: segmentPrompt, value: text})
		}

		name := strings.TrimSpace(content[nameStart:nameEnd])
		path, ok := nameToPath[name]
		if !ok {
			return nil, core.NewError(core.ErrConfigInvalid, fmt.Sprintf("unknown file reference: %s", name))
		}
		segments = append(segments, segment{kind: segmentFile, value: path})
		lastEnd = end
	}
	if text := strings.TrimSpace(content[lastEnd:]); text != "" {
		segments = append(segments, segment{kind: segmentPrompt, value: text})
	}
	return segments, nil
}
