// Package template implements the Template Materializer (spec §4.7): a
// pure function expanding one template across N selected source files
// into N fully-specified tasks, rewriting each step's file/output
// fields deterministically. It performs no I/O.
package template

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/mohae/deepcopy"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/engine/task"
)

// apiDocumentSentinel is the literal "API document" input name that
// must be left untouched by rewriting, preserving cross-task shared
// inputs (spec §4.7 step 2).
const apiDocumentSentinel = "接口文档"

// Selection pairs a source root with a file identifier — a path
// relative to that root, possibly containing subdirectories.
type Selection struct {
	SourcePath string
	FileID     string
}

// Options controls task-identity derivation (spec §4.7 step 4).
type Options struct {
	NamePrefix  string
	NamePattern string
	Description string
}

// Materialize expands tmpl once per selection, returning one fully
// rewritten Task per selection. It is deterministic: re-materializing
// with the same inputs produces byte-identical tasks modulo timestamps
// and freshly-minted ids.
func Materialize(tmpl *task.Template, selections []Selection, opts Options) ([]*task.Task, error) {
	if tmpl == nil {
		return nil, core.NewError(core.ErrConfigInvalid, "template is nil")
	}
	tasks := make([]*task.Task, 0, len(selections))
	for _, sel := range selections {
		t, err := materializeOne(tmpl, sel, opts)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func materializeOne(tmpl *task.Template, sel Selection, opts Options) (*task.Task, error) {
	if strings.TrimSpace(sel.FileID) == "" {
		return nil, core.NewError(core.ErrConfigInvalid, "selection has an empty file identifier")
	}

	names := deriveNames(sel.FileID)
	cloned := deepcopy.Copy(tmpl).(*task.Template)

	for _, wf := range cloned.Workflows {
		for _, s := range wf.Steps {
			rewriteStep(s, sel, names, opts.NamePrefix)
		}
	}

	return &task.Task{
		ID:          core.NewID().String(),
		Name:        deriveTaskName(names, opts),
		Description: deriveTaskDescription(names, sel, opts),
		Template:    cloned,
		Status:      core.TaskIdle,
	}, nil
}

// derivedNames holds the name fragments spec §4.7 step 1 defines from a
// selection's file identifier.
type derivedNames struct {
	fullFilePath        string
	fileName            string
	baseName            string
	capitalizedBase     string
	fileRelativePrefix  string
	extension           string
}

func deriveNames(fullFilePath string) derivedNames {
	normalized := strings.ReplaceAll(fullFilePath, "\\", "/")
	fileName := path.Base(normalized)
	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	prefix := strings.TrimSuffix(normalized, fileName)
	prefix = strings.TrimSuffix(prefix, "/")

	return derivedNames{
		fullFilePath:       fullFilePath,
		fileName:           fileName,
		baseName:           baseName,
		capitalizedBase:    capitalizeFirst(baseName),
		fileRelativePrefix: prefix,
		extension:          ext,
	}
}

// capitalizeFirst upper-cases the first Unicode rune only, leaving the
// remainder untouched (spec §4.7 step 1, Open Question 3 resolution:
// Unicode-aware via unicode.ToUpper rather than an ASCII-only rule).
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func rewriteStep(s *step.Step, sel Selection, names derivedNames, namePrefix string) {
	for i := range s.Config.FileInputs {
		rewriteFileInput(&s.Config.FileInputs[i], sel, names)
	}
	rewriteOutputs(s, names, namePrefix)
}

func rewriteFileInput(input *step.FileInput, sel Selection, names derivedNames) {
	if input.Name == apiDocumentSentinel {
		return
	}
	if input.Path == "" {
		return
	}

	dir, _, ext := splitPath(input.Path)

	var newFileName string
	if strings.EqualFold(ext, ".jsp") {
		newFileName = names.fileName
	} else {
		newFileName = names.capitalizedBase + ext
	}

	finalDir := dir
	if names.fileRelativePrefix != "" && !strings.Contains(finalDir, names.fileRelativePrefix) {
		finalDir = joinPath(finalDir, names.fileRelativePrefix)
	}

	if input.Name == "jsp" && strings.EqualFold(names.extension, ".jsp") {
		input.Path = joinPath(sel.SourcePath, names.fullFilePath)
		return
	}

	input.Path = joinPath(finalDir, newFileName)
}

func rewriteOutputs(s *step.Step, names derivedNames, namePrefix string) {
	outExt := path.Ext(s.Config.OutputFileName)
	s.Config.OutputFileName = fmt.Sprintf("%s%s%s", namePrefix, names.capitalizedBase, outExt)

	if names.fileRelativePrefix != "" && !strings.Contains(s.Config.OutputFolder, names.fileRelativePrefix) {
		s.Config.OutputFolder = joinPath(s.Config.OutputFolder, names.fileRelativePrefix)
	}
}

func splitPath(p string) (dir, base, ext string) {
	normalized := strings.ReplaceAll(p, "\\", "/")
	dir = path.Dir(normalized)
	if dir == "." {
		dir = ""
	}
	base = path.Base(normalized)
	ext = path.Ext(base)
	base = strings.TrimSuffix(base, ext)
	return dir, base, ext
}

// joinPath joins path segments with "/", preserving an absolute first
// segment (unlike a naive strings.Join, path.Join keeps a leading "/"
// when the first non-empty element has one).
func joinPath(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return path.Join(nonEmpty...)
}

func deriveTaskName(names derivedNames, opts Options) string {
	if opts.NamePattern != "" {
		return strings.ReplaceAll(opts.NamePattern, "{fileName}", names.capitalizedBase)
	}
	prefix := opts.NamePrefix
	if prefix == "" {
		prefix = "task"
	}
	return prefix + "-" + names.capitalizedBase
}

func deriveTaskDescription(names derivedNames, sel Selection, opts Options) string {
	desc := opts.Description
	desc = strings.ReplaceAll(desc, "{fileName}", names.capitalizedBase)
	desc = strings.ReplaceAll(desc, "{sourcePath}", sel.SourcePath)
	return desc
}
