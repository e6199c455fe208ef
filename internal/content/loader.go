package content

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	apperrors "github.com/contentgraph/docsearch/pkg/errors"
)

const maxTitleLength = 256

// frontmatterEnvelope is the typed shape decoded from a document's metadata
// header. Unknown keys land in Custom; required/optional fields are explicit
// rather than duck-typed.
type frontmatterEnvelope struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Order       *int           `yaml:"order"`
	Related     []string       `yaml:"related"`
	Custom      map[string]any `yaml:",inline"`
}

func (f frontmatterEnvelope) validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&f.Description, validation.Length(0, 2048)),
		validation.Field(&f.Related, validation.Each(validation.Required)),
	)
}

// Loader reads every content file under a root directory and turns it into
// a Document. Loading is a pure function of the tree's contents: the same
// files always produce the same documents in the same order.
type Loader struct {
	extensions map[string]struct{}
	logger     *slog.Logger
}

// NewLoader creates a Loader accepting the given file extensions
// (e.g. ".md", ".mdx").
func NewLoader(extensions []string) *Loader {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Loader{
		extensions: exts,
		logger:     slog.Default().With("component", "content-loader"),
	}
}

// Load walks root inside fsys and returns every document, sorted by id.
// It fails on the first malformed or missing required frontmatter field and
// when two files derive the same id, naming the offending source paths.
func (l *Loader) Load(fsys fs.FS, root string) ([]*Document, error) {
	var docs []*Document
	byID := make(map[string]*Document)

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := l.extensions[strings.ToLower(path.Ext(p))]; !ok {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		doc, err := l.parse(p, root, raw)
		if err != nil {
			return err
		}
		if prev, exists := byID[doc.ID]; exists {
			return &apperrors.DuplicateIDError{
				ID:         doc.ID,
				FirstPath:  prev.SourcePath,
				SecondPath: doc.SourcePath,
			}
		}
		byID[doc.ID] = doc
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	l.logger.Info("content loaded", "root", root, "documents", len(docs))
	return docs, nil
}

// parse splits raw file content into frontmatter and body and builds the
// Document. Markdown syntax in the body is left untouched; rendering is a
// collaborator's concern.
func (l *Loader) parse(sourcePath, root string, raw []byte) (*Document, error) {
	var meta frontmatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return nil, &apperrors.ValidationError{
			Path:   sourcePath,
			Fields: map[string]string{"frontmatter": err.Error()},
		}
	}
	if err := meta.validate(); err != nil {
		return nil, &apperrors.ValidationError{
			Path:   sourcePath,
			Fields: validationFields(err),
		}
	}

	id := DeriveID(sourcePath, root)
	related := append([]string(nil), meta.Related...)
	sort.Strings(related)

	return &Document{
		ID:          id,
		Title:       strings.TrimSpace(meta.Title),
		Description: strings.TrimSpace(meta.Description),
		Path:        strings.Split(id, "/"),
		Body:        string(body),
		Frontmatter: meta.Custom,
		RelatedIDs:  related,
		Order:       meta.Order,
		SourcePath:  sourcePath,
	}, nil
}

// DeriveID converts a source path into the stable document id: relative to
// root, extension stripped, and an `index` basename collapsed onto its
// directory.
func DeriveID(sourcePath, root string) string {
	rel := strings.TrimPrefix(sourcePath, root)
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if base := path.Base(rel); base == "index" || base == "_index" {
		rel = path.Dir(rel)
		if rel == "." {
			rel = "index"
		}
	}
	return rel
}

// validationFields flattens an ozzo validation error into per-field
// messages.
func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validation.Errors
	if ok := errorsAs(err, &verrs); ok {
		for field, ferr := range verrs {
			fields[strings.ToLower(field)] = ferr.Error()
		}
		return fields
	}
	fields["frontmatter"] = err.Error()
	return fields
}

func errorsAs(err error, target *validation.Errors) bool {
	verrs, ok := err.(validation.Errors)
	if ok {
		*target = verrs
	}
	return ok
}
