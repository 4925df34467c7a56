// Package convert runs the conversion pipeline: raw metadata parsing,
// reconciliation, modality resolution, assembly and document building for
// one acquisition folder, plus batch orchestration across folders.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/holotome/htconv/internal/assemble"
	"github.com/holotome/htconv/internal/container"
	"github.com/holotome/htconv/internal/document"
	"github.com/holotome/htconv/internal/ledger"
	"github.com/holotome/htconv/internal/modality"
	"github.com/holotome/htconv/internal/models"
	"github.com/holotome/htconv/internal/omexml"
	"github.com/holotome/htconv/internal/rawconf"
	"github.com/holotome/htconv/internal/reconcile"
)

// Writer persists one acquisition's pixel arrays together with its
// metadata document.
type Writer interface {
	Write(folder string, doc *models.MetadataDocument, arrays map[string]*container.Array) error
}

// Options control pipeline behaviour.
type Options struct {
	// IncludeMIP keeps derived maximum-intensity projections in the output.
	IncludeMIP bool
	// OutputXML additionally exports the standalone metadata XML.
	OutputXML bool
	// DefaultUTCOffsetMin is the timezone fallback for reconciliation.
	DefaultUTCOffsetMin int
	// Rules overrides the modality classification table; nil uses the
	// built-in table.
	Rules []modality.Rule
}

// Pipeline converts acquisition folders. Each folder is processed
// sequentially with its own ID allocator; distinct folders may be
// processed concurrently.
type Pipeline struct {
	opts   Options
	writer Writer
	ledger *ledger.DB // optional
	logger *slog.Logger
}

// New creates a pipeline. led may be nil to disable the conversion ledger.
func New(opts Options, writer Writer, led *ledger.DB, logger *slog.Logger) *Pipeline {
	return &Pipeline{opts: opts, writer: writer, ledger: led, logger: logger}
}

// Folder converts one acquisition folder and returns the built document.
// The outcome is recorded in the ledger when one is configured.
func (p *Pipeline) Folder(ctx context.Context, folder string, overall map[string]string) (*models.MetadataDocument, error) {
	folder = filepath.Clean(folder)
	doc, err := p.process(ctx, folder, overall)
	p.record(folder, err)
	return doc, err
}

func (p *Pipeline) process(ctx context.Context, folder string, overall map[string]string) (*models.MetadataDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	autoA, err := rawconf.ParseAuto(filepath.Join(folder, rawconf.AutoConfigAFile))
	if err != nil {
		return nil, err
	}
	// The second side-file is written later in the acquisition pipeline;
	// older software versions omit it entirely.
	autoB, err := rawconf.ParseAuto(filepath.Join(folder, rawconf.AutoConfigBFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		p.logger.Warn("auto config B missing, continuing with A only",
			slog.String("folder", folder))
		autoB = map[string]string{}
	}
	if ts, err := rawconf.ReadTimestamp(folder); err == nil {
		if _, ok := autoA[reconcile.KeyRecordingTime]; !ok {
			autoA[reconcile.KeyRecordingTime] = ts
		}
	}

	rec, err := reconcile.Reconcile(overall, autoA, autoB, reconcile.Options{
		DefaultUTCOffsetMin: p.opts.DefaultUTCOffsetMin,
	})
	if err != nil {
		return nil, err
	}

	reader, err := container.NewDir(folder)
	if err != nil {
		return nil, err
	}
	entries, err := reader.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("convert: no image groups in %s", folder)
	}

	mods, err := modality.Resolve(entries, rec, modality.Options{
		IncludeMIP: p.opts.IncludeMIP,
		Rules:      p.opts.Rules,
	})
	if err != nil {
		return nil, err
	}

	alloc := assemble.NewIDAllocator()
	channels, sources := assemble.Channels(mods, rec, alloc)
	planes, labels := assemble.Geometry(mods, channels, rec)
	annotations, tiling := assemble.Annotations(rec)

	doc, err := document.Build(channels, sources, planes, labels, annotations, tiling, rec, filepath.Base(folder))
	if err != nil {
		return nil, err
	}

	arrays := make(map[string]*container.Array, len(mods))
	for _, m := range mods {
		arr, err := reader.Read(m.Path)
		if err != nil {
			return nil, err
		}
		arrays[m.Path] = arr
	}

	if p.writer != nil {
		if err := p.writer.Write(folder, doc, arrays); err != nil {
			return nil, err
		}
	}
	if p.opts.OutputXML {
		if err := omexml.WriteStandalone(folder, doc); err != nil {
			return nil, err
		}
	}

	p.logger.Info("converted acquisition",
		slog.String("folder", folder),
		slog.Int("channels", len(doc.Channels)),
		slog.Int("planes", len(doc.Planes)))
	return doc, nil
}

// record stores the outcome in the ledger, when one is configured.
func (p *Pipeline) record(folder string, convErr error) {
	if p.ledger == nil {
		return
	}
	r := ledger.Record{
		Folder:        folder,
		Status:        ledger.StatusOK,
		InputChecksum: InputChecksum(folder),
	}
	if convErr != nil {
		r.Status = ledger.StatusFailed
		r.Error = convErr.Error()
	}
	if err := p.ledger.Upsert(r); err != nil {
		p.logger.Warn("ledger update failed",
			slog.String("folder", folder),
			slog.String("error", err.Error()))
	}
}

// InputChecksum hashes the metadata side-files of a folder. A matching
// checksum on an ok ledger record means the folder can be skipped.
func InputChecksum(folder string) string {
	h := sha256.New()
	for _, name := range []string{rawconf.AutoConfigAFile, rawconf.AutoConfigBFile, rawconf.TimestampFile} {
		data, err := os.ReadFile(filepath.Join(folder, name))
		if err != nil {
			continue
		}
		h.Write([]byte(name))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
