package submission

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentChecks bounds the existence checks run in parallel.
const maxConcurrentChecks = 8

// FileArea answers whether a stored filename is still present.
type FileArea interface {
	Exists(name string) bool
	Path(name string) string
}

// Reconciler filters image references down to files that still exist.
type Reconciler struct {
	files FileArea
}

// NewReconciler returns a reconciler over files.
func NewReconciler(files FileArea) *Reconciler {
	return &Reconciler{files: files}
}

// Existing returns the refs whose files are present, in their original order.
// Missing files are logged and dropped; they are never an error. A cancelled
// ctx is reported as an error rather than as missing files.
func (r *Reconciler) Existing(ctx context.Context, refs []string) ([]string, error) {
	present := make([]bool, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			present[i] = r.files.Exists(ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing := make([]string, 0, len(refs))
	for i, ref := range refs {
		if !present[i] {
			slog.Warn("Image not found", "image", ref)
			continue
		}
		existing = append(existing, ref)
	}
	return existing, nil
}
