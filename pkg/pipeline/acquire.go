package pipeline

import (
	"context"
	"errors"
	"fmt"

	"snaptext/pkg/bus"
	"snaptext/pkg/spool"
)

// FileFetcher downloads the raw bytes of a photo variant by file reference.
type FileFetcher interface {
	DownloadPhoto(ctx context.Context, fileID string) ([]byte, error)
}

// Acquirer materializes the canonical resolution of an inbound photo as a
// spool artifact owned by the current run.
type Acquirer struct {
	fetcher FileFetcher
	spool   *spool.Spool
}

func NewAcquirer(fetcher FileFetcher, sp *spool.Spool) *Acquirer {
	return &Acquirer{fetcher: fetcher, spool: sp}
}

// Acquire downloads the largest photo variant (last in gateway order) and
// writes it under a per-run unique key. Failures are transient and never
// retried here.
func (a *Acquirer) Acquire(ctx context.Context, photo bus.InboundPhoto) (*spool.Handle, error) {
	if len(photo.Variants) == 0 {
		return nil, errors.New("photo has no variants")
	}

	largest := photo.Variants[len(photo.Variants)-1]
	data, err := a.fetcher.DownloadPhoto(ctx, largest.FileID)
	if err != nil {
		return nil, fmt.Errorf("download photo variant: %w", err)
	}

	handle, err := a.spool.Put(data, ".jpg")
	if err != nil {
		return nil, fmt.Errorf("spool photo: %w", err)
	}

	return handle, nil
}
