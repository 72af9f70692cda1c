package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/chembank/chembank/pkg/errors"
	"github.com/chembank/chembank/pkg/storage"
	"github.com/chembank/chembank/pkg/transfer"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/superfly/fsm"
)

// Catalogue is the part of the catalogue driven by the transfer machines.
type Catalogue interface {
	ExportToFolder(ctx context.Context, dir string) (*transfer.Stats, error)
	ImportFromFolder(ctx context.Context, dir string) (*transfer.Stats, error)
}

// Mirror copies export folders to and from remote storage.
type Mirror interface {
	UploadDir(ctx context.Context, dir, prefix string) (*storage.TransferResult, error)
	DownloadPrefix(ctx context.Context, prefix, dir string) (*storage.TransferResult, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Machine holds dependencies for FSM transitions. Every failing transition
// aborts the run: an import is not idempotent, so nothing is retried.
type Machine struct {
	catalogue Catalogue
	mirror    Mirror
}

// NewMachine creates a new FSM machine with dependencies
func NewMachine(catalogue Catalogue, mirror Mirror) *Machine {
	return &Machine{catalogue: catalogue, mirror: mirror}
}

// NewRunID returns a unique id for one machine run.
func NewRunID() string {
	return uuid.NewString()
}

type request = fsm.Request[TransferRequest, TransferResponse]

type response = fsm.Response[TransferResponse]

func responseOf(req *request) (*TransferResponse, error) {
	if req.W.Msg == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}
	return req.W.Msg, nil
}

func recordStats(resp *TransferResponse, s *transfer.Stats) {
	resp.Structures = s.Structures
	resp.Properties = s.Properties
	resp.Components = s.Components
	resp.Images = s.Images
	resp.ImageBytes = s.ImageBytes
}

// handleExport writes the catalogue to the local folder.
func (m *Machine) handleExport(ctx context.Context, req *request) (*response, error) {
	slog.Info("fsm_state_export", "dir", req.Msg.Dir)

	resp, err := responseOf(req)
	if err != nil {
		return nil, err
	}

	stats, err := m.catalogue.ExportToFolder(ctx, req.Msg.Dir)
	if err != nil {
		slog.Error("export_failed", "dir", req.Msg.Dir, "error", err)
		return nil, fsm.Abort(errors.Wrap(err, "export failed"))
	}
	recordStats(resp, stats)

	return fsm.NewResponse(resp), nil
}

// handleUpload mirrors the exported folder to the bucket prefix.
func (m *Machine) handleUpload(ctx context.Context, req *request) (*response, error) {
	slog.Info("fsm_state_upload", "dir", req.Msg.Dir, "bucket", req.Msg.Bucket, "prefix", req.Msg.Prefix)

	resp, err := responseOf(req)
	if err != nil {
		return nil, err
	}

	result, err := m.mirror.UploadDir(ctx, req.Msg.Dir, req.Msg.Prefix)
	if err != nil {
		slog.Error("upload_failed", "prefix", req.Msg.Prefix, "error", err)
		return nil, fsm.Abort(errors.Wrap(err, "upload failed"))
	}
	resp.Objects = result.Objects
	resp.ObjectBytes = result.Bytes

	slog.Info("upload_complete", "prefix", req.Msg.Prefix, "objects", result.Objects, "size", humanize.Bytes(uint64(result.Bytes)))
	return fsm.NewResponse(resp), nil
}

// handleDownload fetches the bucket prefix into the local folder. The prefix
// must hold an export, recognised by its structures table.
func (m *Machine) handleDownload(ctx context.Context, req *request) (*response, error) {
	slog.Info("fsm_state_download", "bucket", req.Msg.Bucket, "prefix", req.Msg.Prefix, "dir", req.Msg.Dir)

	resp, err := responseOf(req)
	if err != nil {
		return nil, err
	}

	marker := path.Join(req.Msg.Prefix, transfer.StructuresFile)
	found, err := m.mirror.Exists(ctx, marker)
	if err != nil {
		slog.Error("download_failed", "prefix", req.Msg.Prefix, "error", err)
		return nil, fsm.Abort(errors.Wrap(err, "download failed"))
	}
	if !found {
		slog.Error("download_no_export", "prefix", req.Msg.Prefix, "key", marker)
		return nil, fsm.Abort(errors.Newf(errors.ErrMalformedInput, "folder", "download",
			"no export under prefix %q", req.Msg.Prefix))
	}

	result, err := m.mirror.DownloadPrefix(ctx, req.Msg.Prefix, req.Msg.Dir)
	if err != nil {
		slog.Error("download_failed", "prefix", req.Msg.Prefix, "error", err)
		return nil, fsm.Abort(errors.Wrap(err, "download failed"))
	}
	resp.Objects = result.Objects
	resp.ObjectBytes = result.Bytes

	return fsm.NewResponse(resp), nil
}

// handleImport loads the downloaded folder into the catalogue.
func (m *Machine) handleImport(ctx context.Context, req *request) (*response, error) {
	slog.Info("fsm_state_import", "dir", req.Msg.Dir)

	resp, err := responseOf(req)
	if err != nil {
		return nil, err
	}

	stats, err := m.catalogue.ImportFromFolder(ctx, req.Msg.Dir)
	if err != nil {
		slog.Error("import_failed", "dir", req.Msg.Dir, "error", err)
		return nil, fsm.Abort(errors.Wrap(err, "import failed"))
	}
	recordStats(resp, stats)

	return fsm.NewResponse(resp), nil
}

// handleComplete marks the run as complete
func (m *Machine) handleComplete(ctx context.Context, req *request) (*response, error) {
	resp, err := responseOf(req)
	if err != nil {
		return nil, err
	}
	resp.Status = StatusComplete

	slog.Info("fsm_complete",
		"run_id", resp.RunID,
		"structures", resp.Structures,
		"images", resp.Images,
		"objects", resp.Objects,
	)
	return fsm.NewResponse(resp), nil
}
