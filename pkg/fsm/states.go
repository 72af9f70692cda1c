// Package fsm orchestrates moving a catalogue through remote storage with the
// superfly/fsm library: export then upload, or download then import.
package fsm

import (
	"context"

	"github.com/chembank/chembank/pkg/errors"
	"github.com/superfly/fsm"
)

// RegisterExport registers the export-then-upload machine.
func (m *Machine) RegisterExport(ctx context.Context, manager *fsm.Manager) (fsm.Start[TransferRequest, TransferResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[TransferRequest, TransferResponse](manager, ExportMachine).
		Start(StateExport, m.handleExport).
		To(StateUpload, m.handleUpload).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register export FSM")
	}

	return start, resume, nil
}

// RegisterImport registers the download-then-import machine.
func (m *Machine) RegisterImport(ctx context.Context, manager *fsm.Manager) (fsm.Start[TransferRequest, TransferResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[TransferRequest, TransferResponse](manager, ImportMachine).
		Start(StateDownload, m.handleDownload).
		To(StateImport, m.handleImport).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register import FSM")
	}

	return start, resume, nil
}
