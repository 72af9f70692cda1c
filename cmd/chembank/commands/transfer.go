package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/chembank/chembank/pkg/errors"
	appfsm "github.com/chembank/chembank/pkg/fsm"
	"github.com/chembank/chembank/pkg/security"
	"github.com/chembank/chembank/pkg/storage"
	"github.com/chembank/chembank/pkg/transfer"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/superfly/fsm"
)

var transferPrefix string

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Export the whole catalogue to a folder of CSV tables and images",
	Long: `Writes structures.csv, properties.csv, components.csv and images/<id>/<filename>
into <dir>. With --s3-prefix the folder is then uploaded to the configured bucket.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import a folder written by export into the catalogue",
	Long: `Inserts every row of <dir> as new records; nothing is written if any row fails.
With --s3-prefix the folder is first downloaded from the configured bucket into <dir>.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().StringVar(&transferPrefix, "s3-prefix", "", "Mirror the folder to/from this bucket prefix")
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	dir := args[0]
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if transferPrefix != "" {
			return runRemote(ctx, cfg, c, appfsm.ExportMachine, dir)
		}
		stats, err := c.ExportToFolder(ctx, dir)
		if err != nil {
			return err
		}
		printStats("Exported", dir, stats)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	dir := args[0]
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if transferPrefix != "" {
			return runRemote(ctx, cfg, c, appfsm.ImportMachine, dir)
		}
		stats, err := c.ImportFromFolder(ctx, dir)
		if err != nil {
			return err
		}
		printStats("Imported", dir, stats)
		return nil
	})
}

// runRemote drives one of the transfer machines to completion.
func runRemote(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue, machineName, dir string) error {
	if err := cfg.RequireS3(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.FSMDBPath, 0755); err != nil {
		return errors.Wrap(err, "failed to create FSM directory")
	}

	s3Client, err := storage.NewClient(ctx, storage.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
	}, security.NewValidator(cfg.MaxImageSize))
	if err != nil {
		return errors.Wrap(err, "S3 client failed")
	}

	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath})
	if err != nil {
		return errors.Wrap(err, "FSM manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	machine := appfsm.NewMachine(c, s3Client)
	var start fsm.Start[appfsm.TransferRequest, appfsm.TransferResponse]
	if machineName == appfsm.ExportMachine {
		start, _, err = machine.RegisterExport(ctx, manager)
	} else {
		start, _, err = machine.RegisterImport(ctx, manager)
	}
	if err != nil {
		return errors.Wrap(err, "FSM register failed")
	}

	runID := appfsm.NewRunID()
	req := &appfsm.TransferRequest{Dir: dir, Prefix: transferPrefix, Bucket: s3Client.Bucket()}
	resp := &appfsm.TransferResponse{RunID: runID}

	version, err := start(ctx, runID, fsm.NewRequest(req, resp))
	if err != nil {
		return errors.Wrap(err, "FSM start failed")
	}

	if err := manager.Wait(ctx, version); err != nil {
		return errors.Wrap(err, "FSM execution failed")
	}

	printStats(machineName, dir, &transfer.Stats{
		Structures: resp.Structures,
		Properties: resp.Properties,
		Components: resp.Components,
		Images:     resp.Images,
		ImageBytes: resp.ImageBytes,
	})
	fmt.Printf("  objects:    %d (%s) under s3://%s/%s\n",
		resp.Objects, humanize.Bytes(uint64(resp.ObjectBytes)), req.Bucket, req.Prefix)
	fmt.Printf("  run:        %s (%s)\n", runID, resp.Status)
	return nil
}

func printStats(verb, dir string, s *transfer.Stats) {
	fmt.Printf("%s %s\n", verb, dir)
	fmt.Printf("  structures: %d\n", s.Structures)
	fmt.Printf("  properties: %d\n", s.Properties)
	fmt.Printf("  components: %d\n", s.Components)
	fmt.Printf("  images:     %d (%s)\n", s.Images, humanize.Bytes(uint64(s.ImageBytes)))
}
