package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iamNilotpal/raftlog/config"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/core/services/raftlog"
	sm "github.com/iamNilotpal/raftlog/internal/core/services/segment/manager"
	"github.com/iamNilotpal/raftlog/internal/serialize"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	contentBytes  = "bytes"
	contentString = "string"
	contentJSON   = "json"
)

func contentMarshal(kind string) (ports.ContentMarshal, error) {
	switch kind {
	case contentBytes:
		return serialize.NewBytesMarshal(), nil
	case contentString:
		return serialize.NewStringMarshal(), nil
	case contentJSON:
		return serialize.NewJSONMarshal[any](), nil
	default:
		return nil, fmt.Errorf("unknown content kind %q, want bytes, string or json", kind)
	}
}

func run(cmd *cobra.Command, f *flags, dirs []string, log *zap.SugaredLogger) error {
	marshal, err := contentMarshal(f.content)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if f.configFile != "" {
		if cfg, err = config.LoadConfig(f.configFile); err != nil {
			return err
		}
	}
	if f.prefix != "" {
		cfg.Segment.Prefix = f.prefix
	}

	if f.outDir != "" {
		if err := os.MkdirAll(f.outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory : %w", err)
		}
	}

	var errs []error
	for _, dir := range dirs {
		opts := cfg.ToOptions(marshal, log.With("directory", dir), nil)
		opts.Directory = dir

		if f.outDir == "" {
			if err := dump(cmd.OutOrStdout(), opts); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			}
			continue
		}

		out := filepath.Join(f.outDir, filepath.Base(filepath.Clean(dir))+".txt")
		if err := dumpToFile(out, opts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", dir, out)
	}

	return errors.Join(errs...)
}

func dumpToFile(path string, opts *domain.LogOptions) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	return dump(file, opts)
}

// dump recovers the log in opts.Directory read-only and writes every segment
// header followed by its entries.
func dump(w io.Writer, opts *domain.LogOptions) error {
	opts.ReadOnly = true
	opts = raftlog.PrepareDefaults(opts)

	state, err := sm.NewRecoveryProtocol(opts).Run(nil)
	if err != nil {
		return err
	}
	defer state.Segments.Close()

	fmt.Fprintf(w, "# %s\n", opts.Directory)
	fmt.Fprintf(
		w, "# prevIndex=%d prevTerm=%d appendIndex=%d currentTerm=%d\n",
		state.PrevIndex, state.PrevTerm, state.AppendIndex, state.CurrentTerm,
	)

	for _, seg := range state.Segments.All() {
		header := seg.Header()
		fmt.Fprintf(w, "\n%s %s\n", filepath.Base(seg.Path()), header)

		cursor, err := seg.GetReader(header.Start())
		if logerrors.IsDisposed(err) {
			fmt.Fprintln(w, "(superseded by a later truncation)")
			continue
		}
		if err != nil {
			return err
		}

		for cursor.Next() {
			fmt.Fprintln(w, cursor.Record())
		}
		err = cursor.Err()
		cursor.Close()

		if errors.Is(err, io.ErrUnexpectedEOF) {
			fmt.Fprintf(w, "(partial record at offset %d)\n", cursor.Offset())
			continue
		}
		if err != nil {
			return fmt.Errorf("segment %d: %w", seg.Version(), err)
		}
	}

	return nil
}
