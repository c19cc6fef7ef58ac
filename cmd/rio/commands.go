package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/jmgilman/go/rio"
	"github.com/jmgilman/go/rio/errors"
)

// closeInto closes h and stores the failure in errp unless it already holds one.
func closeInto(h *rio.Handle, errp *error) {
	if err := h.Close(); err != nil && *errp == nil {
		*errp = err
	}
}

func cat(ctx context.Context, e *env, args []string) (err error) {
	h, err := e.table.OpenContext(ctx, args[0], rio.Read)
	if err != nil {
		return err
	}
	defer closeInto(h, &err)

	_, err = io.Copy(e.stdout, h)
	return err
}

func put(ctx context.Context, e *env, args []string) (err error) {
	h, err := e.table.OpenContext(ctx, args[0], rio.Write)
	if err != nil {
		return err
	}
	defer closeInto(h, &err)

	return replace(h, e.stdin)
}

// replace truncates h and fills it from src.
func replace(h *rio.Handle, src io.Reader) error {
	size, err := h.Size()
	if err != nil {
		return err
	}
	if size > 0 {
		if err := h.Truncate(0); err != nil {
			return err
		}
	}
	if _, err := io.Copy(h, src); err != nil {
		return err
	}
	return h.Sync()
}

type appender struct {
	h *rio.Handle
}

func (a appender) Write(p []byte) (int, error) {
	return a.h.Append(p)
}

func appendTo(ctx context.Context, e *env, args []string) (err error) {
	h, err := e.table.OpenContext(ctx, args[0], rio.Write)
	if err != nil {
		return err
	}
	defer closeInto(h, &err)

	if _, err := io.Copy(appender{h}, e.stdin); err != nil {
		return err
	}
	return h.Sync()
}

// statOutput replaces the rates with nil when they are not finite, since JSON
// cannot represent NaN or infinity.
type statOutput struct {
	rio.Info
	ReadRate  *float64 `json:"read_rate"`
	WriteRate *float64 `json:"write_rate"`
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func stat(ctx context.Context, e *env, args []string) (err error) {
	h, err := e.table.OpenContext(ctx, args[0], rio.Read)
	if err != nil {
		return err
	}
	defer closeInto(h, &err)

	info, err := h.Info()
	if err != nil {
		return err
	}

	if e.json {
		return json.NewEncoder(e.stdout).Encode(statOutput{
			Info:      info,
			ReadRate:  finite(info.ReadRate),
			WriteRate: finite(info.WriteRate),
		})
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "uri:\t%s\n", info.URI)
	fmt.Fprintf(tw, "scheme:\t%s\n", info.Scheme)
	fmt.Fprintf(tw, "kind:\t%s\n", info.Kind)
	fmt.Fprintf(tw, "capabilities:\t%s\n", info.Capabilities)
	if info.Size < 0 {
		fmt.Fprintf(tw, "size:\tunknown\n")
	} else {
		fmt.Fprintf(tw, "size:\t%d\n", info.Size)
	}
	return tw.Flush()
}

func truncate(ctx context.Context, e *env, args []string) (err error) {
	size, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidArgument, "invalid size"),
			"size", args[1],
		)
	}

	h, err := e.table.OpenContext(ctx, args[0], rio.Write)
	if err != nil {
		return err
	}
	defer closeInto(h, &err)

	if err := h.Resize(size, 0); err != nil {
		return err
	}
	return h.Sync()
}

func cp(ctx context.Context, e *env, args []string) (err error) {
	src, err := e.table.OpenContext(ctx, args[0], rio.Read)
	if err != nil {
		return err
	}
	defer closeInto(src, &err)

	dst, err := e.table.OpenContext(ctx, args[1], rio.Write)
	if err != nil {
		return err
	}
	defer closeInto(dst, &err)

	return replace(dst, src)
}

func showConfig(_ context.Context, e *env, _ []string) error {
	cfg := e.config.Redacted()
	if e.json {
		return json.NewEncoder(e.stdout).Encode(cfg)
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(data)
	return err
}
