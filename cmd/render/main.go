// one-shot icon rendering without the http server
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ds124wfegd/icongen/config"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/ds124wfegd/icongen/internal/pkg/scaler"
	"github.com/ds124wfegd/icongen/internal/pkg/storage"
)

var errNoInput = errors.New("--in is required")

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	v, err := loadFlags(os.Args[1:])
	if err != nil {
		logrus.Fatalf("Cannot parse flags. Error: {%s}", err.Error())
	}

	out, err := run(context.Background(), v)
	if err != nil {
		logrus.Fatalf("render failed: %v", err)
	}
	logrus.WithField("output", out).Info("icon written")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	fs.String("in", "", "source image")
	fs.String("out-dir", ".", "directory the icon is written to")
	fs.StringSlice("frame", nil, "frame image painted over the icon, repeatable")
	fs.Int("frame-index", 0, "frame to use when several are given")
	fs.Int("size", 100, "icon edge length in pixels")
	fs.Int("max-size", 2048, "largest accepted --size, defaults to render.max_draw_size")
	fs.String("suffix", "_ig", "inserted before the output file extension")
	fs.String("mime", "image/png", "output image type")
	fs.String("resampler", scaler.Imaging, "one of "+strings.Join(scaler.Names(), ", "))
	fs.Duration("timeout", 30*time.Second, "give up after this long")
	return fs
}

// loadFlags binds the command line into viper. ICONGEN_SIZE and friends
// fill in anything not given on the command line.
func loadFlags(args []string) (*viper.Viper, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if server, err := config.LoadConfig(); err == nil {
		v.SetDefault("max-size", server.GetInt("render.max_draw_size"))
	}
	v.SetEnvPrefix("icongen")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func run(ctx context.Context, v *viper.Viper) (string, error) {
	in := v.GetString("in")
	if in == "" {
		return "", errNoInput
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return "", err
	}

	if size, limit := v.GetInt("size"), v.GetInt("max-size"); size > limit {
		return "", fmt.Errorf("%w: %d (allowed 1..%d)", icongen.ErrInvalidSize, size, limit)
	}

	sc, err := scaler.ByName(v.GetString("resampler"))
	if err != nil {
		return "", err
	}

	gen, err := icongen.New(icongen.NewCanvas(), icongen.Options{
		Suffix:   v.GetString("suffix"),
		DrawSize: v.GetInt("size"),
		MIMEType: v.GetString("mime"),
		Frames:   icongen.FramePaths(v.GetStringSlice("frame")...),
		Scaler:   sc,
		Listener: icongen.ListenerFuncs{
			Rendered: func(info icongen.DrawInfo) {
				logrus.WithFields(logrus.Fields{
					"size":   info.Size,
					"width":  info.Width,
					"height": info.Height,
					"x":      info.X,
					"y":      info.Y,
				}).Debug("rendered")
			},
		},
	})
	if err != nil {
		return "", err
	}

	if idx := v.GetInt("frame-index"); idx != 0 {
		if err := gen.SwitchFrame(idx); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, v.GetDuration("timeout"))
	defer cancel()

	declared := mimetype.Detect(data).String()
	file := icongen.NewFile(filepath.Base(in), declared, data)
	if err := gen.LoadFile(ctx, file).WaitContext(ctx); err != nil {
		return "", fmt.Errorf("load %s: %w", in, err)
	}

	out, err := gen.OutputData()
	if err != nil {
		return "", err
	}

	name := gen.FileName()
	store := storage.NewFileStorage(v.GetString("out-dir"))
	if err := store.Save(name, bytes.NewReader(out)); err != nil {
		return "", err
	}
	return store.FullPath(name)
}
