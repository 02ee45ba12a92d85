// Command wadtool inspects WAD archives and converts their maps between the DOOM, Hexen
// and UDMF formats.
//
//	wadtool [flags] lumps FILE
//	wadtool [flags] maps FILE
//	wadtool [flags] convert IN OUT [MAP...]
//	wadtool [flags] dump FILE MAP
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	wad "github.com/stuarthighley/wadmap"
)

var errUsage = errors.New("usage: wadtool [flags] lumps|maps|convert|dump ...")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var o options
	fs := flag.NewFlagSet("wadtool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	log, closeLog := newLogger(cfg.Logging, stderr)
	defer func() {
		_ = log.Sync()
		_ = closeLog()
	}()
	wad.SetLogger(log.Named("wad"))
	defer wad.SetLogger(nil)

	rest := fs.Args()
	if len(rest) < 2 {
		return errUsage
	}
	cmd, file, rest := rest[0], rest[1], rest[2:]
	log.Debug("Running", zap.String("command", cmd), zap.String("file", file))

	switch cmd {
	case "lumps":
		return listLumps(file, stdout)
	case "maps":
		return listMaps(file, stdout)
	case "convert":
		if len(rest) < 1 {
			return errUsage
		}
		f, err := wad.ParseMapFormat(cfg.Convert.Format)
		if err != nil {
			return err
		}
		return convert(ctx, log, file, rest[0], f, rest[1:])
	case "dump":
		if len(rest) != 1 {
			return errUsage
		}
		return dumpMap(file, rest[0], stdout)
	}
	return errUsage
}

func readWad(path string) (*wad.Wad, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	w, err := wad.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

func listLumps(path string, out io.Writer) error {
	w, err := readWad(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s, %d lumps\n", w.Type, w.Len())
	for i, l := range w.Lumps() {
		fmt.Fprintf(out, "%5d  %-8s  %d\n", i, l.Name(), len(l.Data))
	}
	return nil
}

func listMaps(path string, out io.Writer) error {
	w, err := readWad(path)
	if err != nil {
		return err
	}
	spans, err := w.Maps()
	if err != nil {
		return err
	}
	for _, s := range spans {
		fmt.Fprintf(out, "%-8s  %-5s  lumps %d-%d\n", s.Name, s.Format, s.Start, s.End-1)
	}
	return nil
}

// convert rewrites the named maps of in, or every map when none is named, in format f
func convert(ctx context.Context, log *zap.Logger, in, out string, f wad.MapFormat, names []string) error {
	w, err := readWad(in)
	if err != nil {
		return err
	}
	spans, err := w.Maps()
	if err != nil {
		return err
	}
	maps, err := w.ReadMaps(ctx)
	if err != nil {
		return err
	}

	want := func(name string) bool {
		if len(names) == 0 {
			return true
		}
		for _, n := range names {
			if strings.EqualFold(name, n) {
				return true
			}
		}
		return false
	}

	converted := 0
	for i, s := range spans {
		if !want(s.Name) {
			continue
		}
		m := maps[i]
		if f == wad.FormatUDMF && m.Namespace == "" {
			m.Namespace = s.Format.String()
		}
		if err := w.WriteMap(s.Name, m, f); err != nil {
			return err
		}
		log.Info("Converted map", zap.String("map", s.Name), zap.Stringer("from", s.Format), zap.Stringer("to", f))
		converted++
	}
	if converted == 0 {
		return fmt.Errorf("%s: no matching maps", in)
	}

	data, err := w.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0644)
}

// mapDump is the YAML view of a decoded map
type mapDump struct {
	Name      string         `yaml:"name"`
	Format    string         `yaml:"format"`
	Namespace string         `yaml:"namespace,omitempty"`
	Globals   wad.Fields     `yaml:"globals,omitempty"`
	Vertices  []wad.Vertex   `yaml:"vertices"`
	Linedefs  []wad.Linedef  `yaml:"linedefs"`
	Sidedefs  []wad.Sidedef  `yaml:"sidedefs"`
	Sectors   []wad.Sector   `yaml:"sectors"`
	Things    []wad.Thing    `yaml:"things"`
	Blocks    []wad.RawBlock `yaml:"blocks,omitempty"`
}

func dumpMap(path, name string, out io.Writer) error {
	w, err := readWad(path)
	if err != nil {
		return err
	}
	s, err := w.FindMap(name)
	if err != nil {
		return err
	}
	m, err := w.ReadMap(name)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(mapDump{
		Name:      s.Name,
		Format:    s.Format.String(),
		Namespace: m.Namespace,
		Globals:   m.Globals,
		Vertices:  m.Vertices(),
		Linedefs:  m.Linedefs(),
		Sidedefs:  m.Sidedefs(),
		Sectors:   m.Sectors(),
		Things:    m.Things(),
		Blocks:    m.Blocks,
	}); err != nil {
		return err
	}
	return enc.Close()
}
